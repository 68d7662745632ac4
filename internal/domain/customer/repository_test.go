package customer

import (
	"context"

	"customer-service/internal/event"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (_m *MockCustomerRepository) Save(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockCustomerRepository) FindPage(ctx context.Context, req PageRequest) ([]*Customer, int64, error) {
	ret := _m.Called(ctx, req)

	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}

	var r1 int64
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(int64)
	}

	return r0, r1, ret.Error(2)
}

func (_m *MockCustomerRepository) CountByState(ctx context.Context) ([]StateCount, error) {
	ret := _m.Called(ctx)

	var r0 []StateCount
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]StateCount)
	}

	return r0, ret.Error(1)
}

var _ CustomerRepository = (*MockCustomerRepository)(nil)

type MockEventPublisher struct {
	mock.Mock
}

func (_m *MockEventPublisher) PublishCustomerEvent(ctx context.Context, evt event.CustomerEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}

var _ event.EventPublisher = (*MockEventPublisher)(nil)
