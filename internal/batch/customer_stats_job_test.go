package batch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"customer-service/internal/batch"
	"customer-service/internal/domain/customer"
	"customer-service/internal/infrastructure/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStateCounter struct {
	mock.Mock
}

func (m *MockStateCounter) CountByState(ctx context.Context) ([]customer.StateCount, error) {
	args := m.Called(ctx)
	if counts, ok := args.Get(0).([]customer.StateCount); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

func newJob() (*MockStateCounter, *batch.CustomerStatsJob) {
	counter := new(MockStateCounter)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return counter, batch.NewCustomerStatsJob(counter, logger)
}

func TestNewCustomerStatsJobPanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() { batch.NewCustomerStatsJob(nil, slog.Default()) })
	assert.Panics(t, func() { batch.NewCustomerStatsJob(new(MockStateCounter), nil) })
}

func TestCustomerStatsJobRun(t *testing.T) {
	t.Run("publishes a fresh snapshot", func(t *testing.T) {
		monitoring.SetCustomerTotals(map[[2]string]float64{{"STALE", "true"}: 99})

		counter, job := newJob()
		counter.On("CountByState", mock.Anything).Return([]customer.StateCount{
			{DataState: customer.DataStateActive, Active: true, Total: 4},
			{DataState: customer.DataStateActive, Active: false, Total: 1},
			{DataState: customer.DataStateInactive, Active: true, Total: 2},
			{DataState: "", Active: false, Total: 3},
		}, nil).Once()

		require.NoError(t, job.Run(context.Background()))

		gauge := monitoring.Business.CustomersTotal
		assert.Equal(t, 4, testutil.CollectAndCount(gauge))
		assert.Equal(t, 4.0, testutil.ToFloat64(gauge.WithLabelValues("ACTIVE", "true")))
		assert.Equal(t, 1.0, testutil.ToFloat64(gauge.WithLabelValues("ACTIVE", "false")))
		assert.Equal(t, 2.0, testutil.ToFloat64(gauge.WithLabelValues("INACTIVE", "true")))
		assert.Equal(t, 3.0, testutil.ToFloat64(gauge.WithLabelValues("NONE", "false")))
		counter.AssertExpectations(t)
	})

	t.Run("keeps previous snapshot on failure", func(t *testing.T) {
		monitoring.SetCustomerTotals(map[[2]string]float64{{"ACTIVE", "true"}: 7})

		counter, job := newJob()
		counter.On("CountByState", mock.Anything).Return(nil, errors.New("connection reset")).Once()

		err := job.Run(context.Background())

		assert.ErrorContains(t, err, "connection reset")
		assert.Equal(t, 7.0, testutil.ToFloat64(monitoring.Business.CustomersTotal.WithLabelValues("ACTIVE", "true")))
	})
}
