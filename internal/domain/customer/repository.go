package customer

import (
	"context"

	"customer-service/internal/pkg/apperrors"
)

var (
	ErrNotFound = apperrors.ErrNotFound

	ErrDuplicateCustomer = apperrors.ErrAlreadyExists

	ErrInvalidCustomer = apperrors.ErrInvalidArgument
)

type CustomerRepository interface {
	// Save inserts when ID is zero and overwrites every column otherwise.
	Save(ctx context.Context, customer *Customer) error

	// FindByID returns the stored record regardless of its data state.
	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// FindPage returns one unfiltered page and the total row count.
	FindPage(ctx context.Context, req PageRequest) ([]*Customer, int64, error)

	CountByState(ctx context.Context) ([]StateCount, error)
}
