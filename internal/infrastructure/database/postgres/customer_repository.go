package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-service/internal/domain/customer"
	"customer-service/internal/infrastructure/monitoring"
	"customer-service/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `id, COALESCE(name, ''), cpf, email, COALESCE(phone, ''), COALESCE(city, ''),
        COALESCE(state, ''), COALESCE(country, ''), registration_date, active, COALESCE(data_state, ''),
        created_at, updated_at`

const (
	insertCustomerSQL = `
        INSERT INTO customers (name, cpf, email, phone, city, state, country, registration_date, active, data_state, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	updateCustomerSQL = `
        UPDATE customers
        SET name = $1,
            cpf = $2,
            email = $3,
            phone = $4,
            city = $5,
            state = $6,
            country = $7,
            registration_date = $8,
            active = $9,
            data_state = $10,
            updated_at = NOW()
        WHERE id = $11`

	findCustomerByIDSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	countCustomersSQL = `SELECT COUNT(*) FROM customers`

	countCustomersByStateSQL = `
        SELECT COALESCE(data_state, ''), active, COUNT(*)
        FROM customers
        GROUP BY data_state, active
        ORDER BY 1, 2`
)

// sortColumns maps the public sort keys onto table columns.
var sortColumns = map[string]string{
	"id":               "id",
	"name":             "name",
	"cpf":              "cpf",
	"email":            "email",
	"phone":            "phone",
	"city":             "city",
	"state":            "state",
	"country":          "country",
	"registrationDate": "registration_date",
	"active":           "active",
	"dataState":        "data_state",
}

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	if cust.ID == 0 {
		return r.createCustomer(ctx, cust)
	}
	return r.updateCustomer(ctx, cust)
}

func (r *CustomerRepository) createCustomer(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to insert new customer")
	startTime := time.Now()

	err := r.db.QueryRow(ctx, insertCustomerSQL,
		cust.Name,
		cust.CPF,
		cust.Email,
		cust.Phone,
		cust.City,
		cust.State,
		cust.Country,
		cust.RegistrationDate,
		cust.Active,
		dataStateArg(cust.DataState),
	).Scan(
		&cust.ID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	monitoring.RecordDBQuery("InsertCustomer", queryStatus(err), time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) updateCustomer(ctx context.Context, cust *customer.Customer) error {
	logger := r.logger.With(slog.Int64("customerID", cust.ID))
	logger.InfoContext(ctx, "Attempting to update customer")
	startTime := time.Now()

	cmdTag, err := r.db.Exec(ctx, updateCustomerSQL,
		cust.Name,
		cust.CPF,
		cust.Email,
		cust.Phone,
		cust.City,
		cust.State,
		cust.Country,
		cust.RegistrationDate,
		cust.Active,
		dataStateArg(cust.DataState),
		cust.ID,
	)
	monitoring.RecordDBQuery("UpdateCustomer", queryStatus(err), time.Since(startTime))

	if err != nil {
		logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return translateDBError(err, logger)
	}

	if cmdTag.RowsAffected() == 0 {
		logger.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	logger.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	logger := r.logger.With(slog.Int64("customerID", customerID))
	logger.DebugContext(ctx, "Attempting to find customer by ID")
	startTime := time.Now()

	cust, err := scanCustomer(r.db.QueryRow(ctx, findCustomerByIDSQL, customerID))
	monitoring.RecordDBQuery("FindCustomerByID", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnContext(ctx, "Customer not found")
			return nil, apperrors.ErrNotFound
		}
		logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to get customer by ID")
	}

	logger.DebugContext(ctx, "Customer found successfully")
	return cust, nil
}

func (r *CustomerRepository) FindPage(ctx context.Context, req customer.PageRequest) ([]*customer.Customer, int64, error) {
	logger := r.logger.With(slog.Int("page", req.Page), slog.Int("size", req.Size), slog.String("sortField", req.SortField))
	logger.DebugContext(ctx, "Attempting to find customer page")

	query, err := buildPageQuery(req)
	if err != nil {
		logger.WarnContext(ctx, "Rejected page request", slog.Any("error", err))
		return nil, 0, err
	}

	startTime := time.Now()
	var total int64
	err = r.db.QueryRow(ctx, countCustomersSQL).Scan(&total)
	monitoring.RecordDBQuery("CountCustomers", queryStatus(err), time.Since(startTime))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return nil, 0, apperrors.WrapDatabaseError(err, "failed to count customers")
	}

	startTime = time.Now()
	rows, err := r.db.Query(ctx, query, req.Size, req.Offset())
	if err != nil {
		monitoring.RecordDBQuery("FindCustomerPage", queryStatusError, time.Since(startTime))
		logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, 0, apperrors.WrapDatabaseError(err, "failed to query customers")
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0, req.Size)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			monitoring.RecordDBQuery("FindCustomerPage", queryStatusError, time.Since(startTime))
			logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, 0, apperrors.WrapDatabaseError(err, "failed to scan customer row")
		}
		customers = append(customers, cust)
	}

	if err = rows.Err(); err != nil {
		monitoring.RecordDBQuery("FindCustomerPage", queryStatusError, time.Since(startTime))
		logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, 0, apperrors.WrapDatabaseError(err, "error iterating customer rows")
	}
	monitoring.RecordDBQuery("FindCustomerPage", queryStatusSuccess, time.Since(startTime))

	logger.DebugContext(ctx, "Finished finding customer page", slog.Int("count", len(customers)), slog.Int64("total", total))
	return customers, total, nil
}

func (r *CustomerRepository) CountByState(ctx context.Context) ([]customer.StateCount, error) {
	startTime := time.Now()
	rows, err := r.db.Query(ctx, countCustomersByStateSQL)
	if err != nil {
		monitoring.RecordDBQuery("CountCustomersByState", queryStatusError, time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to count customers by state", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to count customers by state")
	}
	defer rows.Close()

	counts := make([]customer.StateCount, 0)
	for rows.Next() {
		var (
			state string
			count customer.StateCount
		)
		if err := rows.Scan(&state, &count.Active, &count.Total); err != nil {
			monitoring.RecordDBQuery("CountCustomersByState", queryStatusError, time.Since(startTime))
			return nil, apperrors.WrapDatabaseError(err, "failed scanning state count")
		}
		count.DataState = customer.DataState(state)
		counts = append(counts, count)
	}

	if err = rows.Err(); err != nil {
		monitoring.RecordDBQuery("CountCustomersByState", queryStatusError, time.Since(startTime))
		return nil, apperrors.WrapDatabaseError(err, "error iterating state counts")
	}
	monitoring.RecordDBQuery("CountCustomersByState", queryStatusSuccess, time.Since(startTime))

	return counts, nil
}

func buildPageQuery(req customer.PageRequest) (string, error) {
	column, ok := sortColumns[req.SortField]
	if !ok {
		return "", apperrors.NewValidationError("sortField", fmt.Sprintf("unsupported sort field '%s'", req.SortField))
	}
	direction := "ASC"
	if req.SortDirection == customer.SortDesc {
		direction = "DESC"
	}

	order := fmt.Sprintf("%s %s", column, direction)
	if column != "id" {
		order += ", id " + direction
	}
	return `SELECT ` + customerColumns + ` FROM customers ORDER BY ` + order + ` LIMIT $1 OFFSET $2`, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*customer.Customer, error) {
	var (
		cust  customer.Customer
		state string
	)
	err := row.Scan(
		&cust.ID,
		&cust.Name,
		&cust.CPF,
		&cust.Email,
		&cust.Phone,
		&cust.City,
		&cust.State,
		&cust.Country,
		&cust.RegistrationDate,
		&cust.Active,
		&state,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cust.DataState = customer.DataState(state)
	return &cust, nil
}

// dataStateArg stores an empty data state as NULL.
func dataStateArg(state customer.DataState) any {
	if state == "" {
		return nil
	}
	return string(state)
}
