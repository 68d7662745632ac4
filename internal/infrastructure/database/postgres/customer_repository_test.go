package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"regexp"
	"testing"
	"time"

	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pgxmockExpectationsNotMetMsg = "pgxmock expectations were not met"

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var customerRowColumns = []string{
	"id", "name", "cpf", "email", "phone", "city", "state", "country",
	"registration_date", "active", "data_state", "created_at", "updated_at",
}

func newTestCustomer() *customer.Customer {
	reg := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return &customer.Customer{
		ID:               1,
		Name:             "João Silva",
		CPF:              "27802535093",
		Email:            "joao@email.com",
		Phone:            "11999998888",
		City:             "São Paulo",
		State:            "SP",
		Country:          "Brasil",
		RegistrationDate: &reg,
		Active:           true,
		DataState:        customer.DataStateActive,
	}
}

func addCustomerRow(rows *pgxmock.Rows, c *customer.Customer) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(c.ID, c.Name, c.CPF, c.Email, c.Phone, c.City, c.State, c.Country,
		c.RegistrationDate, c.Active, string(c.DataState), now, now)
}

func setupCustomerRepo(t *testing.T) (context.Context, *CustomerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewCustomerRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestNewCustomerRepositoryPanicsWithoutPool(t *testing.T) {
	assert.Panics(t, func() { NewCustomerRepository(nil, logger) })
}

func TestSaveNewCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()
	cust := newTestCustomer()
	cust.ID = 0
	createdAt := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta(insertCustomerSQL)).WithArgs(
		cust.Name, cust.CPF, cust.Email, cust.Phone, cust.City, cust.State, cust.Country,
		cust.RegistrationDate, cust.Active, "ACTIVE",
	).WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(int64(12), createdAt, createdAt))

	err := repo.Save(ctx, cust)

	assert.NoError(t, err)
	assert.Equal(t, int64(12), cust.ID)
	assert.Equal(t, createdAt, cust.CreatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveNewCustomerWhenDuplicateCPF(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()
	cust := newTestCustomer()
	cust.ID = 0

	mockPool.ExpectQuery(regexp.QuoteMeta(insertCustomerSQL)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "customers_cpf_key"})

	err := repo.Save(ctx, cust)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "customers_cpf_key")
	assert.Equal(t, int64(0), cust.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()
	cust := newTestCustomer()
	cust.MarkDeleted()

	mockPool.ExpectExec(regexp.QuoteMeta(updateCustomerSQL)).WithArgs(
		cust.Name, cust.CPF, cust.Email, cust.Phone, cust.City, cust.State, cust.Country,
		cust.RegistrationDate, cust.Active, "INACTIVE", cust.ID,
	).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Save(ctx, cust)

	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingCustomerWritesNullDataState(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()
	cust := &customer.Customer{ID: 3, CPF: "27802535093", Email: "joao@email.com"}

	mockPool.ExpectExec(regexp.QuoteMeta(updateCustomerSQL)).WithArgs(
		"", cust.CPF, cust.Email, "", "", "", "", cust.RegistrationDate, false, nil, int64(3),
	).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Save(ctx, cust))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingCustomerWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()
	cust := newTestCustomer()

	mockPool.ExpectExec(regexp.QuoteMeta(updateCustomerSQL)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Save(ctx, cust)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingCustomerWhenCheckViolation(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(updateCustomerSQL)).
		WillReturnError(&pgconn.PgError{Code: "22001", ColumnName: "cpf", Message: "value too long for type character varying(14)"})

	err := repo.Save(ctx, newTestCustomer())

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cpf", ve.Field)
}

func TestSaveNilCustomer(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	assert.ErrorIs(t, repo.Save(ctx, nil), apperrors.ErrInvalidArgument)
}

func TestFindByIDWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()
	expected := newTestCustomer()

	mockPool.ExpectQuery(regexp.QuoteMeta(findCustomerByIDSQL)).WithArgs(expected.ID).
		WillReturnRows(addCustomerRow(pgxmock.NewRows(customerRowColumns), expected))

	cust, err := repo.FindByID(ctx, expected.ID)

	require.NoError(t, err)
	assert.Equal(t, expected.ID, cust.ID)
	assert.Equal(t, expected.CPF, cust.CPF)
	assert.Equal(t, expected.Email, cust.Email)
	assert.Equal(t, customer.DataStateActive, cust.DataState)
	assert.True(t, cust.Active)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindByIDWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(findCustomerByIDSQL)).WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	cust, err := repo.FindByID(ctx, 404)

	assert.Nil(t, cust)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindByIDWhenDatabaseError(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(findCustomerByIDSQL)).WithArgs(int64(1)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(ctx, 1)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}

func TestFindPageWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()
	req := customer.PageRequest{Page: 1, Size: 2, SortField: "name", SortDirection: customer.SortDesc}

	first := newTestCustomer()
	second := newTestCustomer()
	second.ID = 2
	second.DataState = ""

	query, err := buildPageQuery(req)
	require.NoError(t, err)

	mockPool.ExpectQuery(regexp.QuoteMeta(countCustomersSQL)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(2, 2).
		WillReturnRows(addCustomerRow(addCustomerRow(pgxmock.NewRows(customerRowColumns), first), second))

	rows, total, err := repo.FindPage(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rows, 2)
	assert.Equal(t, customer.DataState(""), rows[1].DataState)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindPageBeyondLastRowSendsSaturatedOffset(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()
	req := customer.PageRequest{Page: 100000000000000000, Size: 100, SortField: "id", SortDirection: customer.SortAsc}

	query, err := buildPageQuery(req)
	require.NoError(t, err)

	mockPool.ExpectQuery(regexp.QuoteMeta(countCustomersSQL)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(100, math.MaxInt).
		WillReturnRows(pgxmock.NewRows(customerRowColumns))

	rows, total, err := repo.FindPage(ctx, req)

	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int64(3), total)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindPageWhenCountFails(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(countCustomersSQL)).WillReturnError(errors.New("timeout"))

	_, _, err := repo.FindPage(ctx, customer.PageRequest{Page: 0, Size: 10, SortField: "id"})

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindPageRejectsUnknownSortField(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	_, _, err := repo.FindPage(ctx, customer.PageRequest{Page: 0, Size: 10, SortField: "password; DROP TABLE customers"})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBuildPageQuery(t *testing.T) {
	tests := []struct {
		name     string
		req      customer.PageRequest
		contains string
	}{
		{"default id asc", customer.PageRequest{SortField: "id", SortDirection: customer.SortAsc}, "ORDER BY id ASC LIMIT $1 OFFSET $2"},
		{"empty direction is asc", customer.PageRequest{SortField: "id"}, "ORDER BY id ASC LIMIT"},
		{"camel case mapped to column", customer.PageRequest{SortField: "registrationDate", SortDirection: customer.SortDesc}, "ORDER BY registration_date DESC, id DESC LIMIT"},
		{"data state", customer.PageRequest{SortField: "dataState", SortDirection: customer.SortAsc}, "ORDER BY data_state ASC, id ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := buildPageQuery(tt.req)
			require.NoError(t, err)
			assert.Contains(t, query, tt.contains)
		})
	}
}

func TestCountByStateWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(countCustomersByStateSQL)).
		WillReturnRows(pgxmock.NewRows([]string{"data_state", "active", "count"}).
			AddRow("", false, int64(1)).
			AddRow("ACTIVE", true, int64(7)).
			AddRow("INACTIVE", false, int64(2)))

	counts, err := repo.CountByState(ctx)

	require.NoError(t, err)
	assert.Equal(t, []customer.StateCount{
		{DataState: "", Active: false, Total: 1},
		{DataState: customer.DataStateActive, Active: true, Total: 7},
		{DataState: customer.DataStateInactive, Active: false, Total: 2},
	}, counts)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCountByStateWhenQueryFails(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(countCustomersByStateSQL)).WillReturnError(errors.New("boom"))

	_, err := repo.CountByState(ctx)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}

func TestTranslateDBError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"no rows", pgx.ErrNoRows, apperrors.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "customers_email_key"}, apperrors.ErrAlreadyExists},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "customers_data_state_check"}, apperrors.ErrValidation},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "email"}, apperrors.ErrValidation},
		{"other pg", &pgconn.PgError{Code: "40001"}, apperrors.ErrDatabase},
		{"generic", errors.New("broken pipe"), apperrors.ErrDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateDBError(tt.err, logger), tt.sentinel)
		})
	}

	assert.NoError(t, translateDBError(nil, logger))

	var appErr *apperrors.AppError
	require.ErrorAs(t, translateDBError(errors.New("broken pipe"), logger), &appErr)
	assert.Equal(t, "[DB_ERROR] database operation failed: broken pipe", appErr.Error())
}
