package dto

import (
	"testing"
	"time"

	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validRequest = "Valid request"
	validCPF     = "27802535093"
)

func TestCustomerRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		request   CustomerRequest
		wantField string
	}{
		{validRequest, CustomerRequest{Name: "João Silva", CPF: validCPF, Email: "joao@email.com"}, ""},
		{"Formatted CPF", CustomerRequest{CPF: "278.025.350-93", Email: "joao@email.com"}, ""},
		{"Missing CPF", CustomerRequest{Name: "João Silva", Email: "joao@email.com"}, "cpf"},
		{"Invalid CPF check digits", CustomerRequest{CPF: "27802535094", Email: "joao@email.com"}, "cpf"},
		{"Missing email", CustomerRequest{CPF: validCPF}, "email"},
		{"Malformed email", CustomerRequest{CPF: validCPF, Email: "joao-at-email"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestIsValidCPF(t *testing.T) {
	tests := map[string]bool{
		"27802535093":    true,
		"52998224725":    true,
		"529.982.247-25": true,
		"52998224724":    false,
		"11111111111":    false,
		"1234567890":     false,
		"5299822472a":    false,
		"":               false,
	}
	for raw, expected := range tests {
		assert.Equal(t, expected, IsValidCPF(raw), raw)
	}
}

func TestToCustomerIgnoresIdentifierAndLifecycleFields(t *testing.T) {
	id := int64(77)
	req := CustomerRequest{
		ID:      &id,
		Name:    "João Silva",
		CPF:     validCPF,
		Email:   "joao@email.com",
		Phone:   "11999998888",
		City:    "São Paulo",
		State:   "SP",
		Country: "Brasil",
	}

	cust := req.ToCustomer()

	assert.Equal(t, int64(0), cust.ID)
	assert.Nil(t, cust.RegistrationDate)
	assert.False(t, cust.Active)
	assert.Equal(t, customer.DataState(""), cust.DataState)
	assert.Equal(t, "São Paulo", cust.City)
	assert.Equal(t, "Brasil", cust.Country)
}

func TestNewCustomerResponse(t *testing.T) {
	t.Run("Valid customer", func(t *testing.T) {
		reg := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		cust := &customer.Customer{
			ID:               1,
			Name:             "João Silva",
			CPF:              validCPF,
			Email:            "joao@email.com",
			RegistrationDate: &reg,
			Active:           true,
			DataState:        customer.DataStateActive,
		}

		resp := NewCustomerResponse(cust)

		assert.Equal(t, int64(1), resp.ID)
		require.NotNil(t, resp.RegistrationDate)
		assert.Equal(t, "2024-01-15", *resp.RegistrationDate)
		require.NotNil(t, resp.DataState)
		assert.Equal(t, "ACTIVE", *resp.DataState)
		assert.True(t, resp.Active)
	})

	t.Run("Absent lifecycle fields stay null", func(t *testing.T) {
		resp := NewCustomerResponse(&customer.Customer{ID: 2})
		assert.Nil(t, resp.RegistrationDate)
		assert.Nil(t, resp.DataState)
	})

	t.Run("Nil customer", func(t *testing.T) {
		assert.Equal(t, CustomerResponse{}, NewCustomerResponse(nil))
	})
}
