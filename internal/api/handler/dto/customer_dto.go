package dto

import (
	"strings"

	"customer-service/internal/domain/customer"
)

const dateLayout = "2006-01-02"

type CustomerRequest struct {
	ID      *int64 `json:"id,omitempty" swaggerignore:"true"`
	Name    string `json:"name" example:"João Silva"`
	CPF     string `json:"cpf" validate:"required,cpf" example:"27802535093"`
	Email   string `json:"email" validate:"required,email,max=128" example:"joao@email.com"`
	Phone   string `json:"phone" example:"11999998888"`
	City    string `json:"city" example:"São Paulo"`
	State   string `json:"state" example:"SP"`
	Country string `json:"country" example:"Brasil"`
}

func (r *CustomerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.CPF = strings.TrimSpace(r.CPF)
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

// ToCustomer maps the request field by field. The identifier and the
// lifecycle fields (registration date, active, data state) are never taken
// from the caller.
func (r *CustomerRequest) ToCustomer() *customer.Customer {
	return &customer.Customer{
		Name:    r.Name,
		CPF:     r.CPF,
		Email:   r.Email,
		Phone:   r.Phone,
		City:    r.City,
		State:   r.State,
		Country: r.Country,
	}
}

type CustomerResponse struct {
	ID               int64   `json:"id" example:"1"`
	Name             string  `json:"name" example:"João Silva"`
	CPF              string  `json:"cpf" example:"27802535093"`
	Email            string  `json:"email" example:"joao@email.com"`
	Phone            string  `json:"phone" example:"11999998888"`
	City             string  `json:"city" example:"São Paulo"`
	State            string  `json:"state" example:"SP"`
	Country          string  `json:"country" example:"Brasil"`
	RegistrationDate *string `json:"registrationDate" example:"2024-01-15"`
	Active           bool    `json:"active" example:"true"`
	DataState        *string `json:"dataState" example:"ACTIVE"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	var registrationDate *string
	if cust.RegistrationDate != nil {
		s := cust.RegistrationDate.Format(dateLayout)
		registrationDate = &s
	}

	var dataState *string
	if cust.DataState != "" {
		s := string(cust.DataState)
		dataState = &s
	}

	return CustomerResponse{
		ID:               cust.ID,
		Name:             cust.Name,
		CPF:              cust.CPF,
		Email:            cust.Email,
		Phone:            cust.Phone,
		City:             cust.City,
		State:            cust.State,
		Country:          cust.Country,
		RegistrationDate: registrationDate,
		Active:           cust.Active,
		DataState:        dataState,
	}
}

type MessageResponse struct {
	Message string `json:"message" example:"Customer removed successfully."`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"Resource not found"`
	Status  int    `json:"status" example:"404"`
	Message string `json:"message" example:"resource not found: ID 4"`
	Path    string `json:"path" example:"/api/v1/customers/4"`
}
