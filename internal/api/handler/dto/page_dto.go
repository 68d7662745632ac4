package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"
)

type PageQuery struct {
	Page          int    `json:"page" validate:"gte=0"`
	Size          int    `json:"size" validate:"gte=1,lte=100"`
	SortField     string `json:"sortField" validate:"oneof=id name cpf email phone city state country registrationDate active dataState"`
	SortDirection string `json:"sortDirection" validate:"oneof=asc desc"`
}

// ParsePageQuery reads page, size, sortField and sortDirection from the query
// string, filling defaults for anything absent. Oversized pages are capped.
func ParsePageQuery(values url.Values) (customer.PageRequest, error) {
	q := PageQuery{
		Page:          0,
		Size:          customer.DefaultPageSize,
		SortField:     customer.DefaultSortField,
		SortDirection: string(customer.SortAsc),
	}

	var err error
	if q.Page, err = intParam(values, "page", q.Page); err != nil {
		return customer.PageRequest{}, err
	}
	if q.Size, err = intParam(values, "size", q.Size); err != nil {
		return customer.PageRequest{}, err
	}
	if q.Size > customer.MaxPageSize {
		q.Size = customer.MaxPageSize
	}
	if v := strings.TrimSpace(values.Get("sortField")); v != "" {
		q.SortField = v
	}
	if v := strings.TrimSpace(values.Get("sortDirection")); v != "" {
		q.SortDirection = strings.ToLower(v)
	}

	if err := validateStruct(q); err != nil {
		return customer.PageRequest{}, err
	}

	return customer.PageRequest{
		Page:          q.Page,
		Size:          q.Size,
		SortField:     q.SortField,
		SortDirection: customer.SortDirection(q.SortDirection),
	}, nil
}

func intParam(values url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name, fmt.Sprintf("must be an integer, got '%s'", raw))
	}
	return v, nil
}

type Pageable struct {
	PageNumber    int    `json:"pageNumber" example:"0"`
	PageSize      int    `json:"pageSize" example:"10"`
	SortField     string `json:"sortField" example:"id"`
	SortDirection string `json:"sortDirection" example:"asc"`
}

type CustomerPageResponse struct {
	Content          []CustomerResponse `json:"content"`
	Pageable         Pageable           `json:"pageable"`
	TotalElements    int64              `json:"totalElements" example:"1"`
	TotalPages       int                `json:"totalPages" example:"1"`
	NumberOfElements int                `json:"numberOfElements" example:"1"`
	First            bool               `json:"first" example:"true"`
	Last             bool               `json:"last" example:"true"`
	Empty            bool               `json:"empty" example:"false"`
}

func NewCustomerPageResponse(page *customer.Page) CustomerPageResponse {
	if page == nil {
		return CustomerPageResponse{Content: []CustomerResponse{}, Empty: true, First: true, Last: true}
	}

	content := make([]CustomerResponse, 0, len(page.Content))
	for _, cust := range page.Content {
		content = append(content, NewCustomerResponse(cust))
	}

	return CustomerPageResponse{
		Content: content,
		Pageable: Pageable{
			PageNumber:    page.Request.Page,
			PageSize:      page.Request.Size,
			SortField:     page.Request.SortField,
			SortDirection: string(page.Request.SortDirection),
		},
		TotalElements:    page.TotalElements,
		TotalPages:       page.TotalPages(),
		NumberOfElements: len(content),
		First:            page.IsFirst(),
		Last:             page.IsLast(),
		Empty:            len(content) == 0,
	}
}
