package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"customer-service/internal/api/handler/dto"
	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

const customersBasePath = "/api/v1/customers"

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

func getCustomerIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "customerID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: customerID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid customerID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

// ListCustomers handles GET /api/v1/customers
// @Summary List customers
// @Description Returns one page of customers whose data state is ACTIVE. totalElements is the unfiltered store total.
// @Tags Customers
// @Produce json
// @Param page query int false "Zero-based page index" default(0) minimum(0)
// @Param size query int false "Page size (capped at 100)" default(10) minimum(1)
// @Param sortField query string false "Sort field" default(id) Enums(id, name, cpf, email, phone, city, state, country, registrationDate, active, dataState)
// @Param sortDirection query string false "Sort direction" default(asc) Enums(asc, desc)
// @Success 200 {object} dto.CustomerPageResponse "Page of customers"
// @Failure 400 {object} dto.ErrorResponse "Invalid pagination parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/v1/customers [get]
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received list customers request")

	pageReq, err := dto.ParsePageQuery(r.URL.Query())
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid pagination parameters", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	page, err := h.service.ListActive(r.Context(), pageReq)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to list customers", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customers listed successfully", slog.Int("count", len(page.Content)))
	respondJSON(w, http.StatusOK, dto.NewCustomerPageResponse(page))
}

// GetCustomer handles GET /api/v1/customers/{customerID}
// @Summary Retrieve customer details
// @Description Retrieves a customer by ID. Soft-deleted customers are reported as not found.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CustomerResponse "Customer details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/v1/customers/{customerID} [get]
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	logger := h.logger.With(slog.Int64("customerID", customerID))
	logger.DebugContext(r.Context(), "Calling customer service FindByID")
	domainCustomer, err := h.service.FindByID(r.Context(), customerID)
	if err != nil {
		logger.Log(r.Context(), logLevelFor(err), "Service failed to get customer", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "Customer retrieved successfully")
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(domainCustomer))
}

// CreateCustomer handles POST /api/v1/customers
// @Summary Create a new customer
// @Description Creates a customer. Registration date, active flag and data state are assigned by the service.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CustomerRequest true "Customer creation request"
// @Success 201 {object} dto.CustomerResponse "Customer successfully created"
// @Header 201 {string} Location "/api/v1/customers/{id}"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 409 {object} dto.ErrorResponse "CPF or email already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error during creation"
// @Router /api/v1/customers [post]
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create customer request")

	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), req.ToCustomer())
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to create customer", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer created successfully", slog.Int64("customerID", created.ID))
	w.Header().Set("Location", fmt.Sprintf("%s/%d", customersBasePath, created.ID))
	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

// UpdateCustomer handles PUT /api/v1/customers/{customerID}
// @Summary Replace a customer
// @Description Replaces every field of an existing customer. Fields absent from the body are cleared, lifecycle fields included.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.CustomerRequest true "Replacement customer"
// @Success 200 {object} dto.CustomerResponse "Customer replaced"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or ID"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 409 {object} dto.ErrorResponse "CPF or email already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/v1/customers/{customerID} [put]
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, r, err)
		return
	}
	logger := h.logger.With(slog.Int64("customerID", customerID))

	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), customerID, req.ToCustomer())
	if err != nil {
		logger.Log(r.Context(), logLevelFor(err), "Service failed to update customer", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "Customer updated successfully")
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// DeleteCustomer handles DELETE /api/v1/customers/{customerID}
// @Summary Soft-delete a customer
// @Description Marks the customer as INACTIVE. The record is kept but no longer reachable.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.MessageResponse "Customer removed"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/v1/customers/{customerID} [delete]
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	h.handleMessageOperation(w, r, "delete", h.service.Delete)
}

// ToggleCustomerActive handles PATCH /api/v1/customers/{customerID}
// @Summary Toggle the active flag
// @Description Flips the customer's active flag and reports the resulting state.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.MessageResponse "Active flag toggled"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/v1/customers/{customerID} [patch]
func (h *CustomerHandler) ToggleCustomerActive(w http.ResponseWriter, r *http.Request) {
	h.handleMessageOperation(w, r, "toggle", h.service.ToggleActive)
}

type messageOperation func(ctx context.Context, customerID int64) (string, error)

func (h *CustomerHandler) handleMessageOperation(w http.ResponseWriter, r *http.Request, name string, op messageOperation) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, r, err)
		return
	}
	logger := h.logger.With(slog.Int64("customerID", customerID), slog.String("operation", name))

	message, err := op(r.Context(), customerID)
	if err != nil {
		logger.Log(r.Context(), logLevelFor(err), "Service operation failed", slog.Any("error", err))
		respondError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), message)
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: message})
}
