package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-service/internal/event"
	"customer-service/internal/infrastructure/monitoring"
	"customer-service/internal/pkg/apperrors"
)

const (
	MsgCustomerRemoved     = "Customer removed successfully."
	MsgCustomerActivated   = "Customer activated successfully."
	MsgCustomerDeactivated = "Customer deactivated successfully."

	customerNotFound = "Customer not found by repository"
	customerHidden   = "Customer exists but is not in ACTIVE data state"
)

type CustomerService interface {
	ListActive(ctx context.Context, req PageRequest) (*Page, error)
	FindByID(ctx context.Context, customerID int64) (*Customer, error)
	Create(ctx context.Context, customer *Customer) (*Customer, error)
	Update(ctx context.Context, customerID int64, replacement *Customer) (*Customer, error)
	Delete(ctx context.Context, customerID int64) (string, error)
	ToggleActive(ctx context.Context, customerID int64) (string, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewCustomerService(repo CustomerRepository, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if eventPublisher == nil {
		logger.Warn("Warning: No event publisher provided to NewCustomerService, lifecycle events will be dropped")
		eventPublisher = event.NoopPublisher{}
	}

	return &customerService{
		repo:   repo,
		pub:    eventPublisher,
		logger: logger.With(slog.String("component", "customerService")),
		now:    time.Now,
	}
}

func NewCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID:       cust.ID,
		Name:             cust.Name,
		CPF:              cust.CPF,
		Email:            cust.Email,
		Phone:            cust.Phone,
		City:             cust.City,
		State:            cust.State,
		Country:          cust.Country,
		RegistrationDate: cust.RegistrationDate,
		Active:           cust.Active,
		DataState:        string(cust.DataState),
	}
}

func (s *customerService) publishEvent(ctx context.Context, logger *slog.Logger, eventType event.EventType, cust *Customer) {
	evt := event.NewCustomerEvent(eventType, NewCustomerEventPayload(cust))
	logger = logger.With(slog.String("eventType", string(eventType)), slog.String("eventId", evt.EventID))

	if err := s.pub.PublishCustomerEvent(ctx, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to publish customer event", slog.Any("error", err))
		return
	}
	logger.DebugContext(ctx, "Successfully published customer event")
}

func (s *customerService) ListActive(ctx context.Context, req PageRequest) (*Page, error) {
	logger := s.logger.With(slog.Int("page", req.Page), slog.Int("size", req.Size))
	logger.InfoContext(ctx, "Attempting to list active customers")

	logger.InfoContext(ctx, "Calling repository FindPage")
	rows, total, err := s.repo.FindPage(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		monitoring.RecordCustomerOperation("list", monitoring.StatusError)
		return nil, fmt.Errorf("failed to list active customers: %w", err)
	}

	content := make([]*Customer, 0, len(rows))
	for _, cust := range rows {
		if cust.IsVisible() {
			content = append(content, cust)
		}
	}

	logger.InfoContext(ctx, "Successfully retrieved active customers",
		slog.Int("count", len(content)),
		slog.Int("filteredOut", len(rows)-len(content)),
		slog.Int64("total", total),
	)
	monitoring.RecordCustomerOperation("list", monitoring.StatusSuccess)
	return &Page{Content: content, Request: req, TotalElements: total}, nil
}

func (s *customerService) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.InfoContext(ctx, "Attempting to get customer by ID")

	cust, err := s.findVisible(ctx, logger, customerID)
	if err != nil {
		monitoring.RecordCustomerOperation("find", statusOf(err))
		return nil, err
	}

	logger.InfoContext(ctx, "Successfully retrieved customer")
	monitoring.RecordCustomerOperation("find", monitoring.StatusSuccess)
	return cust, nil
}

// findVisible treats soft-deleted and never-stamped records as missing.
func (s *customerService) findVisible(ctx context.Context, logger *slog.Logger, customerID int64) (*Customer, error) {
	logger.DebugContext(ctx, "Calling repository FindByID")
	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return nil, apperrors.NewNotFoundError(customerID)
		}
		logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	if !cust.IsVisible() {
		logger.WarnContext(ctx, customerHidden, slog.String("dataState", string(cust.DataState)))
		return nil, apperrors.NewNotFoundError(customerID)
	}
	return cust, nil
}

func (s *customerService) Create(ctx context.Context, cust *Customer) (*Customer, error) {
	if cust == nil {
		return nil, fmt.Errorf("%w: customer cannot be nil", ErrInvalidCustomer)
	}
	logger := s.logger
	logger.InfoContext(ctx, "Attempting to create new customer")

	cust.ID = 0
	cust.ApplyCreationDefaults(s.now())

	logger.InfoContext(ctx, "Calling repository Save")
	if err := s.repo.Save(ctx, cust); err != nil {
		if errors.Is(err, ErrDuplicateCustomer) {
			logger.WarnContext(ctx, "Customer violates a uniqueness constraint", slog.Any("error", err))
		} else {
			logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		}
		monitoring.RecordCustomerOperation("create", statusOf(err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	logger = logger.With(slog.Int64("customerID", cust.ID))
	logger.InfoContext(ctx, "Successfully created new customer, publishing creation event")
	s.publishEvent(ctx, logger, event.CustomerCreated, cust)

	monitoring.RecordCustomerOperation("create", monitoring.StatusSuccess)
	return cust, nil
}

func (s *customerService) Update(ctx context.Context, customerID int64, replacement *Customer) (*Customer, error) {
	if replacement == nil {
		return nil, fmt.Errorf("%w: replacement customer cannot be nil", ErrInvalidCustomer)
	}
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.InfoContext(ctx, "Attempting to update customer")

	if _, err := s.findVisible(ctx, logger, customerID); err != nil {
		monitoring.RecordCustomerOperation("update", statusOf(err))
		return nil, err
	}

	replacement.ID = customerID
	logger.InfoContext(ctx, "Calling repository Save to persist replacement")
	if err := s.repo.Save(ctx, replacement); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "Customer disappeared before save completed")
		} else {
			logger.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		}
		monitoring.RecordCustomerOperation("update", statusOf(err))
		return nil, fmt.Errorf("failed to save updated customer %d: %w", customerID, err)
	}

	logger.InfoContext(ctx, "Successfully updated customer, publishing update event")
	s.publishEvent(ctx, logger, event.CustomerUpdated, replacement)

	monitoring.RecordCustomerOperation("update", monitoring.StatusSuccess)
	return replacement, nil
}

func (s *customerService) Delete(ctx context.Context, customerID int64) (string, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.InfoContext(ctx, "Attempting to delete customer")

	cust, err := s.findVisible(ctx, logger, customerID)
	if err != nil {
		monitoring.RecordCustomerOperation("delete", statusOf(err))
		return "", err
	}

	cust.MarkDeleted()
	if err := s.repo.Save(ctx, cust); err != nil {
		logger.ErrorContext(ctx, "Repository failed to save deleted customer", slog.Any("error", err))
		monitoring.RecordCustomerOperation("delete", statusOf(err))
		return "", fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	logger.InfoContext(ctx, "Successfully deleted customer")
	s.publishEvent(ctx, logger, event.CustomerDeleted, cust)

	monitoring.RecordCustomerOperation("delete", monitoring.StatusSuccess)
	return MsgCustomerRemoved, nil
}

func (s *customerService) ToggleActive(ctx context.Context, customerID int64) (string, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.InfoContext(ctx, "Attempting to toggle customer active flag")

	cust, err := s.findVisible(ctx, logger, customerID)
	if err != nil {
		monitoring.RecordCustomerOperation("toggle", statusOf(err))
		return "", err
	}

	nowActive := cust.ToggleActive()
	logger = logger.With(slog.Bool("active", nowActive))
	if err := s.repo.Save(ctx, cust); err != nil {
		logger.ErrorContext(ctx, "Repository failed to save active flag", slog.Any("error", err))
		monitoring.RecordCustomerOperation("toggle", statusOf(err))
		return "", fmt.Errorf("failed to toggle customer %d: %w", customerID, err)
	}

	logger.InfoContext(ctx, "Successfully toggled customer active flag")
	s.publishEvent(ctx, logger, event.CustomerActivationToggled, cust)

	monitoring.RecordCustomerOperation("toggle", monitoring.StatusSuccess)
	if nowActive {
		return MsgCustomerActivated, nil
	}
	return MsgCustomerDeactivated, nil
}

func statusOf(err error) string {
	if errors.Is(err, ErrNotFound) {
		return monitoring.StatusNotFound
	}
	return monitoring.StatusError
}
