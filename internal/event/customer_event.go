package event

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	CustomerCreated           EventType = "customer.created"
	CustomerUpdated           EventType = "customer.updated"
	CustomerDeleted           EventType = "customer.deleted"
	CustomerActivationToggled EventType = "customer.activation_toggled"
)

type CustomerEventPayload struct {
	CustomerID       int64      `json:"customerId"`
	Name             string     `json:"name"`
	CPF              string     `json:"cpf"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Country          string     `json:"country"`
	RegistrationDate *time.Time `json:"registrationDate,omitempty"`
	Active           bool       `json:"active"`
	DataState        string     `json:"dataState,omitempty"`
}

type CustomerEvent struct {
	EventID   string               `json:"eventId"`
	Type      EventType            `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

func NewCustomerEvent(eventType EventType, payload CustomerEventPayload) CustomerEvent {
	return CustomerEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
