package customer

import (
	"math"
	"time"
)

type DataState string

const (
	DataStateActive   DataState = "ACTIVE"
	DataStateInactive DataState = "INACTIVE"
)

type Customer struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	CPF              string     `json:"cpf"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Country          string     `json:"country"`
	RegistrationDate *time.Time `json:"registrationDate,omitempty"`
	Active           bool       `json:"active"`
	DataState        DataState  `json:"dataState,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// IsVisible reports whether the record can be reached through lookups and listings.
func (c *Customer) IsVisible() bool {
	return c != nil && c.DataState == DataStateActive
}

// ApplyCreationDefaults stamps a brand-new record. Records that already carry a
// registration date are left untouched, active flag and data state included.
func (c *Customer) ApplyCreationDefaults(now time.Time) {
	if c.RegistrationDate != nil {
		return
	}
	today := truncateToDate(now)
	c.RegistrationDate = &today
	c.Active = true
	c.DataState = DataStateActive
}

func (c *Customer) MarkDeleted() {
	c.DataState = DataStateInactive
}

// ToggleActive flips the active flag and returns the new value.
func (c *Customer) ToggleActive() bool {
	c.Active = !c.Active
	return c.Active
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

const (
	DefaultPageSize  = 10
	MaxPageSize      = 100
	DefaultSortField = "id"
)

type PageRequest struct {
	Page          int
	Size          int
	SortField     string
	SortDirection SortDirection
}

// Offset saturates at math.MaxInt so a far-off page reads as empty.
func (p PageRequest) Offset() int {
	if p.Size > 0 && p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

type Page struct {
	Content       []*Customer
	Request       PageRequest
	TotalElements int64
}

// TotalPages is derived from the store-reported total, not from Content.
func (p *Page) TotalPages() int {
	if p.Request.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Request.Size) - 1) / int64(p.Request.Size))
}

func (p *Page) IsFirst() bool {
	return p.Request.Page == 0
}

func (p *Page) IsLast() bool {
	return p.Request.Page >= p.TotalPages()-1
}

// StateCount is one bucket of the per-state customer totals.
type StateCount struct {
	DataState DataState
	Active    bool
	Total     int64
}
