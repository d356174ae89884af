package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain/money"
)

// Event is one billable occurrence (a wedding lunch, a reception) within an order.
type Event struct {
	ID            string         `json:"id"`
	OrderID       string         `json:"order_id"`
	TenantID      string         `json:"-"`
	EventType     string         `json:"event_type"`
	EventDate     time.Time      `json:"event_date"`
	StartTime     string         `json:"start_time"`
	EndTime       string         `json:"end_time"`
	Venue         string         `json:"venue"`
	NoOfGuests    int            `json:"no_of_guests"`
	ExtraServices map[string]any `json:"extra_services,omitempty"`
	Menu          map[string]any `json:"menu,omitempty"`
	Amount        money.Amount   `json:"total_amount"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// EventInput is the payload for adding an event.
type EventInput struct {
	EventType     string         `json:"event_type"`
	EventDate     time.Time      `json:"event_date"`
	StartTime     string         `json:"start_time"`
	EndTime       string         `json:"end_time"`
	Venue         string         `json:"venue"`
	NoOfGuests    int            `json:"no_of_guests"`
	ExtraServices map[string]any `json:"extra_services,omitempty"`
	Menu          map[string]any `json:"menu,omitempty"`
	Amount        money.Amount   `json:"total_amount"`
}

// Validate checks a single event payload.
func (in *EventInput) Validate() error {
	if strings.TrimSpace(in.EventType) == "" {
		return errors.New("event_type is required")
	}
	if in.EventDate.IsZero() {
		return errors.New("event_date is required")
	}
	if in.NoOfGuests < 0 {
		return errors.New("no_of_guests must be >= 0")
	}
	return validateEventAmount(in.Amount)
}

func validateEventAmount(a money.Amount) error {
	if a.IsNegative() {
		return errors.New("total_amount must be >= 0")
	}
	if a > money.MaxAmount {
		return fmt.Errorf("total_amount must be <= %s", money.MaxAmount)
	}
	return nil
}

// ValidateEvents validates each input and reports the index of the first offender.
func ValidateEvents(events []EventInput) error {
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	return nil
}

// NewEvent materializes an input into a stored event.
func NewEvent(id, tenantID, orderID string, in EventInput, now time.Time) Event {
	return Event{
		ID:            id,
		OrderID:       orderID,
		TenantID:      tenantID,
		EventType:     strings.TrimSpace(in.EventType),
		EventDate:     in.EventDate,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		Venue:         in.Venue,
		NoOfGuests:    in.NoOfGuests,
		ExtraServices: in.ExtraServices,
		Menu:          in.Menu,
		Amount:        in.Amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// EventUpdate is a partial event update; nil fields are left unchanged.
type EventUpdate struct {
	EventType     *string         `json:"event_type,omitempty"`
	EventDate     *time.Time      `json:"event_date,omitempty"`
	StartTime     *string         `json:"start_time,omitempty"`
	EndTime       *string         `json:"end_time,omitempty"`
	Venue         *string         `json:"venue,omitempty"`
	NoOfGuests    *int            `json:"no_of_guests,omitempty"`
	ExtraServices *map[string]any `json:"extra_services,omitempty"`
	Menu          *map[string]any `json:"menu,omitempty"`
	Amount        *money.Amount   `json:"total_amount,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u *EventUpdate) Empty() bool {
	return u.EventType == nil && u.EventDate == nil && u.StartTime == nil &&
		u.EndTime == nil && u.Venue == nil && u.NoOfGuests == nil &&
		u.ExtraServices == nil && u.Menu == nil && u.Amount == nil
}

// Validate rejects empty updates and invalid values.
func (u *EventUpdate) Validate() error {
	if u.Empty() {
		return errors.New("no fields to update")
	}
	if u.EventType != nil && strings.TrimSpace(*u.EventType) == "" {
		return errors.New("event_type must not be empty")
	}
	if u.NoOfGuests != nil && *u.NoOfGuests < 0 {
		return errors.New("no_of_guests must be >= 0")
	}
	if u.Amount != nil {
		return validateEventAmount(*u.Amount)
	}
	return nil
}

// Apply copies the set fields onto e and stamps UpdatedAt.
func (u *EventUpdate) Apply(e *Event, now time.Time) {
	if u.EventType != nil {
		e.EventType = strings.TrimSpace(*u.EventType)
	}
	if u.EventDate != nil {
		e.EventDate = *u.EventDate
	}
	if u.StartTime != nil {
		e.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		e.EndTime = *u.EndTime
	}
	if u.Venue != nil {
		e.Venue = *u.Venue
	}
	if u.NoOfGuests != nil {
		e.NoOfGuests = *u.NoOfGuests
	}
	if u.ExtraServices != nil {
		e.ExtraServices = *u.ExtraServices
	}
	if u.Menu != nil {
		e.Menu = *u.Menu
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	e.UpdatedAt = now
}
