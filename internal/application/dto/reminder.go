package dto

import (
	"fmt"
	appErrors "reminderengine/internal/pkg/errors"
	"time"
)

// Trigger is everything a wake trigger carries, so that a firing never has to
// read the item store.
type Trigger struct {
	ReminderID uint64    `json:"reminder_id"`
	ItemID     uint64    `json:"item_id"`
	DueTime    time.Time `json:"due_time"`
	Title      string    `json:"title"`
	Note       string    `json:"note,omitempty"`
}

// ReminderRequest is the params object of set_reminder and update_reminder.
// Pointer fields distinguish "missing" from zero.
type ReminderRequest struct {
	ID     *uint64 `json:"id"`
	ItemID *uint64 `json:"item_id"`
	Title  *string `json:"title"`
	Note   string  `json:"note,omitempty"`
	At     *int64  `json:"at"` // Unix milliseconds
}

// ToTrigger validates the request. A request missing a required field yields
// ErrMalformedRequest and must not be scheduled at all.
func (r ReminderRequest) ToTrigger() (Trigger, error) {
	switch {
	case r.ID == nil:
		return Trigger{}, fmt.Errorf("%w: missing id", appErrors.ErrMalformedRequest)
	case r.ItemID == nil:
		return Trigger{}, fmt.Errorf("%w: missing item_id", appErrors.ErrMalformedRequest)
	case r.Title == nil:
		return Trigger{}, fmt.Errorf("%w: missing title", appErrors.ErrMalformedRequest)
	case r.At == nil:
		return Trigger{}, fmt.Errorf("%w: missing at", appErrors.ErrMalformedRequest)
	}
	return Trigger{
		ReminderID: *r.ID,
		ItemID:     *r.ItemID,
		DueTime:    time.UnixMilli(*r.At),
		Title:      *r.Title,
		Note:       r.Note,
	}, nil
}

// DeleteReminderRequest is the params object of delete_reminder.
type DeleteReminderRequest struct {
	ID *uint64 `json:"id"`
}

// InitRequest is the params object of init.
type InitRequest struct {
	CallbackHandle *int64 `json:"callback_handle"`
}

// ItemCallback is the params object of item callbacks sent to the application.
type ItemCallback struct {
	ItemID uint64 `json:"item_id"`
}

// EmptyParams is sent with callbacks that carry no data.
type EmptyParams struct{}
