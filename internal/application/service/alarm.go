package service

import (
	"context"
	"reminderengine/internal/application/dto"
)

// AlarmScheduler owns the one-shot wake triggers of reminders. At most one
// trigger per reminder id exists at any time.
type AlarmScheduler interface {
	// Schedule arms a trigger, replacing any earlier trigger of the same reminder.
	Schedule(ctx context.Context, trigger dto.Trigger) error
	// Reschedule is Schedule under the name callers use when moving a reminder.
	Reschedule(ctx context.Context, trigger dto.Trigger) error
	// Cancel removes the trigger of a reminder; cancelling nothing is not an error.
	Cancel(ctx context.Context, reminderID uint64) error
	// Pending lists the armed triggers, earliest first.
	Pending() []dto.Trigger
}
