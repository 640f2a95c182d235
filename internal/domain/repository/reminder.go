package repository

import (
	"context"
	"reminderengine/internal/domain/entity"
	"time"
)

// ItemStore is the engine's view of the application's item/reminder store.
type ItemStore interface {
	// GetReminder retrieves a reminder by its ID.
	GetReminder(ctx context.Context, reminderID uint64) (*entity.Reminder, error)
	// GetItem retrieves the item snapshot used for presentation.
	GetItem(ctx context.Context, itemID uint64) (*entity.Item, error)
	// MarkCompleted writes the completion timestamp of an item.
	MarkCompleted(ctx context.Context, itemID uint64, at time.Time) error
	// SetReminderTime moves a reminder to a new due time.
	SetReminderTime(ctx context.Context, reminderID uint64, at time.Time) error
	// ListFutureReminders retrieves reminders due strictly after now, earliest first.
	ListFutureReminders(ctx context.Context, now time.Time) ([]*entity.Reminder, error)
}
