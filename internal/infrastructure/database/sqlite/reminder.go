package sqlite

import (
	"context"
	"errors"
	"fmt"
	"reminderengine/internal/domain/entity"
	"reminderengine/internal/domain/repository"
	appErrors "reminderengine/internal/pkg/errors"
	"time"

	"gorm.io/gorm"
)

// Timestamps are stored in UTC so that SQLite's textual comparison orders them correctly.

type itemStore struct {
	db *gorm.DB
}

// NewItemStore creates a new instance of ItemStore.
func NewItemStore(db *gorm.DB) repository.ItemStore {
	return &itemStore{db: db}
}

// GetReminder retrieves a reminder by its ID.
func (r *itemStore) GetReminder(ctx context.Context, reminderID uint64) (*entity.Reminder, error) {
	var reminder entity.Reminder
	if err := r.db.WithContext(ctx).First(&reminder, reminderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reminder %d", appErrors.ErrReminderNotFound, reminderID)
		}
		return nil, fmt.Errorf("%w: find reminder %d: %v", appErrors.ErrDatabaseOperation, reminderID, err)
	}
	return &reminder, nil
}

// GetItem retrieves an item by its ID.
func (r *itemStore) GetItem(ctx context.Context, itemID uint64) (*entity.Item, error) {
	var item entity.Item
	if err := r.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %d", appErrors.ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("%w: find item %d: %v", appErrors.ErrDatabaseOperation, itemID, err)
	}
	return &item, nil
}

// MarkCompleted writes the completion timestamp. Re-running it overwrites the timestamp.
func (r *itemStore) MarkCompleted(ctx context.Context, itemID uint64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.Item{}).Where("id = ?", itemID).Update("item_completed_date", at.UTC())
	if res.Error != nil {
		return fmt.Errorf("%w: complete item %d: %v", appErrors.ErrDatabaseOperation, itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: item %d", appErrors.ErrItemNotFound, itemID)
	}
	return nil
}

// SetReminderTime moves a reminder to a new due time.
func (r *itemStore) SetReminderTime(ctx context.Context, reminderID uint64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.Reminder{}).Where("id = ?", reminderID).Update("reminder_time", at.UTC())
	if res.Error != nil {
		return fmt.Errorf("%w: update reminder %d: %v", appErrors.ErrDatabaseOperation, reminderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: reminder %d", appErrors.ErrReminderNotFound, reminderID)
	}
	return nil
}

// ListFutureReminders retrieves reminders due strictly after now.
func (r *itemStore) ListFutureReminders(ctx context.Context, now time.Time) ([]*entity.Reminder, error) {
	var reminders []*entity.Reminder
	if err := r.db.WithContext(ctx).Where("reminder_time > ?", now.UTC()).Order("reminder_time asc").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("%w: list future reminders: %v", appErrors.ErrDatabaseOperation, err)
	}
	return reminders, nil
}
