package service

import (
	"context"
	"reminderengine/internal/application/dto"
)

// NotificationPresenter turns a reminder into a user-visible alert.
type NotificationPresenter interface {
	// Show posts the alert; a second Show for the same reminder replaces it.
	Show(ctx context.Context, reminderID, itemID uint64, title, note string) error
	// Cancel removes the alert if it is visible.
	Cancel(ctx context.Context, reminderID uint64) error
}

// FiredReminderHandler reacts to a wake trigger going off.
type FiredReminderHandler interface {
	Handle(ctx context.Context, trigger dto.Trigger) error
}
