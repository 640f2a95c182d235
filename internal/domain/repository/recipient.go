package repository

import (
	"context"
	"reminderengine/internal/domain/entity"
)

// RecipientRepository defines the interface for alert recipient operations.
type RecipientRepository interface {
	// Create registers a recipient; registering an existing one is a no-op.
	Create(ctx context.Context, userID string) error
	// Delete removes a recipient by their LINE User ID.
	Delete(ctx context.Context, userID string) error
	// FindAll retrieves every registered recipient.
	FindAll(ctx context.Context) ([]*entity.Recipient, error)
}
