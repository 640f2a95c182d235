package service

import (
	"context"
	"reminderengine/internal/application/dto"
)

// ActionDispatcher routes a user interaction with an alert.
type ActionDispatcher interface {
	// Dispatch claims the live marker of the reminder and runs the action.
	// Returns ErrStaleAction when the alert was already handled. When the
	// action fails the alert is made live again.
	Dispatch(ctx context.Context, req dto.ActionRequest) error
}
