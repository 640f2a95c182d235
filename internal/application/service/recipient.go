package service

import "context"

// RecipientService manages who receives alerts.
type RecipientService interface {
	// Register adds a recipient when they follow the bot.
	Register(ctx context.Context, userID string) error
	// Unregister removes a recipient who unfollowed or blocked the bot.
	Unregister(ctx context.Context, userID string) error
	// Count returns the number of registered recipients.
	Count(ctx context.Context) (int, error)
}
