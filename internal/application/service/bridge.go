package service

import (
	"context"
	"reminderengine/internal/application/dto"
)

// Bridge is the engine's side of the channel to the application. Callbacks
// made before the application reports ready are held and flushed, in order,
// once it does.
type Bridge interface {
	ItemOpened(ctx context.Context, itemID uint64)
	ItemCompleted(ctx context.Context, itemID uint64)
	RestoreAlarms(ctx context.Context)
	ReloadStore(ctx context.Context)

	// MarkReady opens the gate and flushes held callbacks.
	MarkReady(ctx context.Context)
	// Detach closes the gate; later callbacks are held again.
	Detach()
	Ready() bool
}

// BridgeCommands executes the requests the application sends to the engine.
// Malformed requests are dropped without an error.
type BridgeCommands interface {
	SetReminder(ctx context.Context, req dto.ReminderRequest) error
	UpdateReminder(ctx context.Context, req dto.ReminderRequest) error
	DeleteReminder(ctx context.Context, req dto.DeleteReminderRequest) error
	Init(ctx context.Context, req dto.InitRequest) error
	Ready(ctx context.Context) error
}
