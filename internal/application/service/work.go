package service

import (
	"context"
	"time"
)

// WorkQueue accepts durable jobs. Jobs survive restarts and are retried
// until they succeed.
type WorkQueue interface {
	EnqueueCompleteItem(ctx context.Context, itemID uint64) error
	EnqueueRestoreAlarms(ctx context.Context) error
	EnqueueSnoozeReminder(ctx context.Context, reminderID uint64, at time.Time) error
}

// Attacher brings the application up in the background when no application
// is connected, so held callbacks can be delivered.
type Attacher interface {
	Attach(ctx context.Context)
}

// DeferredWorkRunner executes queued jobs one at a time.
type DeferredWorkRunner interface {
	WorkQueue
	Attacher
	// Start performs the cold-start bookkeeping and then runs jobs until ctx
	// is done.
	Start(ctx context.Context) error
	// RunPending executes every job that is currently due.
	RunPending(ctx context.Context) error
	// Kick wakes the worker without blocking.
	Kick()
}

// BootReceiver restores alarms after the host restarts.
type BootReceiver interface {
	OnBoot(ctx context.Context) error
}
