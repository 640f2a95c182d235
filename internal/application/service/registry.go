package service

import (
	"context"
	"reminderengine/internal/application/dto"
	"time"
)

// Registry is the engine's durable bookkeeping: which alerts are live, which
// reminders have a snooze override, which items have a completion in flight,
// and the application's background callback handle.
type Registry interface {
	// MarkLive records that the alert for the trigger is visible.
	MarkLive(ctx context.Context, trigger dto.Trigger) error
	// TakeLive consumes the live marker. Only one concurrent caller gets ok == true.
	TakeLive(ctx context.Context, reminderID uint64) (trigger *dto.Trigger, ok bool, err error)
	// ClearLive drops the live marker without reading it.
	ClearLive(ctx context.Context, reminderID uint64) error
	// LiveReminders lists the reminders whose alert is visible.
	LiveReminders(ctx context.Context) ([]uint64, error)

	SetSnooze(ctx context.Context, reminderID uint64, at time.Time) error
	Snooze(ctx context.Context, reminderID uint64) (at time.Time, ok bool, err error)
	ClearSnooze(ctx context.Context, reminderID uint64) error

	AddPendingCompletion(ctx context.Context, itemID uint64) error
	RemovePendingCompletion(ctx context.Context, itemID uint64) error
	IsPendingCompletion(ctx context.Context, itemID uint64) (bool, error)
	PendingCompletions(ctx context.Context) ([]uint64, error)
	ClearPendingCompletions(ctx context.Context) error

	SetCallbackHandle(ctx context.Context, handle int64) error
	CallbackHandle(ctx context.Context) (handle int64, ok bool, err error)
}
