package service

import (
	"context"
	"reminderengine/internal/application/dto"
	"time"
)

// WakeTimer fires a callback once at an exact wall-clock time. Scheduling an
// id that already has a pending wake replaces it.
type WakeTimer interface {
	ScheduleExactWake(id uint64, at time.Time, fire func()) error
	CancelWake(id uint64)
}

// Shade is the surface alerts are posted to. Posting an id that is already
// visible replaces it.
type Shade interface {
	Post(ctx context.Context, alert dto.Alert) error
	Cancel(ctx context.Context, reminderID uint64) error
}

// CallbackSink delivers one outbound call to the connected application.
type CallbackSink interface {
	Deliver(ctx context.Context, method string, params any) error
}

// Launcher starts the application's background entry point.
type Launcher interface {
	Launch(ctx context.Context, callbackHandle int64) error
}

// Clock returns the current time.
type Clock func() time.Time
