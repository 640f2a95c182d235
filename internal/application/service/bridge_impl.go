package service

import (
	"context"
	"fmt"
	"reminderengine/internal/application/dto"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/pkg/logger"
	"reminderengine/internal/pkg/metrics"
	"sync"
)

type callback struct {
	method string
	params any
}

type bridge struct {
	sink    CallbackSink
	metrics *metrics.Metrics
	log     logger.Logger

	mu    sync.Mutex
	ready bool
	// At most one open callback is held; a newer one overwrites it.
	pendingOpen *callback
	queue       []callback
}

// NewBridge creates a Bridge in the not-ready state.
func NewBridge(sink CallbackSink, m *metrics.Metrics, log logger.Logger) Bridge {
	return &bridge{sink: sink, metrics: m, log: log}
}

func (b *bridge) ItemOpened(ctx context.Context, itemID uint64) {
	b.send(ctx, callback{method: constant.CallbackItemOpened, params: dto.ItemCallback{ItemID: itemID}})
}

func (b *bridge) ItemCompleted(ctx context.Context, itemID uint64) {
	b.send(ctx, callback{method: constant.CallbackItemCompleted, params: dto.ItemCallback{ItemID: itemID}})
}

func (b *bridge) RestoreAlarms(ctx context.Context) {
	b.send(ctx, callback{method: constant.CallbackRestoreAlarms, params: dto.EmptyParams{}})
}

func (b *bridge) ReloadStore(ctx context.Context) {
	b.send(ctx, callback{method: constant.CallbackReloadStore, params: dto.EmptyParams{}})
}

func (b *bridge) MarkReady(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ready = true
	held := b.queue
	b.queue = nil
	if b.pendingOpen != nil {
		held = append([]callback{*b.pendingOpen}, held...)
		b.pendingOpen = nil
	}
	b.log.Info(fmt.Sprintf("Application ready, flushing %d held callbacks", len(held)))
	for i, cb := range held {
		if !b.deliverLocked(ctx, cb) {
			// Keep the undelivered tail for the next ready.
			for _, rest := range held[i+1:] {
				b.holdLocked(rest)
			}
			break
		}
	}
	b.updateGaugeLocked()
}

func (b *bridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready {
		b.log.Info("Application detached, holding callbacks until next ready")
	}
	b.ready = false
}

func (b *bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

func (b *bridge) send(ctx context.Context, cb callback) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ready {
		b.holdLocked(cb)
		b.log.Debug(fmt.Sprintf("Holding %s until the application is ready", cb.method))
	} else {
		b.deliverLocked(ctx, cb)
	}
	b.updateGaugeLocked()
}

// deliverLocked sends one callback. On failure the gate closes and the
// callback is held so it is never lost.
func (b *bridge) deliverLocked(ctx context.Context, cb callback) bool {
	if err := b.sink.Deliver(ctx, cb.method, cb.params); err != nil {
		b.log.Warn(fmt.Sprintf("Failed to deliver %s, holding it until the application is ready again: %v", cb.method, err))
		b.ready = false
		b.holdLocked(cb)
		return false
	}
	b.log.Debug(fmt.Sprintf("Delivered %s", cb.method))
	return true
}

func (b *bridge) holdLocked(cb callback) {
	if cb.method == constant.CallbackItemOpened {
		held := cb
		b.pendingOpen = &held
		return
	}
	b.queue = append(b.queue, cb)
}

func (b *bridge) updateGaugeLocked() {
	n := len(b.queue)
	if b.pendingOpen != nil {
		n++
	}
	b.metrics.PendingCallbacks.Set(float64(n))
}

type bridgeCommands struct {
	alarms    AlarmScheduler
	presenter NotificationPresenter
	registry  Registry
	bridge    Bridge
	log       logger.Logger
}

// NewBridgeCommands creates the executor of application requests.
func NewBridgeCommands(alarms AlarmScheduler, presenter NotificationPresenter, registry Registry, bridge Bridge, log logger.Logger) BridgeCommands {
	return &bridgeCommands{alarms: alarms, presenter: presenter, registry: registry, bridge: bridge, log: log}
}

func (c *bridgeCommands) SetReminder(ctx context.Context, req dto.ReminderRequest) error {
	trigger, err := req.ToTrigger()
	if err != nil {
		c.log.Warn(fmt.Sprintf("Dropping %s: %v", constant.MethodSetReminder, err))
		return nil
	}
	return c.alarms.Schedule(ctx, trigger)
}

// UpdateReminder moves a reminder. An unconsumed snooze override that is later
// than the requested time wins, so a stale update cannot undo a snooze.
func (c *bridgeCommands) UpdateReminder(ctx context.Context, req dto.ReminderRequest) error {
	trigger, err := req.ToTrigger()
	if err != nil {
		c.log.Warn(fmt.Sprintf("Dropping %s: %v", constant.MethodUpdateReminder, err))
		return nil
	}
	snoozedUntil, ok, err := c.registry.Snooze(ctx, trigger.ReminderID)
	if err != nil {
		return err
	}
	if ok && snoozedUntil.After(trigger.DueTime) {
		c.log.Info(fmt.Sprintf("Reminder %d keeps its snooze until %v", trigger.ReminderID, snoozedUntil))
		trigger.DueTime = snoozedUntil
	}
	return c.alarms.Reschedule(ctx, trigger)
}

func (c *bridgeCommands) DeleteReminder(ctx context.Context, req dto.DeleteReminderRequest) error {
	if req.ID == nil {
		c.log.Warn(fmt.Sprintf("Dropping %s: missing id", constant.MethodDeleteReminder))
		return nil
	}
	id := *req.ID
	if err := c.alarms.Cancel(ctx, id); err != nil {
		return err
	}
	if err := c.presenter.Cancel(ctx, id); err != nil {
		c.log.Error(fmt.Sprintf("Failed to cancel alert of deleted reminder %d", id), err)
	}
	if err := c.registry.ClearLive(ctx, id); err != nil {
		return err
	}
	return c.registry.ClearSnooze(ctx, id)
}

func (c *bridgeCommands) Init(ctx context.Context, req dto.InitRequest) error {
	if req.CallbackHandle == nil {
		c.log.Warn(fmt.Sprintf("Dropping %s: missing callback_handle", constant.MethodInit))
		return nil
	}
	return c.registry.SetCallbackHandle(ctx, *req.CallbackHandle)
}

func (c *bridgeCommands) Ready(ctx context.Context) error {
	c.bridge.MarkReady(ctx)
	return nil
}
