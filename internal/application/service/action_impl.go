package service

import (
	"context"
	"fmt"
	"reminderengine/internal/application/dto"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/domain/repository"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"reminderengine/internal/pkg/metrics"
	"time"
)

type actionDispatcher struct {
	store       repository.ItemStore
	registry    Registry
	presenter   NotificationPresenter
	alarms      AlarmScheduler
	queue       WorkQueue
	bridge      Bridge
	attacher    Attacher
	snoozeDelay time.Duration
	now         Clock
	metrics     *metrics.Metrics
	log         logger.Logger
}

// NewActionDispatcher creates an ActionDispatcher.
func NewActionDispatcher(
	store repository.ItemStore,
	registry Registry,
	presenter NotificationPresenter,
	alarms AlarmScheduler,
	queue WorkQueue,
	bridge Bridge,
	attacher Attacher,
	snoozeDelay time.Duration,
	now Clock,
	m *metrics.Metrics,
	log logger.Logger,
) ActionDispatcher {
	return &actionDispatcher{
		store:       store,
		registry:    registry,
		presenter:   presenter,
		alarms:      alarms,
		queue:       queue,
		bridge:      bridge,
		attacher:    attacher,
		snoozeDelay: snoozeDelay,
		now:         now,
		metrics:     m,
		log:         log,
	}
}

func (d *actionDispatcher) Dispatch(ctx context.Context, req dto.ActionRequest) error {
	if _, ok := constant.ParseAction(string(req.Action)); !ok {
		d.metrics.Actions.WithLabelValues("unknown", "rejected").Inc()
		return fmt.Errorf("%w: %q", appErrors.ErrUnknownAction, req.Action)
	}

	trigger, live, err := d.registry.TakeLive(ctx, req.ReminderID)
	if err != nil {
		d.metrics.Actions.WithLabelValues(req.Action.String(), "error").Inc()
		return err
	}

	d.cleanup(ctx, req.ReminderID)

	if !live {
		d.metrics.Actions.WithLabelValues(req.Action.String(), "stale").Inc()
		d.log.Info(fmt.Sprintf("Ignoring %s on reminder %d: alert already handled", req.Action, req.ReminderID))
		return appErrors.ErrStaleAction
	}

	if trigger.ItemID == 0 {
		d.resolve(ctx, trigger, req.ItemID)
	}
	itemID := trigger.ItemID

	switch req.Action {
	case constant.ActionOpen:
		d.bridge.ItemOpened(ctx, itemID)
		d.attacher.Attach(ctx)
	case constant.ActionComplete:
		err = d.complete(ctx, itemID)
	case constant.ActionSnooze:
		err = d.snooze(ctx, *trigger)
	case constant.ActionDismiss:
	}

	if err != nil {
		d.metrics.Actions.WithLabelValues(req.Action.String(), "error").Inc()
		d.restore(ctx, *trigger)
		return err
	}
	d.metrics.Actions.WithLabelValues(req.Action.String(), "ok").Inc()
	d.log.Info(fmt.Sprintf("Handled %s on reminder %d (item %d)", req.Action, req.ReminderID, itemID))
	return nil
}

// resolve fills in a trigger whose marker payload was unreadable.
func (d *actionDispatcher) resolve(ctx context.Context, trigger *dto.Trigger, fallbackItemID uint64) {
	trigger.ItemID = fallbackItemID
	rem, err := d.store.GetReminder(ctx, trigger.ReminderID)
	if err != nil {
		d.log.Warn(fmt.Sprintf("Cannot resolve reminder %d: %v", trigger.ReminderID, err))
		return
	}
	trigger.ItemID = rem.ItemID
	item, err := d.store.GetItem(ctx, rem.ItemID)
	if err != nil {
		d.log.Warn(fmt.Sprintf("Cannot resolve item %d: %v", rem.ItemID, err))
		return
	}
	trigger.Title = item.Name
	trigger.Note = item.NoteText()
}

// cleanup runs for every action, stale or not.
func (d *actionDispatcher) cleanup(ctx context.Context, reminderID uint64) {
	if err := d.presenter.Cancel(ctx, reminderID); err != nil {
		d.log.Error(fmt.Sprintf("Failed to cancel alert of reminder %d", reminderID), err)
	}
	d.unsnooze(ctx, reminderID)
}

// restore puts a claimed alert back after its action failed, so the user
// can tap it again.
func (d *actionDispatcher) restore(ctx context.Context, trigger dto.Trigger) {
	if err := d.registry.MarkLive(ctx, trigger); err != nil {
		d.log.Error(fmt.Sprintf("Failed to restore the live marker of reminder %d", trigger.ReminderID), err)
		return
	}
	if err := d.presenter.Show(ctx, trigger.ReminderID, trigger.ItemID, trigger.Title, trigger.Note); err != nil {
		d.log.Error(fmt.Sprintf("Failed to show the alert of reminder %d again", trigger.ReminderID), err)
	}
}

func (d *actionDispatcher) complete(ctx context.Context, itemID uint64) error {
	if err := d.registry.AddPendingCompletion(ctx, itemID); err != nil {
		return err
	}
	if err := d.queue.EnqueueCompleteItem(ctx, itemID); err != nil {
		if rmErr := d.registry.RemovePendingCompletion(ctx, itemID); rmErr != nil {
			d.log.Error(fmt.Sprintf("Failed to unmark completion of item %d", itemID), rmErr)
		}
		return err
	}
	return nil
}

func (d *actionDispatcher) snooze(ctx context.Context, trigger dto.Trigger) error {
	at := d.now().Add(d.snoozeDelay)
	if err := d.registry.SetSnooze(ctx, trigger.ReminderID, at); err != nil {
		return err
	}
	trigger.DueTime = at
	if err := d.alarms.Reschedule(ctx, trigger); err != nil {
		d.unsnooze(ctx, trigger.ReminderID)
		return err
	}
	if err := d.queue.EnqueueSnoozeReminder(ctx, trigger.ReminderID, at); err != nil {
		if cancelErr := d.alarms.Cancel(ctx, trigger.ReminderID); cancelErr != nil {
			d.log.Error(fmt.Sprintf("Failed to cancel the snoozed alarm of reminder %d", trigger.ReminderID), cancelErr)
		}
		d.unsnooze(ctx, trigger.ReminderID)
		return err
	}
	return nil
}

func (d *actionDispatcher) unsnooze(ctx context.Context, reminderID uint64) {
	if err := d.registry.ClearSnooze(ctx, reminderID); err != nil {
		d.log.Error(fmt.Sprintf("Failed to clear snooze override of reminder %d", reminderID), err)
	}
}
