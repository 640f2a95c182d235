package service

import (
	"context"
	"fmt"
	"reminderengine/internal/application/dto"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/pkg/logger"
	"reminderengine/internal/pkg/metrics"
	"strings"
)

type notificationPresenter struct {
	shade Shade
	log   logger.Logger
}

// NewNotificationPresenter creates a NotificationPresenter posting to shade.
func NewNotificationPresenter(shade Shade, log logger.Logger) NotificationPresenter {
	return &notificationPresenter{shade: shade, log: log}
}

func (p *notificationPresenter) Show(ctx context.Context, reminderID, itemID uint64, title, note string) error {
	alert := dto.Alert{
		ReminderID: reminderID,
		ItemID:     itemID,
		Title:      title,
		Body:       strings.TrimSpace(note),
	}
	if itemID != 0 {
		alert.Actions = []constant.Action{constant.ActionOpen, constant.ActionComplete, constant.ActionSnooze}
	}
	if err := p.shade.Post(ctx, alert); err != nil {
		return err
	}
	p.log.Info(fmt.Sprintf("Posted alert for reminder %d (item %d)", reminderID, itemID))
	return nil
}

func (p *notificationPresenter) Cancel(ctx context.Context, reminderID uint64) error {
	return p.shade.Cancel(ctx, reminderID)
}

type firedReminderHandler struct {
	registry  Registry
	presenter NotificationPresenter
	metrics   *metrics.Metrics
	log       logger.Logger
}

// NewFiredReminderHandler creates the handler invoked for every wake trigger.
func NewFiredReminderHandler(registry Registry, presenter NotificationPresenter, m *metrics.Metrics, log logger.Logger) FiredReminderHandler {
	return &firedReminderHandler{registry: registry, presenter: presenter, metrics: m, log: log}
}

// Handle marks the reminder live and shows its alert, unless the item has a
// completion in flight.
func (h *firedReminderHandler) Handle(ctx context.Context, trigger dto.Trigger) error {
	h.metrics.AlarmsFired.Inc()

	pending, err := h.registry.IsPendingCompletion(ctx, trigger.ItemID)
	if err != nil {
		h.metrics.NotificationFailures.Inc()
		return fmt.Errorf("check pending completion of item %d: %w", trigger.ItemID, err)
	}
	if pending {
		h.metrics.AlarmsSuppressed.Inc()
		h.log.Info(fmt.Sprintf("Suppressed reminder %d: item %d is being completed", trigger.ReminderID, trigger.ItemID))
		return nil
	}

	// The marker goes first so that an action racing the post is never stale.
	if err := h.registry.MarkLive(ctx, trigger); err != nil {
		h.metrics.NotificationFailures.Inc()
		return fmt.Errorf("mark reminder %d live: %w", trigger.ReminderID, err)
	}
	if err := h.presenter.Show(ctx, trigger.ReminderID, trigger.ItemID, trigger.Title, trigger.Note); err != nil {
		h.metrics.NotificationFailures.Inc()
		if clearErr := h.registry.ClearLive(ctx, trigger.ReminderID); clearErr != nil {
			h.log.Error(fmt.Sprintf("Failed to clear live marker of reminder %d", trigger.ReminderID), clearErr)
		}
		return fmt.Errorf("show alert of reminder %d: %w", trigger.ReminderID, err)
	}
	h.metrics.NotificationsShown.Inc()
	return nil
}
