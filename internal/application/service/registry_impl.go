package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reminderengine/internal/application/dto"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/domain/repository"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"strconv"
	"time"
)

type registry struct {
	flags repository.FlagRepository
	log   logger.Logger
}

// NewRegistry creates a Registry backed by the flag repository.
func NewRegistry(flags repository.FlagRepository, log logger.Logger) Registry {
	return &registry{flags: flags, log: log}
}

func idKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func (r *registry) MarkLive(ctx context.Context, trigger dto.Trigger) error {
	payload, err := json.Marshal(trigger)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrInternalServer, err)
	}
	return r.flags.Put(ctx, constant.NamespaceNotification, idKey(trigger.ReminderID), string(payload))
}

func (r *registry) TakeLive(ctx context.Context, reminderID uint64) (*dto.Trigger, bool, error) {
	value, ok, err := r.flags.Take(ctx, constant.NamespaceNotification, idKey(reminderID))
	if err != nil || !ok {
		return nil, false, err
	}
	var trigger dto.Trigger
	if err := json.Unmarshal([]byte(value), &trigger); err != nil {
		// The marker is consumed either way; fall back to the id alone.
		r.log.Warn(fmt.Sprintf("Live marker of reminder %d has an unreadable payload: %v", reminderID, err))
		trigger = dto.Trigger{ReminderID: reminderID}
	}
	return &trigger, true, nil
}

func (r *registry) ClearLive(ctx context.Context, reminderID uint64) error {
	return r.flags.Delete(ctx, constant.NamespaceNotification, idKey(reminderID))
}

func (r *registry) LiveReminders(ctx context.Context) ([]uint64, error) {
	return r.listIDs(ctx, constant.NamespaceNotification)
}

func (r *registry) SetSnooze(ctx context.Context, reminderID uint64, at time.Time) error {
	return r.flags.Put(ctx, constant.NamespaceSnooze, idKey(reminderID), at.UTC().Format(time.RFC3339Nano))
}

func (r *registry) Snooze(ctx context.Context, reminderID uint64) (time.Time, bool, error) {
	value, ok, err := r.flags.Get(ctx, constant.NamespaceSnooze, idKey(reminderID))
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		r.log.Warn(fmt.Sprintf("Ignoring unreadable snooze override %q of reminder %d", value, reminderID))
		return time.Time{}, false, nil
	}
	return at, true, nil
}

func (r *registry) ClearSnooze(ctx context.Context, reminderID uint64) error {
	return r.flags.Delete(ctx, constant.NamespaceSnooze, idKey(reminderID))
}

func (r *registry) AddPendingCompletion(ctx context.Context, itemID uint64) error {
	return r.flags.Put(ctx, constant.NamespaceCompletedItems, idKey(itemID), "1")
}

func (r *registry) RemovePendingCompletion(ctx context.Context, itemID uint64) error {
	return r.flags.Delete(ctx, constant.NamespaceCompletedItems, idKey(itemID))
}

func (r *registry) IsPendingCompletion(ctx context.Context, itemID uint64) (bool, error) {
	_, ok, err := r.flags.Get(ctx, constant.NamespaceCompletedItems, idKey(itemID))
	return ok, err
}

func (r *registry) PendingCompletions(ctx context.Context) ([]uint64, error) {
	return r.listIDs(ctx, constant.NamespaceCompletedItems)
}

func (r *registry) ClearPendingCompletions(ctx context.Context) error {
	return r.flags.DeleteNamespace(ctx, constant.NamespaceCompletedItems)
}

func (r *registry) SetCallbackHandle(ctx context.Context, handle int64) error {
	return r.flags.Put(ctx, constant.NamespaceCallback, constant.CallbackHandleKey, strconv.FormatInt(handle, 10))
}

func (r *registry) CallbackHandle(ctx context.Context) (int64, bool, error) {
	value, ok, err := r.flags.Get(ctx, constant.NamespaceCallback, constant.CallbackHandleKey)
	if err != nil || !ok {
		return 0, false, err
	}
	handle, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.log.Warn(fmt.Sprintf("Ignoring unreadable callback handle %q", value))
		return 0, false, nil
	}
	return handle, true, nil
}

func (r *registry) listIDs(ctx context.Context, namespace string) ([]uint64, error) {
	flags, err := r.flags.List(ctx, namespace)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(flags))
	for _, f := range flags {
		id, err := strconv.ParseUint(f.Key, 10, 64)
		if err != nil {
			r.log.Warn(fmt.Sprintf("Skipping non-numeric key %q in namespace %s", f.Key, namespace))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
