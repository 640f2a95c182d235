package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reminderengine/internal/application/dto"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/domain/entity"
	"reminderengine/internal/domain/repository"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"reminderengine/internal/pkg/metrics"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RetryPolicy bounds the exponential backoff of failed jobs.
type RetryPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before the given attempt number (1-based) is retried.
func (p RetryPolicy) Delay(attempts int) time.Duration {
	d := p.Base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= p.Max {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

type workRunner struct {
	jobs     repository.JobRepository
	store    repository.ItemStore
	registry Registry
	alarms   AlarmScheduler
	bridge   Bridge
	launcher Launcher
	retry    RetryPolicy
	now      Clock
	metrics  *metrics.Metrics
	log      logger.Logger
	wake     chan struct{}
}

// NewDeferredWorkRunner creates the runner of the notification service job
// class. launcher may be nil when no background entry point is configured.
func NewDeferredWorkRunner(
	jobs repository.JobRepository,
	store repository.ItemStore,
	registry Registry,
	alarms AlarmScheduler,
	bridge Bridge,
	launcher Launcher,
	retry RetryPolicy,
	now Clock,
	m *metrics.Metrics,
	log logger.Logger,
) DeferredWorkRunner {
	return &workRunner{
		jobs:     jobs,
		store:    store,
		registry: registry,
		alarms:   alarms,
		bridge:   bridge,
		launcher: launcher,
		retry:    retry,
		now:      now,
		metrics:  m,
		log:      log,
		wake:     make(chan struct{}, 1),
	}
}

func (r *workRunner) EnqueueCompleteItem(ctx context.Context, itemID uint64) error {
	return r.enqueue(ctx, constant.JobCompleteItem, "complete:"+strconv.FormatUint(itemID, 10), dto.CompleteItemPayload{ItemID: itemID})
}

func (r *workRunner) EnqueueRestoreAlarms(ctx context.Context) error {
	return r.enqueue(ctx, constant.JobRestoreAlarms, "restore", dto.EmptyParams{})
}

func (r *workRunner) EnqueueSnoozeReminder(ctx context.Context, reminderID uint64, at time.Time) error {
	return r.enqueue(ctx, constant.JobSnoozeReminder, "snooze:"+strconv.FormatUint(reminderID, 10), dto.SnoozeReminderPayload{ReminderID: reminderID, At: at.UTC()})
}

func (r *workRunner) enqueue(ctx context.Context, kind constant.JobKind, dedupeKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrInternalServer, err)
	}
	now := r.now()
	stored, created, err := r.jobs.Enqueue(ctx, &entity.Job{
		ID:            uuid.NewString(),
		Class:         constant.JobClass,
		Kind:          string(kind),
		DedupeKey:     dedupeKey,
		Payload:       string(body),
		NextAttemptAt: now,
		CreatedAt:     now,
	})
	if err != nil {
		r.log.Error(fmt.Sprintf("Failed to enqueue %s job", kind), err)
		return err
	}
	if created {
		r.log.Info(fmt.Sprintf("Enqueued %s job %s", kind, stored.ID))
	} else {
		r.log.Info(fmt.Sprintf("Coalesced %s job into %s", kind, stored.ID))
	}
	r.Kick()
	return nil
}

func (r *workRunner) Kick() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *workRunner) Start(ctx context.Context) error {
	if err := r.coldStart(ctx); err != nil {
		r.log.Error("Cold start of the work runner failed", err)
	}
	for {
		if err := r.RunPending(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("Work runner pass failed", err)
		}
		select {
		case <-ctx.Done():
			r.log.Info("Work runner stopped.")
			return nil
		case <-r.wake:
		}
	}
}

// coldStart rebuilds the in-flight completion set from the queue, because a
// set left over from a crash may name items whose job already finished.
func (r *workRunner) coldStart(ctx context.Context) error {
	if err := r.registry.ClearPendingCompletions(ctx); err != nil {
		return err
	}
	queued, err := r.jobs.ListByKind(ctx, constant.JobClass, string(constant.JobCompleteItem))
	if err != nil {
		return err
	}
	for _, job := range queued {
		var p dto.CompleteItemPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			r.log.Warn(fmt.Sprintf("Skipping unreadable complete job %s: %v", job.ID, err))
			continue
		}
		if err := r.registry.AddPendingCompletion(ctx, p.ItemID); err != nil {
			return err
		}
	}
	r.log.Info(fmt.Sprintf("Work runner cold start: %d completions in flight", len(queued)))
	return nil
}

// Attach launches the application background entry point with the stored
// callback handle unless an application is already connected.
func (r *workRunner) Attach(ctx context.Context) {
	if r.launcher == nil || r.bridge.Ready() {
		return
	}
	handle, ok, err := r.registry.CallbackHandle(ctx)
	if err != nil {
		r.log.Error("Failed to read the callback handle", err)
		return
	}
	if !ok {
		r.log.Debug("No callback handle registered, not launching the background entry point")
		return
	}
	if err := r.launcher.Launch(ctx, handle); err != nil {
		r.log.Error("Failed to launch the application background entry point", err)
	}
}

// RunPending attaches the application once per pass that has work, since
// every job ends in a callback to it.
func (r *workRunner) RunPending(ctx context.Context) error {
	attached := false
	for ctx.Err() == nil {
		job, err := r.jobs.NextDue(ctx, constant.JobClass, r.now())
		if err != nil {
			if errors.Is(err, appErrors.ErrJobNotFound) {
				return nil
			}
			return err
		}
		if !attached {
			r.Attach(ctx)
			attached = true
		}
		if err := r.runJob(ctx, job); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// runJob executes one job and records the outcome. The returned error is a
// bookkeeping failure, not a job failure.
func (r *workRunner) runJob(ctx context.Context, job *entity.Job) error {
	execErr := r.execute(ctx, job)
	switch {
	case execErr == nil:
		r.metrics.Jobs.WithLabelValues(job.Kind, "ok").Inc()
		finished, err := r.jobs.Finish(ctx, job.ID, job.Payload)
		if err != nil {
			return err
		}
		if !finished {
			r.log.Debug(fmt.Sprintf("Job %s was refreshed while running, running it again", job.ID))
		}
		return nil
	case errors.Is(execErr, appErrors.ErrUnknownJob):
		r.metrics.Jobs.WithLabelValues(job.Kind, "dropped").Inc()
		r.log.Error(fmt.Sprintf("Dropping job %s", job.ID), execErr)
		_, err := r.jobs.Finish(ctx, job.ID, job.Payload)
		return err
	default:
		r.metrics.Jobs.WithLabelValues(job.Kind, "retry").Inc()
		attempts := job.Attempts + 1
		next := r.now().Add(r.retry.Delay(attempts))
		r.log.Warn(fmt.Sprintf("Job %s (%s) failed on attempt %d, retrying at %v: %v", job.ID, job.Kind, attempts, next, execErr))
		return r.jobs.MarkFailed(ctx, job.ID, attempts, next, execErr.Error())
	}
}

func (r *workRunner) execute(ctx context.Context, job *entity.Job) error {
	switch constant.JobKind(job.Kind) {
	case constant.JobCompleteItem:
		var p dto.CompleteItemPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return fmt.Errorf("%w: bad payload: %v", appErrors.ErrUnknownJob, err)
		}
		return r.completeItem(ctx, p.ItemID)
	case constant.JobRestoreAlarms:
		return r.restoreAlarms(ctx)
	case constant.JobSnoozeReminder:
		var p dto.SnoozeReminderPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return fmt.Errorf("%w: bad payload: %v", appErrors.ErrUnknownJob, err)
		}
		return r.snoozeReminder(ctx, p)
	}
	return fmt.Errorf("%w: %q", appErrors.ErrUnknownJob, job.Kind)
}

// completeItem writes the completion, tells the application, and only then
// lifts the suppression of further firings for the item.
func (r *workRunner) completeItem(ctx context.Context, itemID uint64) error {
	err := r.store.MarkCompleted(ctx, itemID, r.now())
	if errors.Is(err, appErrors.ErrItemNotFound) {
		r.log.Warn(fmt.Sprintf("Item %d no longer exists, nothing to complete", itemID))
	} else if err != nil {
		return err
	}
	r.bridge.ItemCompleted(ctx, itemID)
	return r.registry.RemovePendingCompletion(ctx, itemID)
}

// restoreAlarms re-arms every future reminder of an open item. A snooze
// override later than the stored time wins.
func (r *workRunner) restoreAlarms(ctx context.Context) error {
	reminders, err := r.store.ListFutureReminders(ctx, r.now())
	if err != nil {
		return err
	}
	scheduled := 0
	for _, rem := range reminders {
		item, err := r.store.GetItem(ctx, rem.ItemID)
		if errors.Is(err, appErrors.ErrItemNotFound) {
			r.log.Warn(fmt.Sprintf("Reminder %d points at missing item %d, skipping", rem.ID, rem.ItemID))
			continue
		}
		if err != nil {
			return err
		}
		if item.Completed() {
			continue
		}
		due := rem.Time
		if at, ok, err := r.registry.Snooze(ctx, rem.ID); err != nil {
			return err
		} else if ok && at.After(due) {
			due = at
		}
		trigger := dto.Trigger{ReminderID: rem.ID, ItemID: item.ID, DueTime: due, Title: item.Name, Note: item.NoteText()}
		if err := r.alarms.Schedule(ctx, trigger); err != nil {
			return err
		}
		scheduled++
	}
	r.log.Info(fmt.Sprintf("Restored %d of %d future reminders", scheduled, len(reminders)))
	r.bridge.RestoreAlarms(ctx)
	return nil
}

func (r *workRunner) snoozeReminder(ctx context.Context, p dto.SnoozeReminderPayload) error {
	err := r.store.SetReminderTime(ctx, p.ReminderID, p.At)
	if errors.Is(err, appErrors.ErrReminderNotFound) {
		r.log.Warn(fmt.Sprintf("Reminder %d no longer exists, snooze not persisted", p.ReminderID))
		return nil
	}
	if err != nil {
		return err
	}
	r.bridge.ReloadStore(ctx)
	return nil
}

type bootReceiver struct {
	queue WorkQueue
	log   logger.Logger
}

// NewBootReceiver creates the handler of host restarts.
func NewBootReceiver(queue WorkQueue, log logger.Logger) BootReceiver {
	return &bootReceiver{queue: queue, log: log}
}

func (b *bootReceiver) OnBoot(ctx context.Context) error {
	b.log.Info("Boot completed, queueing alarm restore")
	return b.queue.EnqueueRestoreAlarms(ctx)
}
