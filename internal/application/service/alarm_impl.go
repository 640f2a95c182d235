package service

import (
	"context"
	"fmt"
	"reminderengine/internal/application/dto"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"sort"
	"sync"
	"time"
)

type armedTrigger struct {
	trigger    dto.Trigger
	generation uint64
}

type alarmScheduler struct {
	timer   WakeTimer
	fired   FiredReminderHandler
	timeout time.Duration
	log     logger.Logger

	mu         sync.Mutex
	armed      map[uint64]armedTrigger
	generation uint64
}

// NewAlarmScheduler creates an AlarmScheduler. Each firing runs the fired
// handler with a context bounded by timeout.
func NewAlarmScheduler(timer WakeTimer, fired FiredReminderHandler, timeout time.Duration, log logger.Logger) AlarmScheduler {
	return &alarmScheduler{
		timer:   timer,
		fired:   fired,
		timeout: timeout,
		log:     log,
		armed:   make(map[uint64]armedTrigger),
	}
}

func (s *alarmScheduler) Schedule(ctx context.Context, trigger dto.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	gen := s.generation
	if err := s.timer.ScheduleExactWake(trigger.ReminderID, trigger.DueTime, func() { s.fire(trigger.ReminderID, gen) }); err != nil {
		s.log.Error(fmt.Sprintf("Failed to arm wake trigger for reminder %d", trigger.ReminderID), err)
		return fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	s.armed[trigger.ReminderID] = armedTrigger{trigger: trigger, generation: gen}
	s.log.Info(fmt.Sprintf("Scheduled reminder %d (item %d) at %v", trigger.ReminderID, trigger.ItemID, trigger.DueTime))
	return nil
}

func (s *alarmScheduler) Reschedule(ctx context.Context, trigger dto.Trigger) error {
	return s.Schedule(ctx, trigger)
}

func (s *alarmScheduler) Cancel(ctx context.Context, reminderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer.CancelWake(reminderID)
	if _, ok := s.armed[reminderID]; ok {
		delete(s.armed, reminderID)
		s.log.Info(fmt.Sprintf("Cancelled wake trigger of reminder %d", reminderID))
	} else {
		s.log.Debug(fmt.Sprintf("No wake trigger of reminder %d to cancel", reminderID))
	}
	return nil
}

func (s *alarmScheduler) Pending() []dto.Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]dto.Trigger, 0, len(s.armed))
	for _, a := range s.armed {
		out = append(out, a.trigger)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueTime.Equal(out[j].DueTime) {
			return out[i].ReminderID < out[j].ReminderID
		}
		return out[i].DueTime.Before(out[j].DueTime)
	})
	return out
}

// fire runs on the timer's goroutine. A firing whose generation no longer
// matches was superseded by a later Schedule or Cancel.
func (s *alarmScheduler) fire(reminderID, gen uint64) {
	s.mu.Lock()
	armed, ok := s.armed[reminderID]
	if !ok || armed.generation != gen {
		s.mu.Unlock()
		s.log.Debug(fmt.Sprintf("Dropping superseded firing of reminder %d", reminderID))
		return
	}
	delete(s.armed, reminderID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.fired.Handle(ctx, armed.trigger); err != nil {
		s.log.Error(fmt.Sprintf("Error handling fired reminder %d", reminderID), err)
	}
}
