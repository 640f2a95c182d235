package scheduler

import (
	"fmt"
	"reminderengine/internal/pkg/logger"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// minLead is how far in the future a wake for a past time is placed.
const minLead = time.Second

// Scheduler manages cron jobs: periodic jobs by spec, and one-shot wakes keyed
// by reminder id.
type Scheduler struct {
	cron  *cron.Cron
	log   logger.Logger
	mu    sync.Mutex // To protect access to job management
	wakes map[uint64]cron.EntryID
	now   func() time.Time
}

// NewScheduler creates and starts a cron scheduler with seconds precision.
func NewScheduler(log logger.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds()) // Use seconds precision
	c.Start()
	log.Info("Cron scheduler started.")
	return &Scheduler{
		cron:  c,
		log:   log,
		wakes: make(map[uint64]cron.EntryID),
		now:   time.Now,
	}
}

// AddJob adds a new job to the scheduler.
// spec follows the cron format (e.g., "0 30 * * * *" or "@every 10s").
// cmd is the function to execute.
// Returns the EntryID of the added job and an error if any.
func (s *Scheduler) AddJob(spec string, cmd func()) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, cmd)
	if err != nil {
		s.log.Error("Failed to add cron job", err)
		return 0, fmt.Errorf("failed to add cron job: %w", err)
	}
	s.log.Info(fmt.Sprintf("Added cron job with ID %d, spec: %s", id, spec))
	return id, nil
}

// RemoveJob removes a job from the scheduler by its EntryID.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Remove(id)
	s.log.Info(fmt.Sprintf("Removed cron job with ID %d", id))
}

// ScheduleExactWake runs fire once at the given time, replacing any wake
// already armed for id. A time that has passed fires right away.
func (s *Scheduler) ScheduleExactWake(id uint64, at time.Time, fire func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.wakes[id]; ok {
		s.cron.Remove(prev)
	}
	if earliest := s.now().Add(minLead); at.Before(earliest) {
		at = earliest
	}

	var entryID cron.EntryID
	entryID = s.cron.Schedule(once{at: at}, cron.FuncJob(func() {
		s.mu.Lock()
		current, ok := s.wakes[id]
		if ok && current == entryID {
			delete(s.wakes, id)
		}
		s.mu.Unlock()
		s.cron.Remove(entryID)
		if !ok || current != entryID {
			return
		}
		fire()
	}))
	s.wakes[id] = entryID
	s.log.Debug(fmt.Sprintf("Armed wake %d at %v (Job ID: %d)", id, at, entryID))
	return nil
}

// CancelWake disarms the wake of id, if any.
func (s *Scheduler) CancelWake(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.wakes[id]; ok {
		s.cron.Remove(entryID)
		delete(s.wakes, id)
		s.log.Debug(fmt.Sprintf("Disarmed wake %d (Job ID: %d)", id, entryID))
	}
}

// Stop stops the cron scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done() // Wait for running jobs to complete
	s.log.Info("Cron scheduler stopped.")
}

// GetEntries returns the list of scheduled entries. Useful for debugging.
func (s *Scheduler) GetEntries() []cron.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Entries()
}

// once is a cron.Schedule that activates a single time.
type once struct {
	at time.Time
}

// Next returns the activation time until it has passed, then the zero time,
// which cron treats as "never again".
func (o once) Next(t time.Time) time.Time {
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}
