package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reminderengine/internal/application/dto"
	"reminderengine/internal/domain/entity"
	"reminderengine/internal/infrastructure/database/sqlite"
	"reminderengine/internal/pkg/logger"
	"reminderengine/internal/pkg/metrics"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTimer struct {
	mu    sync.Mutex
	wakes map[uint64]fakeWake
	fail  error
}

type fakeWake struct {
	at   time.Time
	fire func()
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{wakes: make(map[uint64]fakeWake)}
}

func (f *fakeTimer) ScheduleExactWake(id uint64, at time.Time, fire func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.wakes[id] = fakeWake{at: at, fire: fire}
	return nil
}

func (f *fakeTimer) CancelWake(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.wakes, id)
}

func (f *fakeTimer) wake(id uint64) (fakeWake, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wakes[id]
	return w, ok
}

// fireNow runs the armed wake of id the way the timer goroutine would.
func (f *fakeTimer) fireNow(t *testing.T, id uint64) {
	t.Helper()
	f.mu.Lock()
	w, ok := f.wakes[id]
	delete(f.wakes, id)
	f.mu.Unlock()
	require.True(t, ok, "no wake armed for %d", id)
	w.fire()
}

type fakeShade struct {
	mu       sync.Mutex
	visible  map[uint64]dto.Alert
	posted   []dto.Alert
	canceled []uint64
	postErr  error
}

func newFakeShade() *fakeShade {
	return &fakeShade{visible: make(map[uint64]dto.Alert)}
}

func (f *fakeShade) Post(_ context.Context, alert dto.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.visible[alert.ReminderID] = alert
	f.posted = append(f.posted, alert)
	return nil
}

func (f *fakeShade) Cancel(_ context.Context, reminderID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.visible, reminderID)
	f.canceled = append(f.canceled, reminderID)
	return nil
}

func (f *fakeShade) isVisible(id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visible[id]
	return ok
}

type delivered struct {
	method string
	params any
}

type fakeSink struct {
	mu   sync.Mutex
	got  []delivered
	fail bool
}

func (f *fakeSink) Deliver(_ context.Context, method string, params any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("no application connected")
	}
	f.got = append(f.got, delivered{method: method, params: params})
	return nil
}

func (f *fakeSink) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.got))
	for _, d := range f.got {
		out = append(out, d.method)
	}
	return out
}

func (f *fakeSink) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

type fakeLauncher struct {
	mu      sync.Mutex
	handles []int64
}

func (f *fakeLauncher) Launch(_ context.Context, handle int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles = append(f.handles, handle)
	return nil
}

func (f *fakeLauncher) launched() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.handles...)
}

// flakyQueue fails every enqueue while err is set.
type flakyQueue struct {
	WorkQueue
	mu  sync.Mutex
	err error
}

func (q *flakyQueue) setErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.err = err
}

func (q *flakyQueue) failure() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *flakyQueue) EnqueueCompleteItem(ctx context.Context, itemID uint64) error {
	if err := q.failure(); err != nil {
		return err
	}
	return q.WorkQueue.EnqueueCompleteItem(ctx, itemID)
}

func (q *flakyQueue) EnqueueSnoozeReminder(ctx context.Context, reminderID uint64, at time.Time) error {
	if err := q.failure(); err != nil {
		return err
	}
	return q.WorkQueue.EnqueueSnoozeReminder(ctx, reminderID, at)
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness wires every service against an in-memory database and fake
// platform capabilities.
type harness struct {
	db        *gorm.DB
	clock     *fixedClock
	timer     *fakeTimer
	shade     *fakeShade
	sink      *fakeSink
	launcher  *fakeLauncher
	registry  Registry
	presenter NotificationPresenter
	fired     FiredReminderHandler
	alarms    AlarmScheduler
	bridge    Bridge
	runner    DeferredWorkRunner
	dispatch  ActionDispatcher
	commands  BridgeCommands
	boot      BootReceiver
}

const testSnoozeDelay = 20 * time.Minute

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := sqlite.NewDB(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.CloseDB(db) })

	log := logger.Nop()
	m := metrics.Discard()
	h := &harness{
		db:       db,
		clock:    &fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		timer:    newFakeTimer(),
		shade:    newFakeShade(),
		sink:     &fakeSink{},
		launcher: &fakeLauncher{},
	}
	h.registry = NewRegistry(sqlite.NewFlagRepository(db), log)
	h.presenter = NewNotificationPresenter(h.shade, log)
	h.fired = NewFiredReminderHandler(h.registry, h.presenter, m, log)
	h.alarms = NewAlarmScheduler(h.timer, h.fired, time.Second, log)
	h.bridge = NewBridge(h.sink, m, log)
	h.runner = NewDeferredWorkRunner(
		sqlite.NewJobRepository(db),
		sqlite.NewItemStore(db),
		h.registry,
		h.alarms,
		h.bridge,
		h.launcher,
		RetryPolicy{Base: time.Second, Max: time.Minute},
		h.clock.Now,
		m,
		log,
	)
	h.dispatch = NewActionDispatcher(sqlite.NewItemStore(db), h.registry, h.presenter, h.alarms, h.runner, h.bridge, h.runner, testSnoozeDelay, h.clock.Now, m, log)
	h.commands = NewBridgeCommands(h.alarms, h.presenter, h.registry, h.bridge, log)
	h.boot = NewBootReceiver(h.runner, log)
	return h
}

func (h *harness) seedItem(t *testing.T, name, note string) *entity.Item {
	t.Helper()
	item := &entity.Item{Name: name}
	if note != "" {
		item.Note = &note
	}
	require.NoError(t, h.db.Create(item).Error)
	return item
}

func (h *harness) seedReminder(t *testing.T, itemID uint64, at time.Time) *entity.Reminder {
	t.Helper()
	r := &entity.Reminder{ItemID: itemID, Time: at.UTC()}
	require.NoError(t, h.db.Create(r).Error)
	return r
}

func (h *harness) trigger(rem *entity.Reminder, item *entity.Item) dto.Trigger {
	return dto.Trigger{ReminderID: rem.ID, ItemID: item.ID, DueTime: rem.Time, Title: item.Name, Note: item.NoteText()}
}

// fire schedules the trigger and immediately lets its wake go off.
func (h *harness) fire(t *testing.T, trigger dto.Trigger) {
	t.Helper()
	require.NoError(t, h.alarms.Schedule(context.Background(), trigger))
	h.timer.fireNow(t, trigger.ReminderID)
}

// dispatcherWithQueue builds a dispatcher that enqueues through queue.
func (h *harness) dispatcherWithQueue(queue WorkQueue) ActionDispatcher {
	return NewActionDispatcher(sqlite.NewItemStore(h.db), h.registry, h.presenter, h.alarms, queue, h.bridge, h.runner, testSnoozeDelay, h.clock.Now, metrics.Discard(), logger.Nop())
}

func (h *harness) queuedJobs(t *testing.T) []*entity.Job {
	t.Helper()
	var jobs []*entity.Job
	require.NoError(t, h.db.Order("created_at asc").Find(&jobs).Error)
	return jobs
}

func u64(v uint64) *uint64 { return &v }
func i64(v int64) *int64   { return &v }
func str(v string) *string { return &v }
