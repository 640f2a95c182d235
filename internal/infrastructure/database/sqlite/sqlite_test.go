package sqlite

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reminderengine/internal/domain/entity"
	appErrors "reminderengine/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func seedItem(t *testing.T, db *gorm.DB, name, note string) *entity.Item {
	t.Helper()
	item := &entity.Item{Name: name}
	if note != "" {
		item.Note = &note
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedReminder(t *testing.T, db *gorm.DB, itemID uint64, at time.Time) *entity.Reminder {
	t.Helper()
	r := &entity.Reminder{ItemID: itemID, Time: at.UTC()}
	require.NoError(t, db.Create(r).Error)
	return r
}

func TestItemStore_GetReminderAndItem(t *testing.T) {
	db := newTestDB(t)
	store := NewItemStore(db)
	ctx := context.Background()

	item := seedItem(t, db, "Buy milk", "2 litres")
	rem := seedReminder(t, db, item.ID, time.Now().Add(time.Hour))

	gotRem, err := store.GetReminder(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, gotRem.ItemID)

	gotItem, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", gotItem.Name)
	assert.Equal(t, "2 litres", gotItem.NoteText())
	assert.False(t, gotItem.Completed())

	_, err = store.GetReminder(ctx, 999)
	assert.ErrorIs(t, err, appErrors.ErrReminderNotFound)
	_, err = store.GetItem(ctx, 999)
	assert.ErrorIs(t, err, appErrors.ErrItemNotFound)
}

func TestItemStore_MarkCompletedIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	store := NewItemStore(db)
	ctx := context.Background()
	item := seedItem(t, db, "Call mum", "")

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkCompleted(ctx, item.ID, first))
	second := first.Add(time.Minute)
	require.NoError(t, store.MarkCompleted(ctx, item.ID, second))

	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedDate)
	assert.True(t, got.CompletedDate.Equal(second))

	assert.ErrorIs(t, store.MarkCompleted(ctx, 404, first), appErrors.ErrItemNotFound)
}

func TestItemStore_ListFutureReminders(t *testing.T) {
	db := newTestDB(t)
	store := NewItemStore(db)
	ctx := context.Background()
	now := time.Now()
	item := seedItem(t, db, "Water plants", "")

	seedReminder(t, db, item.ID, now.Add(-time.Hour))
	later := seedReminder(t, db, item.ID, now.Add(2*time.Hour))
	sooner := seedReminder(t, db, item.ID, now.Add(time.Hour))

	got, err := store.ListFutureReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sooner.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestItemStore_SetReminderTime(t *testing.T) {
	db := newTestDB(t)
	store := NewItemStore(db)
	ctx := context.Background()
	item := seedItem(t, db, "Stretch", "")
	rem := seedReminder(t, db, item.ID, time.Now())

	at := time.Now().Add(20 * time.Minute).UTC().Truncate(time.Millisecond)
	require.NoError(t, store.SetReminderTime(ctx, rem.ID, at))
	got, err := store.GetReminder(ctx, rem.ID)
	require.NoError(t, err)
	assert.True(t, got.Time.Equal(at))

	assert.ErrorIs(t, store.SetReminderTime(ctx, 404, at), appErrors.ErrReminderNotFound)
}

func TestFlagRepository_PutGetDelete(t *testing.T) {
	repo := NewFlagRepository(newTestDB(t))
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "snooze", "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Put(ctx, "snooze", "1", "a"))
	require.NoError(t, repo.Put(ctx, "snooze", "1", "b"))
	v, ok, err := repo.Get(ctx, "snooze", "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	// Same key in another namespace is independent.
	_, ok, err = repo.Get(ctx, "notification", "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Delete(ctx, "snooze", "1"))
	require.NoError(t, repo.Delete(ctx, "snooze", "1"))
	_, ok, err = repo.Get(ctx, "snooze", "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlagRepository_ListAndDeleteNamespace(t *testing.T) {
	repo := NewFlagRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "completed_items", "2", "1"))
	require.NoError(t, repo.Put(ctx, "completed_items", "1", "1"))
	require.NoError(t, repo.Put(ctx, "snooze", "9", "x"))

	flags, err := repo.List(ctx, "completed_items")
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, "1", flags[0].Key)

	require.NoError(t, repo.DeleteNamespace(ctx, "completed_items"))
	flags, err = repo.List(ctx, "completed_items")
	require.NoError(t, err)
	assert.Empty(t, flags)

	_, ok, err := repo.Get(ctx, "snooze", "9")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFlagRepository_TakeHasSingleWinner(t *testing.T) {
	repo := NewFlagRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, "notification", "7", "payload"))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, ok, err := repo.Take(ctx, "notification", "7")
			assert.NoError(t, err)
			if ok {
				assert.Equal(t, "payload", v)
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func newJob(key string, next time.Time) *entity.Job {
	return &entity.Job{
		ID:            fmt.Sprintf("job-%s-%d", key, next.UnixNano()),
		Class:         "notification_service",
		Kind:          "complete",
		DedupeKey:     key,
		Payload:       `{"item_id":1}`,
		NextAttemptAt: next,
		CreatedAt:     next,
	}
}

func TestJobRepository_EnqueueCoalesces(t *testing.T) {
	repo := NewJobRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	first, created, err := repo.Enqueue(ctx, newJob("complete:1", now))
	require.NoError(t, err)
	assert.True(t, created)

	again := newJob("complete:1", now.Add(time.Second))
	again.Payload = `{"item_id":1,"v":2}`
	second, created, err := repo.Enqueue(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, `{"item_id":1,"v":2}`, second.Payload)

	jobs, err := repo.ListByKind(ctx, "notification_service", "complete")
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	// The run that started with the old payload must not remove the refreshed job.
	finished, err := repo.Finish(ctx, first.ID, first.Payload)
	require.NoError(t, err)
	assert.False(t, finished)
	finished, err = repo.Finish(ctx, second.ID, second.Payload)
	require.NoError(t, err)
	assert.True(t, finished)
}

func TestJobRepository_NextDueAndRetry(t *testing.T) {
	repo := NewJobRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	_, err := repo.NextDue(ctx, "notification_service", now)
	assert.ErrorIs(t, err, appErrors.ErrJobNotFound)

	a, _, err := repo.Enqueue(ctx, newJob("a", now.Add(-2*time.Second)))
	require.NoError(t, err)
	b, _, err := repo.Enqueue(ctx, newJob("b", now.Add(-time.Second)))
	require.NoError(t, err)

	next, err := repo.NextDue(ctx, "notification_service", now)
	require.NoError(t, err)
	assert.Equal(t, a.ID, next.ID)

	require.NoError(t, repo.MarkFailed(ctx, a.ID, 1, now.Add(time.Minute), "store offline"))
	next, err = repo.NextDue(ctx, "notification_service", now)
	require.NoError(t, err)
	assert.Equal(t, b.ID, next.ID)

	finished, err := repo.Finish(ctx, b.ID, b.Payload)
	require.NoError(t, err)
	assert.True(t, finished)
	_, err = repo.NextDue(ctx, "notification_service", now)
	assert.ErrorIs(t, err, appErrors.ErrJobNotFound)

	next, err = repo.NextDue(ctx, "notification_service", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, a.ID, next.ID)
	assert.Equal(t, 1, next.Attempts)
	assert.Equal(t, "store offline", next.LastError)
}

func TestRecipientRepository(t *testing.T) {
	repo := NewRecipientRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "U1"))
	require.NoError(t, repo.Create(ctx, "U1"))
	require.NoError(t, repo.Create(ctx, "U2"))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, "U1"))
	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "U2", all[0].UserID)
}
