package repository

import (
	"context"
	"reminderengine/internal/domain/entity"
	"time"
)

// JobRepository is the durable work queue.
type JobRepository interface {
	// Enqueue stores a job. If a job with the same dedupe key is already
	// queued, its payload and schedule are refreshed and the existing row is
	// returned with created == false.
	Enqueue(ctx context.Context, job *entity.Job) (stored *entity.Job, created bool, err error)
	// NextDue returns the oldest job of the class whose next attempt is due.
	// Returns ErrJobNotFound when nothing is due.
	NextDue(ctx context.Context, class string, now time.Time) (*entity.Job, error)
	// Finish removes a job that ran successfully. If the payload was refreshed
	// by Enqueue in the meantime the job is kept and finished is false.
	Finish(ctx context.Context, id, payload string) (finished bool, err error)
	// MarkFailed records a failed attempt and when to retry.
	MarkFailed(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastErr string) error
	// ListByKind returns all queued jobs of a kind within a class.
	ListByKind(ctx context.Context, class, kind string) ([]*entity.Job, error)
}
