package sqlite

import (
	"context"
	"errors"
	"fmt"
	"reminderengine/internal/domain/entity"
	"reminderengine/internal/domain/repository"
	appErrors "reminderengine/internal/pkg/errors"
	"time"

	"gorm.io/gorm"
)

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new instance of JobRepository.
func NewJobRepository(db *gorm.DB) repository.JobRepository {
	return &jobRepository{db: db}
}

// Enqueue stores a job, coalescing with a queued job that has the same dedupe key.
func (r *jobRepository) Enqueue(ctx context.Context, job *entity.Job) (*entity.Job, bool, error) {
	var stored entity.Job
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("dedupe_key = ?", job.DedupeKey).First(&stored).Error
		if err == nil {
			// A refreshed job runs again promptly with the new payload.
			stored.Payload = job.Payload
			stored.Attempts = 0
			stored.NextAttemptAt = job.NextAttemptAt.UTC()
			return tx.Model(&entity.Job{}).Where("id = ?", stored.ID).Updates(map[string]any{
				"payload":         stored.Payload,
				"attempts":        0,
				"next_attempt_at": stored.NextAttemptAt,
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		job.NextAttemptAt = job.NextAttemptAt.UTC()
		job.CreatedAt = job.CreatedAt.UTC()
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		stored = *job
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: enqueue job %s: %v", appErrors.ErrDatabaseOperation, job.DedupeKey, err)
	}
	return &stored, created, nil
}

// NextDue returns the oldest due job of the class.
func (r *jobRepository) NextDue(ctx context.Context, class string, now time.Time) (*entity.Job, error) {
	var job entity.Job
	err := r.db.WithContext(ctx).
		Where("class = ? AND next_attempt_at <= ?", class, now.UTC()).
		Order("next_attempt_at asc, created_at asc").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrJobNotFound
		}
		return nil, fmt.Errorf("%w: next due job for %s: %v", appErrors.ErrDatabaseOperation, class, err)
	}
	return &job, nil
}

// Finish removes a job unless its payload was refreshed while it ran.
func (r *jobRepository) Finish(ctx context.Context, id, payload string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND payload = ?", id, payload).Delete(&entity.Job{})
	if res.Error != nil {
		return false, fmt.Errorf("%w: finish job %s: %v", appErrors.ErrDatabaseOperation, id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed records a failed attempt.
func (r *jobRepository) MarkFailed(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastErr string) error {
	err := r.db.WithContext(ctx).Model(&entity.Job{}).Where("id = ?", id).Updates(map[string]any{
		"attempts":        attempts,
		"next_attempt_at": nextAttemptAt.UTC(),
		"last_error":      lastErr,
	}).Error
	if err != nil {
		return fmt.Errorf("%w: mark job %s failed: %v", appErrors.ErrDatabaseOperation, id, err)
	}
	return nil
}

// ListByKind returns all queued jobs of a kind within a class.
func (r *jobRepository) ListByKind(ctx context.Context, class, kind string) ([]*entity.Job, error) {
	var jobs []*entity.Job
	if err := r.db.WithContext(ctx).Where("class = ? AND kind = ?", class, kind).Order("created_at asc").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("%w: list %s jobs: %v", appErrors.ErrDatabaseOperation, kind, err)
	}
	return jobs, nil
}
