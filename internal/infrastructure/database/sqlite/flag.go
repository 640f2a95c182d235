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
	"gorm.io/gorm/clause"
)

type flagRepository struct {
	db *gorm.DB
}

// NewFlagRepository creates a new instance of FlagRepository.
func NewFlagRepository(db *gorm.DB) repository.FlagRepository {
	return &flagRepository{db: db}
}

// Put inserts or replaces a flag in one statement.
func (r *flagRepository) Put(ctx context.Context, namespace, key, value string) error {
	flag := &entity.Flag{Namespace: namespace, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "flag_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(flag).Error
	if err != nil {
		return fmt.Errorf("%w: put flag %s/%s: %v", appErrors.ErrDatabaseOperation, namespace, key, err)
	}
	return nil
}

// Get returns the flag value and whether it exists.
func (r *flagRepository) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var flag entity.Flag
	err := r.db.WithContext(ctx).Where("namespace = ? AND flag_key = ?", namespace, key).First(&flag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: get flag %s/%s: %v", appErrors.ErrDatabaseOperation, namespace, key, err)
	}
	return flag.Value, true, nil
}

// Take removes a flag and returns its value.
func (r *flagRepository) Take(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var flag entity.Flag
		if err := tx.Where("namespace = ? AND flag_key = ?", namespace, key).First(&flag).Error; err != nil {
			return err
		}
		res := tx.Where("namespace = ? AND flag_key = ?", namespace, key).Delete(&entity.Flag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		value = flag.Value
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: take flag %s/%s: %v", appErrors.ErrDatabaseOperation, namespace, key, err)
	}
	return value, true, nil
}

// Delete removes a flag.
func (r *flagRepository) Delete(ctx context.Context, namespace, key string) error {
	if err := r.db.WithContext(ctx).Where("namespace = ? AND flag_key = ?", namespace, key).Delete(&entity.Flag{}).Error; err != nil {
		return fmt.Errorf("%w: delete flag %s/%s: %v", appErrors.ErrDatabaseOperation, namespace, key, err)
	}
	return nil
}

// List returns every flag in a namespace ordered by key.
func (r *flagRepository) List(ctx context.Context, namespace string) ([]*entity.Flag, error) {
	var flags []*entity.Flag
	if err := r.db.WithContext(ctx).Where("namespace = ?", namespace).Order("flag_key asc").Find(&flags).Error; err != nil {
		return nil, fmt.Errorf("%w: list flags %s: %v", appErrors.ErrDatabaseOperation, namespace, err)
	}
	return flags, nil
}

// DeleteNamespace removes every flag in a namespace.
func (r *flagRepository) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := r.db.WithContext(ctx).Where("namespace = ?", namespace).Delete(&entity.Flag{}).Error; err != nil {
		return fmt.Errorf("%w: clear flags %s: %v", appErrors.ErrDatabaseOperation, namespace, err)
	}
	return nil
}
