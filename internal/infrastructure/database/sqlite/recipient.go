package sqlite

import (
	"context"
	"fmt"
	"reminderengine/internal/domain/entity"
	"reminderengine/internal/domain/repository"
	appErrors "reminderengine/internal/pkg/errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recipientRepository struct {
	db *gorm.DB
}

// NewRecipientRepository creates a new instance of RecipientRepository.
func NewRecipientRepository(db *gorm.DB) repository.RecipientRepository {
	return &recipientRepository{db: db}
}

// Create registers a recipient.
func (r *recipientRepository) Create(ctx context.Context, userID string) error {
	recipient := &entity.Recipient{UserID: userID, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(recipient).Error; err != nil {
		return fmt.Errorf("%w: create recipient %s: %v", appErrors.ErrDatabaseOperation, userID, err)
	}
	return nil
}

// Delete removes a recipient by their LINE User ID.
func (r *recipientRepository) Delete(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.Recipient{}).Error; err != nil {
		return fmt.Errorf("%w: delete recipient %s: %v", appErrors.ErrDatabaseOperation, userID, err)
	}
	return nil
}

// FindAll retrieves every registered recipient.
func (r *recipientRepository) FindAll(ctx context.Context) ([]*entity.Recipient, error) {
	var recipients []*entity.Recipient
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("%w: list recipients: %v", appErrors.ErrDatabaseOperation, err)
	}
	return recipients, nil
}
