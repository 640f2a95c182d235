package service

import (
	"context"
	"fmt"
	"reminderengine/internal/domain/repository"
	"reminderengine/internal/pkg/logger"
)

type recipientService struct {
	recipientRepo repository.RecipientRepository
	log           logger.Logger
}

// NewRecipientService creates a new instance of RecipientService implementation.
func NewRecipientService(recipientRepo repository.RecipientRepository, log logger.Logger) RecipientService {
	return &recipientService{recipientRepo: recipientRepo, log: log}
}

func (s *recipientService) Register(ctx context.Context, userID string) error {
	if err := s.recipientRepo.Create(ctx, userID); err != nil {
		s.log.Error(fmt.Sprintf("Failed to register recipient %s", userID), err)
		return err
	}
	s.log.Info(fmt.Sprintf("Registered recipient %s", userID))
	return nil
}

func (s *recipientService) Unregister(ctx context.Context, userID string) error {
	if err := s.recipientRepo.Delete(ctx, userID); err != nil {
		s.log.Error(fmt.Sprintf("Failed to unregister recipient %s", userID), err)
		return err
	}
	s.log.Info(fmt.Sprintf("Unregistered recipient %s", userID))
	return nil
}

func (s *recipientService) Count(ctx context.Context) (int, error) {
	all, err := s.recipientRepo.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
