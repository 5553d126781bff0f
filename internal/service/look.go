// This file implements the saved looks service with the cumulative
// saved_looks quota gate on create.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/metrics"
	"github.com/calebsouthern/attire/internal/repository"
)

// LookService manages saved looks.
type LookService interface {
	Create(ctx context.Context, user *domain.User, params domain.CreateSavedLookParams) (*domain.SavedLook, error)
	List(ctx context.Context, user *domain.User) ([]*domain.SavedLook, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error
}

type lookService struct {
	repo        *repository.LookRepo
	entitlement EntitlementService
	logger      *slog.Logger
}

// NewLookService creates a LookService.
func NewLookService(repo *repository.LookRepo, entitlement EntitlementService, logger *slog.Logger) LookService {
	return &lookService{
		repo:        repo,
		entitlement: entitlement,
		logger:      logger,
	}
}

func (s *lookService) Create(ctx context.Context, user *domain.User, params domain.CreateSavedLookParams) (*domain.SavedLook, error) {
	const op = "LookService.Create"

	params.UserID = user.ID
	params.Name = strings.TrimSpace(params.Name)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := s.entitlement.CheckCumulative(ctx, user, domain.ActionSavedLooks); err != nil {
		return nil, err
	}

	look, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save look")
	}

	metrics.LooksSaved.Inc()
	s.logger.Info("look saved", "user_id", user.ID, "look_id", look.ID)
	return look, nil
}

func (s *lookService) List(ctx context.Context, user *domain.User) ([]*domain.SavedLook, error) {
	const op = "LookService.List"

	looks, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list saved looks")
	}
	return looks, nil
}

func (s *lookService) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	const op = "LookService.Delete"

	if err := s.repo.Delete(ctx, user.ID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "saved look", id.String())
		}
		return domain.Internal(err, op, "Failed to delete saved look")
	}

	s.logger.Info("look deleted", "user_id", user.ID, "look_id", id)
	return nil
}
