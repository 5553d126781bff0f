// This file implements the planner service: calendar outfit plans with the
// cumulative outfit_plans quota gate on create.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/metrics"
	"github.com/calebsouthern/attire/internal/repository"
)

// PlannerService manages calendar outfit plans.
type PlannerService interface {
	Create(ctx context.Context, user *domain.User, params domain.CreateOutfitPlanParams) (*domain.OutfitPlan, error)
	Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.OutfitPlan, error)
	List(ctx context.Context, user *domain.User, from, to time.Time) ([]*domain.OutfitPlan, error)
	Update(ctx context.Context, user *domain.User, params domain.UpdateOutfitPlanParams) (*domain.OutfitPlan, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error
}

type plannerService struct {
	repo        *repository.PlannerRepo
	entitlement EntitlementService
	logger      *slog.Logger
}

// NewPlannerService creates a PlannerService.
func NewPlannerService(repo *repository.PlannerRepo, entitlement EntitlementService, logger *slog.Logger) PlannerService {
	return &plannerService{
		repo:        repo,
		entitlement: entitlement,
		logger:      logger,
	}
}

func (s *plannerService) Create(ctx context.Context, user *domain.User, params domain.CreateOutfitPlanParams) (*domain.OutfitPlan, error) {
	const op = "PlannerService.Create"

	params.UserID = user.ID
	params.Title = strings.TrimSpace(params.Title)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := s.entitlement.CheckCumulative(ctx, user, domain.ActionOutfitPlans); err != nil {
		return nil, err
	}

	plan, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create outfit plan")
	}

	metrics.OutfitPlansCreated.Inc()
	s.logger.Info("outfit plan created", "user_id", user.ID, "plan_id", plan.ID, "date", domain.UsageDay(plan.PlanDate))
	return plan, nil
}

func (s *plannerService) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.OutfitPlan, error) {
	const op = "PlannerService.Get"

	plan, err := s.repo.GetByID(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "outfit plan", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve outfit plan")
	}
	return plan, nil
}

func (s *plannerService) List(ctx context.Context, user *domain.User, from, to time.Time) ([]*domain.OutfitPlan, error) {
	const op = "PlannerService.List"

	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, domain.Invalid(op, "Date range end is before start")
	}

	plans, err := s.repo.ListByUser(ctx, user.ID, from, to)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list outfit plans")
	}
	return plans, nil
}

func (s *plannerService) Update(ctx context.Context, user *domain.User, params domain.UpdateOutfitPlanParams) (*domain.OutfitPlan, error) {
	const op = "PlannerService.Update"

	params.UserID = user.ID
	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" {
		return nil, domain.NewValidationError(op, "title", "Title is required")
	}
	if params.PlanDate.IsZero() {
		return nil, domain.NewValidationError(op, "plan_date", "A date is required")
	}

	plan, err := s.repo.Update(ctx, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "outfit plan", params.ID.String())
		}
		return nil, domain.Internal(err, op, "Failed to update outfit plan")
	}
	return plan, nil
}

func (s *plannerService) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	const op = "PlannerService.Delete"

	if err := s.repo.Delete(ctx, user.ID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "outfit plan", id.String())
		}
		return domain.Internal(err, op, "Failed to delete outfit plan")
	}

	s.logger.Info("outfit plan deleted", "user_id", user.ID, "plan_id", id)
	return nil
}
