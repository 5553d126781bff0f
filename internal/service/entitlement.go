// This file implements the entitlement service: it assembles usage
// snapshots and enforces cumulative quotas (wardrobe items, outfit plans,
// saved looks). Cumulative usage is the live row count, so deleting an
// item frees quota immediately. Daily chat usage comes from the meter.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/domain"
)

// RowCounter counts a user's rows for one cumulative quota.
type RowCounter interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// ActionUsage is one action's usage as reported to the client.
type ActionUsage struct {
	Used       int     `json:"used"`
	Limit      int     `json:"limit"` // -1 means unlimited
	Remaining  int     `json:"remaining"`
	Percentage float64 `json:"percentage"`
}

// SubscriptionSummary is the payload for GET /api/subscription.
type SubscriptionSummary struct {
	Tier       string                            `json:"tier"`
	TierName   string                            `json:"tier_name"`
	Price      int                               `json:"price"`
	Subscribed bool                              `json:"subscribed"`
	Usage      map[domain.ActionType]ActionUsage `json:"usage"`
}

// EntitlementService answers "may this user do this" for cumulative
// actions and builds the usage summary for the client.
type EntitlementService interface {
	// GetUsage returns the user's current usage snapshot across all
	// recognized actions.
	GetUsage(ctx context.Context, userID uuid.UUID) (domain.UsageSnapshot, error)

	// CheckCumulative verifies a cumulative action is under its tier
	// limit. Returns domain.EQUOTA when the user is at the limit.
	CheckCumulative(ctx context.Context, user *domain.User, action domain.ActionType) error

	// Summary builds the subscription summary for the client.
	Summary(ctx context.Context, user *domain.User) (*SubscriptionSummary, error)
}

type entitlementService struct {
	wardrobe RowCounter
	planner  RowCounter
	looks    RowCounter
	meter    MeterService
	logger   *slog.Logger
}

// NewEntitlementService creates an EntitlementService from the per-action
// counters and the daily meter.
func NewEntitlementService(wardrobe, planner, looks RowCounter, meter MeterService, logger *slog.Logger) EntitlementService {
	return &entitlementService{
		wardrobe: wardrobe,
		planner:  planner,
		looks:    looks,
		meter:    meter,
		logger:   logger,
	}
}

func (s *entitlementService) GetUsage(ctx context.Context, userID uuid.UUID) (domain.UsageSnapshot, error) {
	const op = "EntitlementService.GetUsage"

	wardrobeCount, err := s.wardrobe.CountByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to count wardrobe items")
	}
	planCount, err := s.planner.CountByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to count outfit plans")
	}
	lookCount, err := s.looks.CountByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to count saved looks")
	}
	chatCount, err := s.meter.TodayCount(ctx, userID, domain.ActionAIChatsPerDay)
	if err != nil {
		return nil, err
	}

	return domain.UsageSnapshot{
		domain.ActionWardrobeItems: wardrobeCount,
		domain.ActionOutfitPlans:   planCount,
		domain.ActionSavedLooks:    lookCount,
		domain.ActionAIChatsPerDay: chatCount,
	}, nil
}

func (s *entitlementService) CheckCumulative(ctx context.Context, user *domain.User, action domain.ActionType) error {
	const op = "EntitlementService.CheckCumulative"

	tier := user.EffectiveTier()
	limit := domain.GetTier(tier).Limits[action]
	if limit == domain.Unlimited {
		return nil
	}

	var counter RowCounter
	switch action {
	case domain.ActionWardrobeItems:
		counter = s.wardrobe
	case domain.ActionOutfitPlans:
		counter = s.planner
	case domain.ActionSavedLooks:
		counter = s.looks
	default:
		return domain.Errorf(domain.EINTERNAL, op, "action %q is not a cumulative quota", action)
	}

	count, err := counter.CountByUser(ctx, user.ID)
	if err != nil {
		return domain.Internal(err, op, "Failed to count usage")
	}

	if !domain.CanPerform(tier, domain.UsageSnapshot{action: count}, action) {
		s.logger.Info("quota denied", "user_id", user.ID, "action", action, "count", count, "limit", limit)
		return domain.QuotaExceeded(op, action, count, limit)
	}
	return nil
}

func (s *entitlementService) Summary(ctx context.Context, user *domain.User) (*SubscriptionSummary, error) {
	usage, err := s.GetUsage(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	tier := user.EffectiveTier()
	def := domain.GetTier(tier)

	out := &SubscriptionSummary{
		Tier:       string(def.ID),
		TierName:   def.Name,
		Price:      def.Price,
		Subscribed: user.IsSubscribed(),
		Usage:      make(map[domain.ActionType]ActionUsage, len(def.Limits)),
	}
	for action, limit := range def.Limits {
		out.Usage[action] = ActionUsage{
			Used:       usage[action],
			Limit:      limit,
			Remaining:  domain.Remaining(tier, usage, action),
			Percentage: domain.UsagePercentage(tier, usage, action),
		}
	}
	return out, nil
}
