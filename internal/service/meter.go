// This file implements the server-side usage meter. The meter is the
// authority for daily counters; client-side checks are advisory only.
//
// Reservation protocol for metered downstream calls (AI chat):
//
//	res, err := meter.CheckAndReserve(ctx, userID, tier, action)  // atomic check+increment
//	out, err := provider.Call(...)
//	if err != nil && res.Reserved { meter.ReleaseUsage(...) }     // failed call costs nothing
//
// The reserve is a single conditional upsert in Postgres, so two requests
// racing for the last unit cannot both pass: the row serializes them and
// exactly one increment applies.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/metrics"
)

// UsageStore is the persistence the meter needs. *repository.UsageRepo
// satisfies it; tests substitute an in-memory implementation.
type UsageStore interface {
	GetCount(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) (int, error)
	Increment(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) (int, error)
	IncrementIfBelow(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time, limit int) (count int, applied bool, err error)
	Decrement(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) error
}

// Reservation records the outcome of a successful CheckAndReserve.
type Reservation struct {
	// Reserved is true when a counter unit was consumed and must be
	// released if the downstream call fails. Unlimited tiers pass the
	// check without reserving.
	Reserved bool

	// Count is the counter value after the reserve (0 for unlimited).
	Count int
}

// MeterService meters daily action usage against tier limits.
type MeterService interface {
	// CheckAndReserve atomically checks the daily limit for the action and
	// consumes one unit. Returns domain.EQUOTA when the user is at their
	// limit. Unlimited tiers are allowed without touching the counter.
	CheckAndReserve(ctx context.Context, userID uuid.UUID, tier domain.SubscriptionTier, action domain.ActionType) (*Reservation, error)

	// CommitUsage records one completed action without a limit check.
	// Used to keep usage history for unlimited tiers.
	CommitUsage(ctx context.Context, userID uuid.UUID, action domain.ActionType) error

	// ReleaseUsage returns one previously reserved unit, so a failed
	// downstream call does not consume quota. Best-effort: an error here
	// is logged by callers, not surfaced to the user.
	ReleaseUsage(ctx context.Context, userID uuid.UUID, action domain.ActionType) error

	// TodayCount returns the current counter for the action today.
	TodayCount(ctx context.Context, userID uuid.UUID, action domain.ActionType) (int, error)
}

type meterService struct {
	store  UsageStore
	logger *slog.Logger
	now    func() time.Time
}

// NewMeterService creates a MeterService backed by store.
func NewMeterService(store UsageStore, logger *slog.Logger) MeterService {
	return &meterService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (s *meterService) CheckAndReserve(ctx context.Context, userID uuid.UUID, tier domain.SubscriptionTier, action domain.ActionType) (*Reservation, error) {
	const op = "MeterService.CheckAndReserve"

	limit := domain.GetTier(tier).Limits[action]
	if limit == domain.Unlimited {
		metrics.QuotaChecksTotal.WithLabelValues(string(action), "allowed").Inc()
		return &Reservation{Reserved: false}, nil
	}

	day := s.today()
	count, applied, err := s.store.IncrementIfBelow(ctx, userID, action, day, limit)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to check usage")
	}
	if !applied {
		metrics.QuotaChecksTotal.WithLabelValues(string(action), "denied").Inc()
		s.logger.Info("quota denied", "user_id", userID, "action", action, "count", count, "limit", limit)
		return nil, domain.QuotaExceeded(op, action, count, limit)
	}

	metrics.QuotaChecksTotal.WithLabelValues(string(action), "allowed").Inc()
	return &Reservation{Reserved: true, Count: count}, nil
}

func (s *meterService) CommitUsage(ctx context.Context, userID uuid.UUID, action domain.ActionType) error {
	const op = "MeterService.CommitUsage"

	if _, err := s.store.Increment(ctx, userID, action, s.today()); err != nil {
		return domain.Internal(err, op, "Failed to record usage")
	}
	return nil
}

func (s *meterService) ReleaseUsage(ctx context.Context, userID uuid.UUID, action domain.ActionType) error {
	const op = "MeterService.ReleaseUsage"

	if err := s.store.Decrement(ctx, userID, action, s.today()); err != nil {
		return domain.Internal(err, op, "Failed to release usage")
	}
	metrics.QuotaReleasesTotal.WithLabelValues(string(action)).Inc()
	return nil
}

func (s *meterService) TodayCount(ctx context.Context, userID uuid.UUID, action domain.ActionType) (int, error) {
	const op = "MeterService.TodayCount"

	count, err := s.store.GetCount(ctx, userID, action, s.today())
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to read usage")
	}
	return count, nil
}

// today truncates the clock to the calendar day used as the counter key.
func (s *meterService) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
