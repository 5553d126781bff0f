package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/domain"
)

// UsageRepo persists daily usage counters. All methods operate on the
// (user_id, action_type, usage_date) primary key; dates are truncated to
// the calendar day by Postgres' DATE column.
type UsageRepo struct {
	db *sql.DB
}

// NewUsageRepo creates a UsageRepo backed by db.
func NewUsageRepo(db *sql.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

// GetCount returns the counter for one day, or 0 when no row exists.
func (r *UsageRepo) GetCount(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count FROM usage_tracking
		WHERE user_id = $1 AND action_type = $2 AND usage_date = $3`,
		userID, action, day).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

// Increment adds one to the day's counter, creating the row if needed,
// and returns the new count.
func (r *UsageRepo) Increment(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO usage_tracking (user_id, action_type, usage_date, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, action_type, usage_date)
		DO UPDATE SET count = usage_tracking.count + 1, updated_at = now()
		RETURNING count`,
		userID, action, day).Scan(&count)
	return count, err
}

// IncrementIfBelow atomically adds one to the day's counter only while it
// is below limit. It returns the count after the statement and whether the
// increment was applied. Concurrent callers serialize on the row, so at
// most limit increments ever succeed for one day.
func (r *UsageRepo) IncrementIfBelow(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time, limit int) (count int, applied bool, err error) {
	// The WHERE clause on DO UPDATE makes the conditional check and the
	// increment a single atomic statement. When the row is at the limit
	// the update is skipped and nothing is returned.
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO usage_tracking (user_id, action_type, usage_date, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, action_type, usage_date)
		DO UPDATE SET count = usage_tracking.count + 1, updated_at = now()
		WHERE usage_tracking.count < $4
		RETURNING count`,
		userID, action, day, limit).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		// Denied: fetch the standing count for the error message.
		count, err = r.GetCount(ctx, userID, action, day)
		return count, false, err
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// Decrement releases one previously reserved unit, flooring at zero.
func (r *UsageRepo) Decrement(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE usage_tracking
		SET count = GREATEST(count - 1, 0), updated_at = now()
		WHERE user_id = $1 AND action_type = $2 AND usage_date = $3`,
		userID, action, day)
	return err
}

// GetRecord returns the full usage row for one day.
func (r *UsageRepo) GetRecord(ctx context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) (*domain.UsageRecord, error) {
	var rec domain.UsageRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, action_type, usage_date, count, created_at, updated_at
		FROM usage_tracking
		WHERE user_id = $1 AND action_type = $2 AND usage_date = $3`,
		userID, action, day).Scan(
		&rec.ID, &rec.UserID, &rec.ActionType, &rec.UsageDate,
		&rec.Count, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
