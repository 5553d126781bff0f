package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/calebsouthern/attire/internal/domain"
)

// PlannerRepo persists calendar outfit plans.
type PlannerRepo struct {
	db *sql.DB
}

// NewPlannerRepo creates a PlannerRepo backed by db.
func NewPlannerRepo(db *sql.DB) *PlannerRepo {
	return &PlannerRepo{db: db}
}

const planColumns = `id, user_id, plan_date, title, COALESCE(occasion, ''), item_ids,
	COALESCE(notes, ''), created_at, updated_at`

func scanOutfitPlan(row interface{ Scan(...any) error }) (*domain.OutfitPlan, error) {
	var (
		plan    domain.OutfitPlan
		itemIDs pqtype.NullRawMessage
	)
	err := row.Scan(
		&plan.ID, &plan.UserID, &plan.PlanDate, &plan.Title, &plan.Occasion,
		&itemIDs, &plan.Notes, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if plan.ItemIDs, err = unmarshalUUIDs(itemIDs); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create inserts an outfit plan.
func (r *PlannerRepo) Create(ctx context.Context, p domain.CreateOutfitPlanParams) (*domain.OutfitPlan, error) {
	itemIDs, err := marshalUUIDs(p.ItemIDs)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO outfit_plans (user_id, plan_date, title, occasion, item_ids, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''))
		RETURNING ` + planColumns

	return scanOutfitPlan(r.db.QueryRowContext(ctx, query,
		p.UserID, p.PlanDate, p.Title, p.Occasion, itemIDs, p.Notes))
}

// GetByID fetches one plan scoped to its owner.
func (r *PlannerRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.OutfitPlan, error) {
	query := `SELECT ` + planColumns + ` FROM outfit_plans WHERE id = $1 AND user_id = $2`
	return scanOutfitPlan(r.db.QueryRowContext(ctx, query, id, userID))
}

// ListByUser returns a user's plans within [from, to], soonest first.
// Zero times leave that bound open.
func (r *PlannerRepo) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.OutfitPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM outfit_plans
		WHERE user_id = $1
		  AND ($2::date IS NULL OR plan_date >= $2)
		  AND ($3::date IS NULL OR plan_date <= $3)
		ORDER BY plan_date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, nullDate(from), nullDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.OutfitPlan
	for rows.Next() {
		plan, err := scanOutfitPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// CountByUser returns the number of plans a user has. Used for the
// cumulative quota check.
func (r *PlannerRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outfit_plans WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// Update replaces a plan's editable fields.
func (r *PlannerRepo) Update(ctx context.Context, p domain.UpdateOutfitPlanParams) (*domain.OutfitPlan, error) {
	itemIDs, err := marshalUUIDs(p.ItemIDs)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE outfit_plans
		SET plan_date = $3, title = $4, occasion = NULLIF($5, ''),
		    item_ids = $6, notes = NULLIF($7, ''), updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + planColumns

	return scanOutfitPlan(r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.PlanDate, p.Title, p.Occasion, itemIDs, p.Notes))
}

// Delete removes a plan scoped to its owner.
func (r *PlannerRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM outfit_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullDate(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
