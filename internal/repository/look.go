package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/calebsouthern/attire/internal/domain"
)

// LookRepo persists saved looks.
type LookRepo struct {
	db *sql.DB
}

// NewLookRepo creates a LookRepo backed by db.
func NewLookRepo(db *sql.DB) *LookRepo {
	return &LookRepo{db: db}
}

const lookColumns = `id, user_id, name, item_ids, tags, created_at`

func scanSavedLook(row interface{ Scan(...any) error }) (*domain.SavedLook, error) {
	var (
		look    domain.SavedLook
		itemIDs pqtype.NullRawMessage
		tags    pqtype.NullRawMessage
	)
	err := row.Scan(&look.ID, &look.UserID, &look.Name, &itemIDs, &tags, &look.CreatedAt)
	if err != nil {
		return nil, err
	}
	if look.ItemIDs, err = unmarshalUUIDs(itemIDs); err != nil {
		return nil, err
	}
	if look.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, err
	}
	return &look, nil
}

// Create inserts a saved look.
func (r *LookRepo) Create(ctx context.Context, p domain.CreateSavedLookParams) (*domain.SavedLook, error) {
	itemIDs, err := marshalUUIDs(p.ItemIDs)
	if err != nil {
		return nil, err
	}
	tags, err := marshalStrings(p.Tags)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO saved_looks (user_id, name, item_ids, tags)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + lookColumns

	return scanSavedLook(r.db.QueryRowContext(ctx, query, p.UserID, p.Name, itemIDs, tags))
}

// ListByUser returns a user's saved looks, newest first.
func (r *LookRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.SavedLook, error) {
	query := `SELECT ` + lookColumns + ` FROM saved_looks WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var looks []*domain.SavedLook
	for rows.Next() {
		look, err := scanSavedLook(rows)
		if err != nil {
			return nil, err
		}
		looks = append(looks, look)
	}
	return looks, rows.Err()
}

// CountByUser returns the number of looks a user has saved. Used for the
// cumulative quota check.
func (r *LookRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_looks WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// Delete removes a look scoped to its owner.
func (r *LookRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_looks WHERE id = $1 AND user_id = $2`, id, userID)
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
