package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/calebsouthern/attire/internal/domain"
)

// WardrobeRepo persists wardrobe items.
type WardrobeRepo struct {
	db *sql.DB
}

// NewWardrobeRepo creates a WardrobeRepo backed by db.
func NewWardrobeRepo(db *sql.DB) *WardrobeRepo {
	return &WardrobeRepo{db: db}
}

const wardrobeColumns = `id, user_id, name, category, COALESCE(color, ''), COALESCE(brand, ''),
	COALESCE(size, ''), COALESCE(season, ''), tags, COALESCE(photo_key, ''),
	COALESCE(thumb_key, ''), created_at, updated_at`

func scanWardrobeItem(row interface{ Scan(...any) error }) (*domain.WardrobeItem, error) {
	var (
		item domain.WardrobeItem
		tags pqtype.NullRawMessage
	)
	err := row.Scan(
		&item.ID, &item.UserID, &item.Name, &item.Category, &item.Color,
		&item.Brand, &item.Size, &item.Season, &tags, &item.PhotoKey,
		&item.ThumbKey, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if item.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a wardrobe item.
func (r *WardrobeRepo) Create(ctx context.Context, p domain.CreateWardrobeItemParams) (*domain.WardrobeItem, error) {
	tags, err := marshalStrings(p.Tags)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO wardrobe_items (user_id, name, category, color, brand, size, season, tags)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING ` + wardrobeColumns

	return scanWardrobeItem(r.db.QueryRowContext(ctx, query,
		p.UserID, p.Name, p.Category, p.Color, p.Brand, p.Size, p.Season, tags))
}

// GetByID fetches one item scoped to its owner.
func (r *WardrobeRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.WardrobeItem, error) {
	query := `SELECT ` + wardrobeColumns + ` FROM wardrobe_items WHERE id = $1 AND user_id = $2`
	return scanWardrobeItem(r.db.QueryRowContext(ctx, query, id, userID))
}

// ListByUser returns all items for a user, newest first. An empty category
// means all categories.
func (r *WardrobeRepo) ListByUser(ctx context.Context, userID uuid.UUID, category domain.ItemCategory) ([]*domain.WardrobeItem, error) {
	query := `
		SELECT ` + wardrobeColumns + `
		FROM wardrobe_items
		WHERE user_id = $1 AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.WardrobeItem
	for rows.Next() {
		item, err := scanWardrobeItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountByUser returns the number of wardrobe items a user owns. Used for
// the cumulative quota check.
func (r *WardrobeRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wardrobe_items WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// Update replaces an item's editable fields.
func (r *WardrobeRepo) Update(ctx context.Context, p domain.UpdateWardrobeItemParams) (*domain.WardrobeItem, error) {
	tags, err := marshalStrings(p.Tags)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE wardrobe_items
		SET name = $3, category = $4, color = NULLIF($5, ''), brand = NULLIF($6, ''),
		    size = NULLIF($7, ''), season = NULLIF($8, ''), tags = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + wardrobeColumns

	return scanWardrobeItem(r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.Name, p.Category, p.Color, p.Brand, p.Size, p.Season, tags))
}

// SetPhotoKeys records the storage keys after a photo upload.
func (r *WardrobeRepo) SetPhotoKeys(ctx context.Context, userID, id uuid.UUID, photoKey, thumbKey string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE wardrobe_items
		SET photo_key = $3, thumb_key = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		id, userID, photoKey, thumbKey)
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

// Delete removes an item scoped to its owner.
func (r *WardrobeRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM wardrobe_items WHERE id = $1 AND user_id = $2`, id, userID)
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
