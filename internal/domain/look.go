// This file defines saved looks: named item combinations a user keeps for
// reuse, independent of any calendar date.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SavedLook is a reusable named outfit.
type SavedLook struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	ItemIDs   []uuid.UUID
	Tags      []string
	CreatedAt time.Time
}

// CreateSavedLookParams contains validated parameters for saving a look.
type CreateSavedLookParams struct {
	UserID  uuid.UUID
	Name    string
	ItemIDs []uuid.UUID
	Tags    []string
}

// Validate checks required fields.
func (p *CreateSavedLookParams) Validate() error {
	const op = "looks.create"
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError(op, "name", "Name is required")
	}
	if len(p.ItemIDs) == 0 {
		return NewValidationError(op, "item_ids", "A look needs at least one item")
	}
	return nil
}
