// This file defines calendar outfit plans: a dated combination of wardrobe
// items with an occasion and optional notes.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutfitPlan is a planned outfit for a specific calendar date.
type OutfitPlan struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PlanDate  time.Time // date only
	Title     string
	Occasion  string
	ItemIDs   []uuid.UUID // wardrobe items making up the outfit
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateOutfitPlanParams contains validated parameters for plan creation.
type CreateOutfitPlanParams struct {
	UserID   uuid.UUID
	PlanDate time.Time
	Title    string
	Occasion string
	ItemIDs  []uuid.UUID
	Notes    string
}

// Validate checks required fields.
func (p *CreateOutfitPlanParams) Validate() error {
	const op = "planner.create"
	if strings.TrimSpace(p.Title) == "" {
		return NewValidationError(op, "title", "Title is required")
	}
	if p.PlanDate.IsZero() {
		return NewValidationError(op, "plan_date", "A date is required")
	}
	return nil
}

// UpdateOutfitPlanParams contains parameters for updating an existing plan.
type UpdateOutfitPlanParams struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	PlanDate time.Time
	Title    string
	Occasion string
	ItemIDs  []uuid.UUID
	Notes    string
}
