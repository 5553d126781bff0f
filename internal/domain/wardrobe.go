// This file defines wardrobe item types. Items are the user's clothing
// catalog; photos are stored through the storage layer and referenced by key.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemCategory classifies a wardrobe item.
type ItemCategory string

const (
	CategoryTops        ItemCategory = "tops"
	CategoryBottoms     ItemCategory = "bottoms"
	CategoryDresses     ItemCategory = "dresses"
	CategoryOuterwear   ItemCategory = "outerwear"
	CategoryShoes       ItemCategory = "shoes"
	CategoryAccessories ItemCategory = "accessories"
)

// ValidItemCategory reports whether c is a recognized category.
func ValidItemCategory(c ItemCategory) bool {
	switch c {
	case CategoryTops, CategoryBottoms, CategoryDresses, CategoryOuterwear, CategoryShoes, CategoryAccessories:
		return true
	}
	return false
}

// Season tags an item with when it's worn.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
	SeasonWinter Season = "winter"
	SeasonAll    Season = "all"
)

// ValidSeason reports whether s is a recognized season.
func ValidSeason(s Season) bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter, SeasonAll:
		return true
	}
	return false
}

// WardrobeItem is one piece of clothing in a user's wardrobe.
type WardrobeItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Category  ItemCategory
	Color     string
	Brand     string
	Size      string
	Season    Season
	Tags      []string
	PhotoKey  string // storage key of the original photo, empty if none
	ThumbKey  string // storage key of the generated thumbnail
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateWardrobeItemParams contains validated parameters for item creation.
type CreateWardrobeItemParams struct {
	UserID   uuid.UUID
	Name     string
	Category ItemCategory
	Color    string
	Brand    string
	Size     string
	Season   Season
	Tags     []string
}

// Validate checks required fields and enum values.
func (p *CreateWardrobeItemParams) Validate() error {
	const op = "wardrobe.create"
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError(op, "name", "Name is required")
	}
	if !ValidItemCategory(p.Category) {
		return NewValidationError(op, "category", "Choose a valid category")
	}
	if p.Season != "" && !ValidSeason(p.Season) {
		return NewValidationError(op, "season", "Choose a valid season")
	}
	return nil
}

// UpdateWardrobeItemParams contains validated parameters for item update.
// Zero-value fields keep their current values except Tags, which replaces.
type UpdateWardrobeItemParams struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Category ItemCategory
	Color    string
	Brand    string
	Size     string
	Season   Season
	Tags     []string
}
