// This file implements the style feed service: read-only trending items
// shown to every user.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/repository"
)

// FeedItem is a style item prepared for display.
type FeedItem struct {
	*domain.StyleItem
	DisplayCategory string // title-cased category label
	DisplayBrand    string // title-cased brand label
}

// FeedService serves the trending style feed.
type FeedService interface {
	Trending(ctx context.Context, filter domain.FeedFilter) ([]*FeedItem, error)
}

type feedService struct {
	repo   *repository.FeedRepo
	titler cases.Caser
	logger *slog.Logger
}

// NewFeedService creates a FeedService.
func NewFeedService(repo *repository.FeedRepo, logger *slog.Logger) FeedService {
	return &feedService{
		repo:   repo,
		titler: cases.Title(language.English),
		logger: logger,
	}
}

func (s *feedService) Trending(ctx context.Context, filter domain.FeedFilter) ([]*FeedItem, error) {
	const op = "FeedService.Trending"

	if filter.Category != "" && !domain.ValidItemCategory(filter.Category) {
		return nil, domain.Invalid(op, "Unknown category")
	}

	items, err := s.repo.ListTrending(ctx, filter)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load the style feed")
	}

	out := make([]*FeedItem, 0, len(items))
	for _, item := range items {
		out = append(out, &FeedItem{
			StyleItem:       item,
			DisplayCategory: s.titler.String(string(item.Category)),
			DisplayBrand:    s.titler.String(item.Brand),
		})
	}
	return out, nil
}
