// This file implements the style feed endpoint.
//
// Route:
//   - GET /api/feed -> HandleTrending
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/calebsouthern/attire/internal/auth"
	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/service"
)

// FeedHandler serves the trending style feed.
type FeedHandler struct {
	feed   service.FeedService
	logger *slog.Logger
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feed service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feed:   feed,
		logger: logger,
	}
}

// RegisterRoutes registers feed routes on the provided mux.
func (h *FeedHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/feed", h.HandleTrending)
}

// feedItemResponse is the public representation of a feed entry.
type feedItemResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Brand         string `json:"brand,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	ProductURL    string `json:"product_url,omitempty"`
	TrendingScore int    `json:"trending_score"`
}

// HandleTrending returns trending style items, optionally filtered with
// ?category= and bounded with ?limit=.
func (h *FeedHandler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	q := r.URL.Query()
	filter := domain.FeedFilter{
		Category: domain.ItemCategory(q.Get("category")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			ErrorResponse(w, r, h.logger, domain.Invalid("", "limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}

	items, err := h.feed.Trending(r.Context(), filter)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]feedItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, feedItemResponse{
			ID:            item.ID.String(),
			Title:         item.Title,
			Category:      item.DisplayCategory,
			Brand:         item.DisplayBrand,
			ImageURL:      item.ImageURL,
			ProductURL:    item.ProductURL,
			TrendingScore: item.TrendingScore,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": out})
}
