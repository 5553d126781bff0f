// This file implements the subscription summary endpoint.
//
// Route:
//   - GET /api/subscription -> HandleSummary
package handler

import (
	"log/slog"
	"net/http"

	"github.com/calebsouthern/attire/internal/auth"
	"github.com/calebsouthern/attire/internal/service"
)

// SubscriptionHandler serves the tier and usage summary.
type SubscriptionHandler struct {
	entitlement service.EntitlementService
	logger      *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(entitlement service.EntitlementService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		entitlement: entitlement,
		logger:      logger,
	}
}

// RegisterRoutes registers subscription routes on the provided mux.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/subscription", h.HandleSummary)
}

// HandleSummary returns the user's tier, limits, and current usage.
func (h *SubscriptionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	summary, err := h.entitlement.Summary(r.Context(), user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
