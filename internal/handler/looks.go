// This file implements the saved looks endpoints.
//
// Routes:
//   - POST   /api/looks      -> HandleCreate
//   - GET    /api/looks      -> HandleList
//   - DELETE /api/looks/{id} -> HandleDelete
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/auth"
	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/service"
)

// LookHandler handles saved look endpoints.
type LookHandler struct {
	looks  service.LookService
	logger *slog.Logger
}

// NewLookHandler creates a new LookHandler.
func NewLookHandler(looks service.LookService, logger *slog.Logger) *LookHandler {
	return &LookHandler{
		looks:  looks,
		logger: logger,
	}
}

// RegisterRoutes registers look routes on the provided mux.
func (h *LookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/looks", h.HandleCreate)
	mux.HandleFunc("GET /api/looks", h.HandleList)
	mux.HandleFunc("DELETE /api/looks/{id}", h.HandleDelete)
}

// lookResponse is the public representation of a saved look.
type lookResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ItemIDs   []string `json:"item_ids"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
}

func toLookResponse(l *domain.SavedLook) lookResponse {
	itemIDs := make([]string, 0, len(l.ItemIDs))
	for _, id := range l.ItemIDs {
		itemIDs = append(itemIDs, id.String())
	}
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return lookResponse{
		ID:        l.ID.String(),
		Name:      l.Name,
		ItemIDs:   itemIDs,
		Tags:      tags,
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	}
}

// HandleCreate saves a look. Returns 429 when the tier's saved look limit
// is reached.
func (h *LookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req struct {
		Name    string   `json:"name"`
		ItemIDs []string `json:"item_ids"`
		Tags    []string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	itemIDs := make([]uuid.UUID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("", "item_ids contains an invalid ID"))
			return
		}
		itemIDs = append(itemIDs, id)
	}

	look, err := h.looks.Create(r.Context(), user, domain.CreateSavedLookParams{
		Name:    req.Name,
		ItemIDs: itemIDs,
		Tags:    req.Tags,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toLookResponse(look))
}

// HandleList returns the user's saved looks.
func (h *LookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	looks, err := h.looks.List(r.Context(), user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]lookResponse, 0, len(looks))
	for _, look := range looks {
		out = append(out, toLookResponse(look))
	}
	respondJSON(w, http.StatusOK, map[string]any{"looks": out})
}

// HandleDelete removes a saved look and frees its quota.
func (h *LookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if err := h.looks.Delete(r.Context(), user, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
