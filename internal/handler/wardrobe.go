// This file implements the wardrobe endpoints.
//
// Routes:
//   - POST   /api/wardrobe            -> HandleCreate
//   - GET    /api/wardrobe            -> HandleList
//   - GET    /api/wardrobe/{id}       -> HandleGet
//   - PUT    /api/wardrobe/{id}       -> HandleUpdate
//   - DELETE /api/wardrobe/{id}       -> HandleDelete
//   - POST   /api/wardrobe/{id}/photo -> HandleUploadPhoto
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

// WardrobeHandler handles wardrobe item endpoints.
type WardrobeHandler struct {
	wardrobe service.WardrobeService
	logger   *slog.Logger
}

// NewWardrobeHandler creates a new WardrobeHandler.
func NewWardrobeHandler(wardrobe service.WardrobeService, logger *slog.Logger) *WardrobeHandler {
	return &WardrobeHandler{
		wardrobe: wardrobe,
		logger:   logger,
	}
}

// RegisterRoutes registers wardrobe routes on the provided mux.
func (h *WardrobeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/wardrobe", h.HandleCreate)
	mux.HandleFunc("GET /api/wardrobe", h.HandleList)
	mux.HandleFunc("GET /api/wardrobe/{id}", h.HandleGet)
	mux.HandleFunc("PUT /api/wardrobe/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /api/wardrobe/{id}", h.HandleDelete)
	mux.HandleFunc("POST /api/wardrobe/{id}/photo", h.HandleUploadPhoto)
}

// itemResponse is the public representation of a wardrobe item.
type itemResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Color     string   `json:"color,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Size      string   `json:"size,omitempty"`
	Season    string   `json:"season,omitempty"`
	Tags      []string `json:"tags"`
	PhotoURL  string   `json:"photo_url,omitempty"`
	ThumbURL  string   `json:"thumb_url,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func (h *WardrobeHandler) toItemResponse(r *http.Request, item *domain.WardrobeItem) itemResponse {
	out := itemResponse{
		ID:        item.ID.String(),
		Name:      item.Name,
		Category:  string(item.Category),
		Color:     item.Color,
		Brand:     item.Brand,
		Size:      item.Size,
		Season:    string(item.Season),
		Tags:      item.Tags,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.Format(time.RFC3339),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}

	// URL resolution is best-effort; an item without a reachable photo is
	// still usable.
	if item.PhotoKey != "" {
		if url, err := h.wardrobe.PhotoURL(r.Context(), item.PhotoKey); err == nil {
			out.PhotoURL = url
		} else {
			h.logger.Warn("failed to resolve photo URL", "key", item.PhotoKey, "error", err)
		}
	}
	if item.ThumbKey != "" {
		if url, err := h.wardrobe.PhotoURL(r.Context(), item.ThumbKey); err == nil {
			out.ThumbURL = url
		}
	}
	return out
}

// itemRequest is the request body for create and update.
type itemRequest struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Color    string   `json:"color"`
	Brand    string   `json:"brand"`
	Size     string   `json:"size"`
	Season   string   `json:"season"`
	Tags     []string `json:"tags"`
}

// HandleCreate adds a wardrobe item. Returns 429 when the tier's wardrobe
// limit is reached.
func (h *WardrobeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	item, err := h.wardrobe.Create(r.Context(), user, domain.CreateWardrobeItemParams{
		Name:     req.Name,
		Category: domain.ItemCategory(req.Category),
		Color:    req.Color,
		Brand:    req.Brand,
		Size:     req.Size,
		Season:   domain.Season(req.Season),
		Tags:     req.Tags,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, h.toItemResponse(r, item))
}

// HandleList returns the user's wardrobe, optionally filtered by category.
func (h *WardrobeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	category := domain.ItemCategory(r.URL.Query().Get("category"))

	items, err := h.wardrobe.List(r.Context(), user, category)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, h.toItemResponse(r, item))
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": out})
}

// HandleGet returns one wardrobe item.
func (h *WardrobeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	item, err := h.wardrobe.Get(r.Context(), user, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toItemResponse(r, item))
}

// HandleUpdate replaces a wardrobe item's fields.
func (h *WardrobeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	item, err := h.wardrobe.Update(r.Context(), user, domain.UpdateWardrobeItemParams{
		ID:       id,
		Name:     req.Name,
		Category: domain.ItemCategory(req.Category),
		Color:    req.Color,
		Brand:    req.Brand,
		Size:     req.Size,
		Season:   domain.Season(req.Season),
		Tags:     req.Tags,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toItemResponse(r, item))
}

// HandleDelete removes a wardrobe item and frees its quota.
func (h *WardrobeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.wardrobe.Delete(r.Context(), user, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadPhoto accepts a multipart photo upload for an item.
func (h *WardrobeHandler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(service.MaxPhotoSize); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "Expected a multipart photo upload"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "Missing photo file field"))
		return
	}
	defer file.Close()

	item, err := h.wardrobe.UploadPhoto(r.Context(), user, id, header.Filename, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toItemResponse(r, item))
}
