// This file implements the outfit planner endpoints.
//
// Routes:
//   - POST   /api/plans      -> HandleCreate
//   - GET    /api/plans      -> HandleList
//   - GET    /api/plans/{id} -> HandleGet
//   - PUT    /api/plans/{id} -> HandleUpdate
//   - DELETE /api/plans/{id} -> HandleDelete
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

// planDateFormat is the wire format for plan dates.
const planDateFormat = "2006-01-02"

// PlannerHandler handles outfit plan endpoints.
type PlannerHandler struct {
	planner service.PlannerService
	logger  *slog.Logger
}

// NewPlannerHandler creates a new PlannerHandler.
func NewPlannerHandler(planner service.PlannerService, logger *slog.Logger) *PlannerHandler {
	return &PlannerHandler{
		planner: planner,
		logger:  logger,
	}
}

// RegisterRoutes registers planner routes on the provided mux.
func (h *PlannerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/plans", h.HandleCreate)
	mux.HandleFunc("GET /api/plans", h.HandleList)
	mux.HandleFunc("GET /api/plans/{id}", h.HandleGet)
	mux.HandleFunc("PUT /api/plans/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /api/plans/{id}", h.HandleDelete)
}

// planResponse is the public representation of an outfit plan.
type planResponse struct {
	ID        string   `json:"id"`
	PlanDate  string   `json:"plan_date"`
	Title     string   `json:"title"`
	Occasion  string   `json:"occasion,omitempty"`
	ItemIDs   []string `json:"item_ids"`
	Notes     string   `json:"notes,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func toPlanResponse(p *domain.OutfitPlan) planResponse {
	itemIDs := make([]string, 0, len(p.ItemIDs))
	for _, id := range p.ItemIDs {
		itemIDs = append(itemIDs, id.String())
	}
	return planResponse{
		ID:        p.ID.String(),
		PlanDate:  p.PlanDate.Format(planDateFormat),
		Title:     p.Title,
		Occasion:  p.Occasion,
		ItemIDs:   itemIDs,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// planRequest is the request body for create and update.
type planRequest struct {
	PlanDate string   `json:"plan_date"`
	Title    string   `json:"title"`
	Occasion string   `json:"occasion"`
	ItemIDs  []string `json:"item_ids"`
	Notes    string   `json:"notes"`
}

func (req *planRequest) parse() (time.Time, []uuid.UUID, error) {
	var planDate time.Time
	if req.PlanDate != "" {
		var err error
		planDate, err = time.Parse(planDateFormat, req.PlanDate)
		if err != nil {
			return time.Time{}, nil, domain.Invalid("", "plan_date must be YYYY-MM-DD")
		}
	}
	itemIDs := make([]uuid.UUID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return time.Time{}, nil, domain.Invalid("", "item_ids contains an invalid ID")
		}
		itemIDs = append(itemIDs, id)
	}
	return planDate, itemIDs, nil
}

// HandleCreate adds an outfit plan. Returns 429 when the tier's plan limit
// is reached.
func (h *PlannerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	planDate, itemIDs, err := req.parse()
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	plan, err := h.planner.Create(r.Context(), user, domain.CreateOutfitPlanParams{
		PlanDate: planDate,
		Title:    req.Title,
		Occasion: req.Occasion,
		ItemIDs:  itemIDs,
		Notes:    req.Notes,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toPlanResponse(plan))
}

// HandleList returns plans, optionally narrowed with ?from= and ?to= dates.
func (h *PlannerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var from, to time.Time
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		var err error
		if from, err = time.Parse(planDateFormat, raw); err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("", "from must be YYYY-MM-DD"))
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		var err error
		if to, err = time.Parse(planDateFormat, raw); err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("", "to must be YYYY-MM-DD"))
			return
		}
	}

	plans, err := h.planner.List(r.Context(), user, from, to)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]planResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, toPlanResponse(plan))
	}
	respondJSON(w, http.StatusOK, map[string]any{"plans": out})
}

// HandleGet returns one outfit plan.
func (h *PlannerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	plan, err := h.planner.Get(r.Context(), user, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toPlanResponse(plan))
}

// HandleUpdate replaces an outfit plan's fields.
func (h *PlannerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	planDate, itemIDs, err := req.parse()
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	plan, err := h.planner.Update(r.Context(), user, domain.UpdateOutfitPlanParams{
		ID:       id,
		PlanDate: planDate,
		Title:    req.Title,
		Occasion: req.Occasion,
		ItemIDs:  itemIDs,
		Notes:    req.Notes,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toPlanResponse(plan))
}

// HandleDelete removes an outfit plan and frees its quota.
func (h *PlannerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.planner.Delete(r.Context(), user, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
