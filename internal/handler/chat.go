// This file implements the AI stylist chat endpoint.
//
// Route:
//   - POST /api/chat -> HandleSend
package handler

import (
	"log/slog"
	"net/http"

	"github.com/calebsouthern/attire/internal/auth"
	"github.com/calebsouthern/attire/internal/service"
)

// ChatHandler handles stylist chat requests.
type ChatHandler struct {
	chat   service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger,
	}
}

// RegisterRoutes registers chat routes on the provided mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.HandleSend)
}

// HandleSend processes one chat message. Quota denials come back as 429
// and provider outages as 503.
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	reply, err := h.chat.Send(r.Context(), user, req.Message)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"response": reply.Response,
		"model":    reply.Model,
	})
}
