// This file implements the authentication endpoints.
//
// Routes:
//   - POST /api/auth/signup   -> HandleSignup
//   - POST /api/auth/login    -> HandleLogin
//   - POST /api/auth/logout   -> HandleLogout
//   - GET  /api/auth/me       -> HandleMe
//   - PUT  /api/auth/password -> HandleChangePassword
//
// Sessions are delivered as an HttpOnly cookie; clients that cannot use
// cookies may send the token as a bearer token instead.
package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/calebsouthern/attire/internal/auth"
	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/service"
)

const (
	// SessionCookieName is the cookie that carries the session token.
	SessionCookieName = "attire_session"

	// SessionCookieMaxAge matches service.SessionDuration.
	SessionCookieMaxAge = 7 * 24 * 60 * 60
)

// SetSessionCookie sets the session cookie on the response.
//
// HttpOnly blocks JavaScript access; SameSite Lax prevents cross-site
// submission of state-changing requests while allowing normal navigation.
func SetSessionCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionTokenFromRequest extracts the session token from the cookie or the
// Authorization header. Returns "" when neither is present.
func SessionTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	const prefix = "Bearer "
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, prefix) {
		return authz[len(prefix):]
	}
	return ""
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	userService service.UserService
	logger      *slog.Logger
	isSecure    bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService service.UserService, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
		isSecure:    isSecure,
	}
}

// RegisterPublicRoutes registers the routes that require no session.
// limitLogin and limitSignup wrap the handlers with rate limiting; pass
// nil to register without limits (tests).
func (h *AuthHandler) RegisterPublicRoutes(mux *http.ServeMux, limitLogin, limitSignup func(http.Handler) http.Handler) {
	login := http.Handler(http.HandlerFunc(h.HandleLogin))
	signup := http.Handler(http.HandlerFunc(h.HandleSignup))
	if limitLogin != nil {
		login = limitLogin(login)
	}
	if limitSignup != nil {
		signup = limitSignup(signup)
	}
	mux.Handle("POST /api/auth/signup", signup)
	mux.Handle("POST /api/auth/login", login)
}

// RegisterProtectedRoutes registers the routes that require a session.
func (h *AuthHandler) RegisterProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", h.HandleLogout)
	mux.HandleFunc("GET /api/auth/me", h.HandleMe)
	mux.HandleFunc("PUT /api/auth/password", h.HandleChangePassword)
}

// userResponse is the public representation of a user.
type userResponse struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name,omitempty"`
	SubscriptionTier   string `json:"subscription_tier"`
	SubscriptionStatus string `json:"subscription_status"`
	CreatedAt          string `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                 u.ID.String(),
		Email:              u.Email,
		Name:               u.Name,
		SubscriptionTier:   string(u.EffectiveTier()),
		SubscriptionStatus: string(u.SubscriptionStatus),
		CreatedAt:          u.CreatedAt.Format(time.RFC3339),
	}
}

// HandleSignup creates a new account and logs the user in.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Log the new user straight in
	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// The account exists; the client can log in normally
		h.logger.Warn("post-signup login failed", "user_id", user.ID, "error", err)
		respondJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(user)})
		return
	}

	SetSessionCookie(w, result.Token, h.isSecure)
	respondJSON(w, http.StatusCreated, map[string]any{
		"user":  toUserResponse(result.User),
		"token": result.Token,
	})
}

// HandleLogin authenticates a user and starts a session.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	SetSessionCookie(w, result.Token, h.isSecure)
	respondJSON(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(result.User),
		"token": result.Token,
	})
}

// HandleLogout invalidates the current session. Idempotent.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := SessionTokenFromRequest(r); token != "" {
		if err := h.userService.Logout(r.Context(), token); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
	}

	ClearSessionCookie(w, h.isSecure)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

// HandleChangePassword changes the user's password and invalidates all
// existing sessions, including this one.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	err := h.userService.ChangePassword(r.Context(), domain.PasswordChangeParams{
		UserID:          user.ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	ClearSessionCookie(w, h.isSecure)
	respondJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
