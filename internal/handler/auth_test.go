package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/auth"
	"github.com/calebsouthern/attire/internal/domain"
)

// authedRequestFor builds a request carrying the given user in its context.
func authedRequestFor(user *domain.User, method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.SetUser(req.Context(), user))
}

// stubUserService covers the auth flows the handler exercises.
type stubUserService struct {
	registerErr error
	loginErr    error
	changeErr   error

	user       *domain.User
	token      string
	loggedOut  string
	lastParams domain.RegisterParams
}

func (s *stubUserService) Register(_ context.Context, params domain.RegisterParams) (*domain.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.lastParams = params
	return s.user, nil
}

func (s *stubUserService) Login(_ context.Context, email, password string) (*domain.LoginResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &domain.LoginResult{User: s.user, Token: s.token}, nil
}

func (s *stubUserService) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return nil
}

func (s *stubUserService) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return s.user, nil
}

func (s *stubUserService) GetBySessionToken(context.Context, string) (*domain.User, error) {
	return s.user, nil
}

func (s *stubUserService) ChangePassword(context.Context, domain.PasswordChangeParams) error {
	return s.changeErr
}

func (s *stubUserService) DeleteExpiredSessions(context.Context) error { return nil }

func (s *stubUserService) UpdateStripeCustomer(context.Context, uuid.UUID, string) error {
	return nil
}

func (s *stubUserService) UpdateSubscription(context.Context, uuid.UUID, string, string, string) error {
	return nil
}

func (s *stubUserService) GetByStripeCustomerID(context.Context, string) (*domain.User, error) {
	return s.user, nil
}

func testUser() *domain.User {
	return &domain.User{
		ID:                 uuid.New(),
		Email:              "taylor@example.com",
		Name:               "Taylor",
		SubscriptionStatus: domain.SubscriptionStatusInactive,
		SubscriptionTier:   domain.SubscriptionTierFree,
		CreatedAt:          time.Now(),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

// =============================================================================
// Signup Tests
// =============================================================================

func TestHandleSignup_CreatesAccountAndSession(t *testing.T) {
	svc := &stubUserService{user: testUser(), token: "raw-session-token"}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/signup",
		strings.NewReader(`{"email":"taylor@example.com","password":"hunter2hunter2","name":"Taylor"}`))
	rec := httptest.NewRecorder()
	h.HandleSignup(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["token"] != "raw-session-token" {
		t.Errorf("expected session token in response, got %v", body["token"])
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatal("expected user object in response")
	}
	if user["email"] != "taylor@example.com" {
		t.Errorf("unexpected email: %v", user["email"])
	}
	if user["subscription_tier"] != "free" {
		t.Errorf("new accounts start on the free tier, got %v", user["subscription_tier"])
	}

	// Session cookie set alongside the token
	cookieSet := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value == "raw-session-token" {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Error("expected session cookie to be set")
	}
	if svc.lastParams.Email != "taylor@example.com" {
		t.Errorf("unexpected register params: %+v", svc.lastParams)
	}
}

func TestHandleSignup_ConflictReturns409(t *testing.T) {
	svc := &stubUserService{
		user:        testUser(),
		registerErr: domain.Conflict("", "An account with this email already exists"),
	}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/signup",
		strings.NewReader(`{"email":"taylor@example.com","password":"hunter2hunter2"}`))
	rec := httptest.NewRecorder()
	h.HandleSignup(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rec.Code)
	}
}

func TestHandleSignup_InvalidJSON(t *testing.T) {
	svc := &stubUserService{user: testUser()}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/signup", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.HandleSignup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

// =============================================================================
// Login Tests
// =============================================================================

func TestHandleLogin_Success(t *testing.T) {
	svc := &stubUserService{user: testUser(), token: "raw-session-token"}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"taylor@example.com","password":"hunter2hunter2"}`))
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["token"] != "raw-session-token" {
		t.Errorf("expected session token in response, got %v", body["token"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	svc := &stubUserService{
		user:     testUser(),
		loginErr: domain.Unauthorized("", "Invalid email or password"),
	}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"taylor@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	// No session cookie on failed login
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			t.Error("expected no session cookie on failed login")
		}
	}
}

// =============================================================================
// Logout Tests
// =============================================================================

func TestHandleLogout_InvalidatesSessionAndClearsCookie(t *testing.T) {
	svc := &stubUserService{user: testUser()}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "raw-session-token"})
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if svc.loggedOut != "raw-session-token" {
		t.Errorf("expected session to be invalidated, got %q", svc.loggedOut)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

func TestHandleLogout_WithoutSessionIsIdempotent(t *testing.T) {
	svc := &stubUserService{user: testUser()}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

// =============================================================================
// Me Tests
// =============================================================================

func TestHandleMe_RequiresAuth(t *testing.T) {
	svc := &stubUserService{}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestHandleMe_ReturnsCurrentUser(t *testing.T) {
	user := testUser()
	svc := &stubUserService{user: user}
	h := NewAuthHandler(svc, discardLogger(), false)

	rec := httptest.NewRecorder()
	h.HandleMe(rec, authedRequestFor(user, "GET", "/api/auth/me", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	got, _ := body["user"].(map[string]any)
	if got["id"] != user.ID.String() {
		t.Errorf("expected user %s, got %v", user.ID, got["id"])
	}
}

// =============================================================================
// Change Password Tests
// =============================================================================

func TestHandleChangePassword_ClearsSession(t *testing.T) {
	user := testUser()
	svc := &stubUserService{user: user}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := authedRequestFor(user, "PUT", "/api/auth/password",
		`{"current_password":"hunter2hunter2","new_password":"correct-horse-battery"}`)
	rec := httptest.NewRecorder()
	h.HandleChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// All sessions were invalidated, including this one
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared after password change")
	}
}

func TestHandleChangePassword_WrongCurrentPassword(t *testing.T) {
	user := testUser()
	svc := &stubUserService{
		user:      user,
		changeErr: domain.Unauthorized("", "Current password is incorrect"),
	}
	h := NewAuthHandler(svc, discardLogger(), false)

	req := authedRequestFor(user, "PUT", "/api/auth/password",
		`{"current_password":"wrong","new_password":"correct-horse-battery"}`)
	rec := httptest.NewRecorder()
	h.HandleChangePassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}
