package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/calebsouthern/attire/internal/domain"
)

// =============================================================================
// Error Response Tests - Security Focus
// =============================================================================

func TestValidationErrorResponse_DoesNotExposeOperationName(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Create a validation error with an internal operation name
	ve := domain.NewValidationError("UserService.Register", "email", "Email is required")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ValidationErrorResponse(w, r, logger, ve)
	})

	req := httptest.NewRequest("POST", "/api/auth/signup", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	// Should NOT contain internal operation names
	if strings.Contains(body, "UserService") {
		t.Errorf("response exposes internal operation name: %s", body)
	}
	if strings.Contains(body, "Register") {
		t.Errorf("response exposes internal method name: %s", body)
	}

	// Should contain the field error
	if !strings.Contains(body, "email") {
		t.Errorf("response should contain field name: %s", body)
	}
	if !strings.Contains(body, "Email is required") {
		t.Errorf("response should contain field message: %s", body)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestErrorResponse_InternalErrorHidesDetails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Create an internal error wrapping a sensitive error
	sensitiveErr := &mockDatabaseError{message: "connection to 192.168.1.100:5432 refused"}
	internalErr := domain.Internal(sensitiveErr, "DB.Connect", "Failed to connect")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, internalErr)
	})

	req := httptest.NewRequest("GET", "/api/subscription", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	// Should NOT contain sensitive details
	if strings.Contains(body, "192.168") {
		t.Errorf("response exposes IP address: %s", body)
	}
	if strings.Contains(body, "5432") {
		t.Errorf("response exposes port number: %s", body)
	}
	if strings.Contains(body, "DB.Connect") {
		t.Errorf("response exposes internal operation: %s", body)
	}

	// Should contain generic message
	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic error, got: %s", body)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestErrorResponse_UnwrappedErrorReturnsGeneric(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Create a raw error (not a domain.Error)
	rawErr := &mockDatabaseError{message: "FATAL: password authentication failed for user \"postgres\""}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, rawErr)
	})

	req := httptest.NewRequest("GET", "/api/wardrobe", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	// Should NOT contain the raw error
	if strings.Contains(body, "FATAL") {
		t.Errorf("response exposes raw error: %s", body)
	}
	if strings.Contains(body, "password") {
		t.Errorf("response exposes password-related error: %s", body)
	}
	if strings.Contains(body, "postgres") {
		t.Errorf("response exposes database user: %s", body)
	}

	// Should return generic message
	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic message, got: %s", body)
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	testCases := []struct {
		code   string
		status int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EQUOTA, http.StatusTooManyRequests},
		{domain.EUNAVAILABLE, http.StatusServiceUnavailable},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"bogus", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			if got := ErrorCodeToHTTPStatus(tc.code); got != tc.status {
				t.Errorf("code %q: expected %d, got %d", tc.code, tc.status, got)
			}
		})
	}
}

func TestErrorResponse_QuotaExceededIs429(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	quotaErr := domain.QuotaExceeded("MeterService.CheckAndReserve", domain.ActionAIChatsPerDay, 5, 5)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, quotaErr)
	})

	req := httptest.NewRequest("POST", "/api/chat", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "MeterService") {
		t.Errorf("response exposes internal operation: %s", body)
	}
	if !strings.Contains(body, "quota_exceeded") {
		t.Errorf("response should carry the quota_exceeded code: %s", body)
	}
	// The message should nudge an upgrade, not a retry
	if !strings.Contains(body, "Upgrade") {
		t.Errorf("quota message should mention upgrading: %s", body)
	}
}

// mockDatabaseError simulates a database error for testing
type mockDatabaseError struct {
	message string
}

func (e *mockDatabaseError) Error() string {
	return e.message
}
