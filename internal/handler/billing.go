// This file implements the billing endpoints.
//
// Routes:
//   - POST /api/billing/checkout   -> HandleCheckout
//   - POST /api/billing/portal     -> HandlePortal
//   - POST /api/billing/cancel     -> HandleCancel
//   - POST /api/billing/reactivate -> HandleReactivate
//
// All routes require authentication. Subscription state changes driven by
// Stripe land through the webhook handler, not here.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/calebsouthern/attire/internal/auth"
	"github.com/calebsouthern/attire/internal/billing"
	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/service"
)

// BillingHandler handles subscription billing endpoints.
type BillingHandler struct {
	billing     billing.Service
	userService service.UserService
	baseURL     string // public base URL for checkout redirect targets
	logger      *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured; all endpoints
// then return 503.
func NewBillingHandler(billingService billing.Service, userService service.UserService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:     billingService,
		userService: userService,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/billing/checkout", h.HandleCheckout)
	mux.HandleFunc("POST /api/billing/portal", h.HandlePortal)
	mux.HandleFunc("POST /api/billing/cancel", h.HandleCancel)
	mux.HandleFunc("POST /api/billing/reactivate", h.HandleReactivate)
}

// notConfigured reports whether billing is disabled and responds if so.
func (h *BillingHandler) notConfigured(w http.ResponseWriter, r *http.Request) bool {
	if h.billing == nil {
		err := domain.Errorf(domain.EUNAVAILABLE, "", "Billing is not available")
		ErrorResponse(w, r, h.logger, err)
		return true
	}
	return false
}

// HandleCheckout starts a Stripe Checkout session for upgrading to a paid
// tier. The request names the tier; the handler resolves the price ID.
func (h *BillingHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if h.notConfigured(w, r) {
		return
	}

	var req struct {
		Tier string `json:"tier"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	priceID := h.billing.PriceIDForTier(domain.SubscriptionTier(req.Tier))
	if priceID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "Unknown subscription tier"))
		return
	}

	// Lazily create the Stripe customer on first checkout
	customerID := user.StripeCustomerID
	if customerID == "" {
		var err error
		customerID, err = h.billing.CreateCustomer(user.Email, user.Name)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Internal(err, "", "Failed to set up billing"))
			return
		}
		if err := h.userService.UpdateStripeCustomer(r.Context(), user.ID, customerID); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	successURL := h.baseURL + "/subscription?checkout=success"
	cancelURL := h.baseURL + "/subscription?checkout=canceled"

	url, err := h.billing.CreateCheckoutSession(customerID, priceID, successURL, cancelURL)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "", "Failed to start checkout"))
		return
	}

	h.logger.Info("checkout session created", "user_id", user.ID, "tier", req.Tier)
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// HandlePortal opens the Stripe customer portal for managing the
// subscription and payment methods.
func (h *BillingHandler) HandlePortal(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if h.notConfigured(w, r) {
		return
	}

	if user.StripeCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "No billing account yet"))
		return
	}

	url, err := h.billing.CreatePortalSession(user.StripeCustomerID, h.baseURL+"/subscription")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "", "Failed to open billing portal"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// HandleCancel schedules the subscription to end at the period boundary.
// Access continues until then.
func (h *BillingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if h.notConfigured(w, r) {
		return
	}

	if user.SubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "No active subscription to cancel"))
		return
	}

	if err := h.billing.CancelSubscription(user.SubscriptionID); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "", "Failed to cancel subscription"))
		return
	}

	h.logger.Info("subscription cancellation scheduled", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancellation_scheduled"})
}

// HandleReactivate removes a pending cancellation.
func (h *BillingHandler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if h.notConfigured(w, r) {
		return
	}

	if user.SubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "No subscription to reactivate"))
		return
	}

	if err := h.billing.ReactivateSubscription(user.SubscriptionID); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "", "Failed to reactivate subscription"))
		return
	}

	h.logger.Info("subscription reactivated", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "reactivated"})
}
