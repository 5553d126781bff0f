// Package ai defines the provider interface for the AI stylist chat.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StylistProvider generates stylist chat replies.
type StylistProvider interface {
	// Chat sends one user message and returns the assistant reply.
	Chat(ctx context.Context, params ChatParams) (*ChatResult, error)
}

// ChatParams contains parameters for a stylist chat turn.
type ChatParams struct {
	Message       string    // The user's message
	WardrobeNotes string    // Optional summary of the user's wardrobe for context
	UserID        uuid.UUID // User ID for logging
}

// ChatResult contains the assistant reply and usage accounting.
type ChatResult struct {
	Response string    // The assistant's reply text
	Usage    UsageInfo // Token usage information
}

// UsageInfo tracks API usage for monitoring.
type UsageInfo struct {
	Model            string        // AI model used
	PromptTokens     int           // Tokens in the request
	CompletionTokens int           // Tokens in the response
	Duration         time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers.
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIInvalidRequest indicates the request was rejected as malformed
	EAIInvalidRequest = errors.New("invalid ai request")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
