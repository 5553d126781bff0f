package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/calebsouthern/attire/internal/ai"
)

// Provider is a mock stylist provider for testing and development
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	ChatResponse *ai.ChatResult
	ChatError    error

	// Call tracking for testing
	ChatCalls int
}

// New creates a new mock stylist provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// Chat returns a canned stylist reply
func (p *Provider) Chat(ctx context.Context, params ai.ChatParams) (*ai.ChatResult, error) {
	p.ChatCalls++

	// If a custom response or error is set, use it
	if p.ChatError != nil {
		return nil, p.ChatError
	}
	if p.ChatResponse != nil {
		return p.ChatResponse, nil
	}

	// Default canned response
	return &ai.ChatResult{
		Response: "For a casual weekend look, try pairing your dark wash jeans with a white tee " +
			"and layering a light jacket over it. White sneakers keep it clean and comfortable. " +
			"If you want to dress it up slightly, swap the sneakers for loafers.",
		Usage: ai.UsageInfo{
			Model:            "mock-stylist-v1",
			PromptTokens:     120,
			CompletionTokens: 65,
			Duration:         150 * time.Millisecond,
		},
	}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.ChatCalls = 0
	p.ChatResponse = nil
	p.ChatError = nil
}
