// This file implements the AI stylist chat service. The flow per message:
//
//  1. Reserve one ai_chats_per_day unit via the meter (atomic check+increment)
//  2. Call the stylist provider
//  3. On provider failure, release the reserved unit
//
// Unlimited tiers skip the reserve; their usage is committed after a
// successful reply so the history still reflects real activity.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/calebsouthern/attire/internal/ai"
	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/metrics"
)

// MaxChatMessageLength bounds incoming chat messages.
const MaxChatMessageLength = 4000

// ChatReply is the service-level result of one chat turn.
type ChatReply struct {
	Response string
	Model    string
}

// ChatService handles stylist chat messages.
type ChatService interface {
	// Send processes one chat message for the user. Returns domain.EQUOTA
	// when the daily chat limit is reached and domain.EUNAVAILABLE when
	// the provider fails.
	Send(ctx context.Context, user *domain.User, message string) (*ChatReply, error)
}

// WardrobeSummarizer provides a short wardrobe description for prompt
// context. Optional; a nil summarizer means no wardrobe context.
type WardrobeSummarizer interface {
	SummarizeForPrompt(ctx context.Context, user *domain.User) (string, error)
}

type chatService struct {
	provider ai.StylistProvider
	meter    MeterService
	wardrobe WardrobeSummarizer
	logger   *slog.Logger
}

// NewChatService creates a ChatService. wardrobe may be nil.
func NewChatService(provider ai.StylistProvider, meter MeterService, wardrobe WardrobeSummarizer, logger *slog.Logger) ChatService {
	return &chatService{
		provider: provider,
		meter:    meter,
		wardrobe: wardrobe,
		logger:   logger,
	}
}

func (s *chatService) Send(ctx context.Context, user *domain.User, message string) (*ChatReply, error) {
	const op = "ChatService.Send"

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.Invalid(op, "Message is required")
	}
	if len(message) > MaxChatMessageLength {
		return nil, domain.Invalid(op, "Message is too long")
	}

	tier := user.EffectiveTier()

	// Reserve before calling out. For limited tiers this is the atomic
	// check+increment; two racing requests for the last unit cannot both
	// pass.
	res, err := s.meter.CheckAndReserve(ctx, user.ID, tier, domain.ActionAIChatsPerDay)
	if err != nil {
		if domain.ErrorCode(err) == domain.EQUOTA {
			metrics.ChatMessagesTotal.WithLabelValues("quota_denied").Inc()
		}
		return nil, err
	}

	params := ai.ChatParams{
		Message: message,
		UserID:  user.ID,
	}
	if s.wardrobe != nil {
		notes, err := s.wardrobe.SummarizeForPrompt(ctx, user)
		if err != nil {
			// Context is best-effort; chat proceeds without it.
			s.logger.Warn("failed to build wardrobe context", "user_id", user.ID, "error", err)
		} else {
			params.WardrobeNotes = notes
		}
	}

	result, err := s.provider.Chat(ctx, params)
	if err != nil {
		metrics.AIAPICalls.WithLabelValues("error").Inc()
		metrics.ChatMessagesTotal.WithLabelValues("provider_error").Inc()
		if res.Reserved {
			// The failed call must not consume quota.
			if relErr := s.meter.ReleaseUsage(ctx, user.ID, domain.ActionAIChatsPerDay); relErr != nil {
				s.logger.Error("failed to release chat usage", "user_id", user.ID, "error", relErr)
			}
		}
		s.logger.Error("stylist provider call failed", "user_id", user.ID, "error", err)
		return nil, domain.Unavailable(err, op, "The stylist is unavailable right now. Please try again.")
	}

	metrics.AIAPICalls.WithLabelValues("ok").Inc()
	metrics.ChatMessagesTotal.WithLabelValues("ok").Inc()

	// Unlimited tiers still record usage, after the fact.
	if !res.Reserved {
		if err := s.meter.CommitUsage(ctx, user.ID, domain.ActionAIChatsPerDay); err != nil {
			s.logger.Warn("failed to commit chat usage", "user_id", user.ID, "error", err)
		}
	}

	return &ChatReply{
		Response: result.Response,
		Model:    result.Usage.Model,
	}, nil
}
