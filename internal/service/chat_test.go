package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebsouthern/attire/internal/ai/mock"
	"github.com/calebsouthern/attire/internal/domain"
)

func freeUser() *domain.User {
	return &domain.User{
		ID:               uuid.New(),
		Email:            "test@example.com",
		SubscriptionTier: domain.SubscriptionTierFree,
	}
}

func premiumUser() *domain.User {
	return &domain.User{
		ID:                 uuid.New(),
		Email:              "elite@example.com",
		SubscriptionTier:   domain.SubscriptionTierPremium,
		SubscriptionStatus: domain.SubscriptionStatusActive,
	}
}

func TestChat_SuccessConsumesOneUnit(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	provider := mock.New(testLogger())
	chat := NewChatService(provider, meter, nil, testLogger())
	user := freeUser()

	reply, err := chat.Send(context.Background(), user, "What goes with black jeans?")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Response)
	assert.Equal(t, 1, provider.ChatCalls)
	assert.Equal(t, 1, store.count(user.ID, domain.ActionAIChatsPerDay, time.Now()))
}

func TestChat_ProviderFailureReleasesQuota(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	provider := mock.New(testLogger())
	provider.ChatError = errors.New("upstream timeout")
	chat := NewChatService(provider, meter, nil, testLogger())
	user := freeUser()

	_, err := chat.Send(context.Background(), user, "Help me pick a jacket")
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))

	// The failed call must not cost a chat
	assert.Equal(t, 0, store.count(user.ID, domain.ActionAIChatsPerDay, time.Now()))

	// And the user can try again
	provider.ChatError = nil
	_, err = chat.Send(context.Background(), user, "Help me pick a jacket")
	require.NoError(t, err)
	assert.Equal(t, 1, store.count(user.ID, domain.ActionAIChatsPerDay, time.Now()))
}

func TestChat_QuotaDeniedSkipsProvider(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	provider := mock.New(testLogger())
	chat := NewChatService(provider, meter, nil, testLogger())
	user := freeUser()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := chat.Send(ctx, user, "outfit idea?")
		require.NoError(t, err)
	}
	require.Equal(t, 5, provider.ChatCalls)

	_, err := chat.Send(ctx, user, "one more?")
	require.Error(t, err)
	assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))

	// Denied requests never reach the provider
	assert.Equal(t, 5, provider.ChatCalls)
	assert.Equal(t, 5, store.count(user.ID, domain.ActionAIChatsPerDay, time.Now()))
}

func TestChat_UnlimitedTierRecordsUsageAfterSuccess(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	provider := mock.New(testLogger())
	chat := NewChatService(provider, meter, nil, testLogger())
	user := premiumUser()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := chat.Send(ctx, user, "style me")
		require.NoError(t, err)
	}

	// Well past the free limit, no denials, and usage history kept
	assert.Equal(t, 8, provider.ChatCalls)
	assert.Equal(t, 8, store.count(user.ID, domain.ActionAIChatsPerDay, time.Now()))
	assert.Equal(t, 0, store.condCalls)
}

func TestChat_UnlimitedTierProviderFailureRecordsNothing(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	provider := mock.New(testLogger())
	provider.ChatError = errors.New("boom")
	chat := NewChatService(provider, meter, nil, testLogger())
	user := premiumUser()

	_, err := chat.Send(context.Background(), user, "style me")
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Equal(t, 0, store.count(user.ID, domain.ActionAIChatsPerDay, time.Now()))
	assert.Equal(t, 0, store.decrementCalls)
}

func TestChat_ValidatesMessage(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	provider := mock.New(testLogger())
	chat := NewChatService(provider, meter, nil, testLogger())
	user := freeUser()
	ctx := context.Background()

	testCases := []struct {
		name    string
		message string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
		{"too long", strings.Repeat("a", MaxChatMessageLength+1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := chat.Send(ctx, user, tc.message)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}

	// Invalid messages consume nothing and never reach the provider
	assert.Equal(t, 0, provider.ChatCalls)
	assert.Equal(t, 0, store.count(user.ID, domain.ActionAIChatsPerDay, time.Now()))
}

type fakeSummarizer struct {
	notes string
	err   error
	calls int
}

func (f *fakeSummarizer) SummarizeForPrompt(_ context.Context, _ *domain.User) (string, error) {
	f.calls++
	return f.notes, f.err
}

func TestChat_WardrobeContextIsBestEffort(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	provider := mock.New(testLogger())
	summarizer := &fakeSummarizer{err: errors.New("db down")}
	chat := NewChatService(provider, meter, summarizer, testLogger())
	user := freeUser()

	// A summarizer failure does not fail the chat
	_, err := chat.Send(context.Background(), user, "what should I wear today?")
	require.NoError(t, err)
	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, 1, provider.ChatCalls)
}
