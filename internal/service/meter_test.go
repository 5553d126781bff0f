package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebsouthern/attire/internal/domain"
)

// fakeUsageStore is an in-memory UsageStore with the same atomicity
// guarantees as the Postgres implementation.
type fakeUsageStore struct {
	mu     sync.Mutex
	counts map[string]int

	getCalls       int
	incrementCalls int
	condCalls      int
	decrementCalls int
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{counts: make(map[string]int)}
}

func usageKey(userID uuid.UUID, action domain.ActionType, day time.Time) string {
	return fmt.Sprintf("%s/%s/%s", userID, action, domain.UsageDay(day))
}

func (f *fakeUsageStore) GetCount(_ context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.counts[usageKey(userID, action, day)], nil
}

func (f *fakeUsageStore) Increment(_ context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrementCalls++
	key := usageKey(userID, action, day)
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeUsageStore) IncrementIfBelow(_ context.Context, userID uuid.UUID, action domain.ActionType, day time.Time, limit int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.condCalls++
	key := usageKey(userID, action, day)
	if f.counts[key] >= limit {
		return f.counts[key], false, nil
	}
	f.counts[key]++
	return f.counts[key], true, nil
}

func (f *fakeUsageStore) Decrement(_ context.Context, userID uuid.UUID, action domain.ActionType, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decrementCalls++
	key := usageKey(userID, action, day)
	if f.counts[key] > 0 {
		f.counts[key]--
	}
	return nil
}

func (f *fakeUsageStore) count(userID uuid.UUID, action domain.ActionType, day time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[usageKey(userID, action, day)]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMeter_DeniesAtLimit(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	userID := uuid.New()
	ctx := context.Background()

	// Exhaust the free tier's 5 daily chats
	for i := 0; i < 5; i++ {
		res, err := meter.CheckAndReserve(ctx, userID, domain.SubscriptionTierFree, domain.ActionAIChatsPerDay)
		require.NoError(t, err)
		assert.True(t, res.Reserved)
		assert.Equal(t, i+1, res.Count)
	}

	// The sixth is denied with a quota error, and the counter stays put
	_, err := meter.CheckAndReserve(ctx, userID, domain.SubscriptionTierFree, domain.ActionAIChatsPerDay)
	require.Error(t, err)
	assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
	assert.Equal(t, 5, store.count(userID, domain.ActionAIChatsPerDay, time.Now()))
}

func TestMeter_UnlimitedSkipsCounter(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	userID := uuid.New()

	res, err := meter.CheckAndReserve(context.Background(), userID, domain.SubscriptionTierPremium, domain.ActionAIChatsPerDay)
	require.NoError(t, err)
	assert.False(t, res.Reserved)

	// Unlimited checks never touch the store
	assert.Equal(t, 0, store.getCalls)
	assert.Equal(t, 0, store.condCalls)
}

func TestMeter_UnknownTierUsesFreeLimits(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := meter.CheckAndReserve(ctx, userID, domain.SubscriptionTier("enterprise"), domain.ActionAIChatsPerDay)
		require.NoError(t, err)
	}
	_, err := meter.CheckAndReserve(ctx, userID, domain.SubscriptionTier("enterprise"), domain.ActionAIChatsPerDay)
	assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
}

func TestMeter_ReleaseReturnsUnit(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	userID := uuid.New()
	ctx := context.Background()

	res, err := meter.CheckAndReserve(ctx, userID, domain.SubscriptionTierFree, domain.ActionAIChatsPerDay)
	require.NoError(t, err)
	require.True(t, res.Reserved)
	assert.Equal(t, 1, store.count(userID, domain.ActionAIChatsPerDay, time.Now()))

	require.NoError(t, meter.ReleaseUsage(ctx, userID, domain.ActionAIChatsPerDay))
	assert.Equal(t, 0, store.count(userID, domain.ActionAIChatsPerDay, time.Now()))

	// The released unit is usable again
	res, err = meter.CheckAndReserve(ctx, userID, domain.SubscriptionTierFree, domain.ActionAIChatsPerDay)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
}

func TestMeter_ConcurrentReservesNeverExceedLimit(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	userID := uuid.New()
	ctx := context.Background()

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
		denied  int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := meter.CheckAndReserve(ctx, userID, domain.SubscriptionTierFree, domain.ActionAIChatsPerDay)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
				denied++
			} else {
				allowed++
			}
		}()
	}
	wg.Wait()

	// Exactly the limit is granted; the counter never overshoots
	assert.Equal(t, 5, allowed)
	assert.Equal(t, workers-5, denied)
	assert.Equal(t, 5, store.count(userID, domain.ActionAIChatsPerDay, time.Now()))
}

func TestMeter_CommitRecordsWithoutLimit(t *testing.T) {
	store := newFakeUsageStore()
	meter := NewMeterService(store, testLogger())
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, meter.CommitUsage(ctx, userID, domain.ActionAIChatsPerDay))
	}
	count, err := meter.TodayCount(ctx, userID, domain.ActionAIChatsPerDay)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}
