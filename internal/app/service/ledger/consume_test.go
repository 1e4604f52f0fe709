package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/types"
)

func TestConsumptionMutation(t *testing.T) {
	acct := &models.Account{FreeUsed: 3, FreeLimit: 10, CreditBalance: 7}

	tests := []struct {
		name   string
		source types.EntitlementSource
		cost   int64
		want   map[string]any
	}{
		{name: "free increments counter", source: types.EntitlementSourceFree, cost: 1, want: map[string]any{"free_used": int64(4)}},
		{name: "credit decrements balance", source: types.EntitlementSourceCredit, cost: 2, want: map[string]any{"credit_balance": int64(5)}},
		{name: "subscription changes nothing", source: types.EntitlementSourceSubscription, cost: 1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := consumptionMutation(acct, tt.source, tt.cost)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsumptionEntryKind(t *testing.T) {
	assert.Equal(t, types.LedgerEntryKindConsumptionFree, consumptionEntryKind(types.EntitlementSourceFree))
	assert.Equal(t, types.LedgerEntryKindConsumptionCredit, consumptionEntryKind(types.EntitlementSourceCredit))
}

func TestWithRetry_BoundedAttempts(t *testing.T) {
	s := &Service{log: zap.NewNop().Sugar(), now: time.Now}

	attempts := 0
	err := s.withRetry(context.Background(), func() error {
		attempts++
		return ErrConcurrentModification
	})
	require.ErrorIs(t, err, ErrConcurrentModification)
	assert.Equal(t, maxRetries, attempts)
}

func TestWithRetry_StopsOnOtherErrors(t *testing.T) {
	s := &Service{log: zap.NewNop().Sugar(), now: time.Now}

	attempts := 0
	err := s.withRetry(context.Background(), func() error {
		attempts++
		return ErrAccountNotFound
	})
	require.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_SucceedsAfterConflict(t *testing.T) {
	s := &Service{log: zap.NewNop().Sugar(), now: time.Now}

	attempts := 0
	err := s.withRetry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return ErrConcurrentModification
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestWithRetry_RespectsContextCancellation(t *testing.T) {
	s := &Service{log: zap.NewNop().Sugar(), now: time.Now}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.withRetry(ctx, func() error {
		return ErrConcurrentModification
	})
	require.True(t, errors.Is(err, context.Canceled))
}
