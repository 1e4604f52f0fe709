package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/types"
)

// newTestService opens a throwaway on-disk store. Immediate transaction
// locking serializes concurrent writers the way the production CAS does,
// so the race tests below exercise real commit ordering.
func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_pragma=busy_timeout(10000)&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.LedgerTransaction{}, &models.ConsumptionRecord{}))

	return NewService(&config.Config{FreeTierLimit: 10}, db, zap.NewNop().Sugar())
}

func setAccountFields(t *testing.T, s *Service, accountID string, updates map[string]any) {
	t.Helper()
	require.NoError(t, s.db.Model(&models.Account{}).Where("id = ?", accountID).Updates(updates).Error)
}

func TestGrantCredits_RedeliveredEventGrantsOnce(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acct, err := s.EnsureAccount(ctx, "user_1")
	require.NoError(t, err)

	granted, err := s.GrantCredits(ctx, acct.ID, 100, "Purchased 100 credits", "pi_1")
	require.NoError(t, err)
	require.True(t, granted)

	// Redelivery of the same payment reference must not change any balance.
	granted, err = s.GrantCredits(ctx, acct.ID, 100, "Purchased 100 credits", "pi_1")
	require.NoError(t, err)
	assert.False(t, granted)

	fresh, err := s.GetAccountByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), fresh.CreditBalance)
	assert.Equal(t, int64(100), fresh.CreditLifetimeTotal)

	var purchases int64
	require.NoError(t, s.db.Model(&models.LedgerTransaction{}).
		Where("stripe_payment_ref = ?", "pi_1").Count(&purchases).Error)
	assert.Equal(t, int64(1), purchases)
}

func TestConsume_FreeQuotaBoundary(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acct, err := s.EnsureAccount(ctx, "user_1")
	require.NoError(t, err)
	setAccountFields(t, s, acct.ID, map[string]any{"free_used": 9})

	res, err := s.Consume(ctx, "user_1", 1)
	require.NoError(t, err)
	assert.Equal(t, types.EntitlementSourceFree, res.Source)
	assert.Equal(t, int64(0), res.RemainingFree)

	// Denial is stable across repeated attempts and changes nothing.
	for i := 0; i < 3; i++ {
		_, err = s.Consume(ctx, "user_1", 1)
		require.ErrorIs(t, err, ErrNoEntitlement)
	}

	fresh, err := s.GetAccountByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), fresh.FreeUsed)
	assert.Equal(t, int64(0), fresh.CreditBalance)
}

func TestConsume_ConcurrentSingleCredit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acct, err := s.EnsureAccount(ctx, "user_1")
	require.NoError(t, err)
	setAccountFields(t, s, acct.ID, map[string]any{"free_used": 10, "credit_balance": 1})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Consume(ctx, "user_1", 1)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrNoEntitlement)
		}
	}
	assert.Equal(t, 1, successes)

	fresh, err := s.GetAccountByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.CreditBalance)

	var consumptions int64
	require.NoError(t, s.db.Model(&models.ConsumptionRecord{}).Count(&consumptions).Error)
	assert.Equal(t, int64(1), consumptions)
}

func TestConsume_SubscriptionLeavesBalancesUntouched(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acct, err := s.EnsureAccount(ctx, "user_1")
	require.NoError(t, err)
	setAccountFields(t, s, acct.ID, map[string]any{
		"subscription_status":     types.SubscriptionStatusActive,
		"subscription_period_end": time.Now().Add(24 * time.Hour),
		"credit_balance":          5,
	})

	res, err := s.Consume(ctx, "user_1", 1)
	require.NoError(t, err)
	assert.Equal(t, types.EntitlementSourceSubscription, res.Source)
	require.NotNil(t, res.Record)
	assert.Nil(t, res.Record.LedgerTransactionID)

	fresh, err := s.GetAccountByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.FreeUsed)
	assert.Equal(t, int64(5), fresh.CreditBalance)

	var rows int64
	require.NoError(t, s.db.Model(&models.LedgerTransaction{}).Count(&rows).Error)
	assert.Equal(t, int64(0), rows)
}

func TestCasUpdate_StaleSnapshotConflicts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acct, err := s.EnsureAccount(ctx, "user_1")
	require.NoError(t, err)

	stale, err := s.GetAccountByUserID(ctx, "user_1")
	require.NoError(t, err)

	// A competing writer commits first and bumps the version.
	granted, err := s.GrantCredits(ctx, acct.ID, 50, "Purchased 50 credits", "pi_2")
	require.NoError(t, err)
	require.True(t, granted)

	err = casUpdate(s.db, stale, map[string]any{"credit_balance": int64(999)})
	require.ErrorIs(t, err, ErrConcurrentModification)

	fresh, err := s.GetAccountByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), fresh.CreditBalance)
}

func TestAdjustCredits_ValidatesAndApplies(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acct, err := s.EnsureAccount(ctx, "user_1")
	require.NoError(t, err)

	granted, err := s.GrantCredits(ctx, acct.ID, 10, "Purchased 10 credits", "pi_3")
	require.NoError(t, err)
	require.True(t, granted)

	require.NoError(t, s.AdjustCredits(ctx, acct.ID, -4, types.LedgerEntryKindAdjustment, "support correction"))

	err = s.AdjustCredits(ctx, acct.ID, 0, types.LedgerEntryKindAdjustment, "noop")
	require.ErrorIs(t, err, ErrInvalidAdjustment)

	err = s.AdjustCredits(ctx, acct.ID, -100, types.LedgerEntryKindAdjustment, "overdraw")
	require.ErrorIs(t, err, ErrInvalidAdjustment)

	fresh, err := s.GetAccountByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), fresh.CreditBalance)
	assert.Equal(t, int64(10), fresh.CreditLifetimeTotal)
}

func TestApplySubscriptionState_OutOfOrderEventsConverge(t *testing.T) {
	ctx := context.Background()

	paidAt := time.Now().Add(-time.Hour)
	canceledAt := time.Now()
	periodEnd := time.Now().Add(30 * 24 * time.Hour)

	activate := SubscriptionPatch{
		Status:       lo.ToPtr(types.SubscriptionStatusActive),
		Tier:         lo.ToPtr(types.SubscriptionTierPro),
		PeriodEnd:    &periodEnd,
		SetPeriodEnd: true,
	}
	cancel := SubscriptionPatch{
		Status:             lo.ToPtr(types.SubscriptionStatusCanceled),
		Tier:               lo.ToPtr(types.SubscriptionTierFree),
		SetPeriodEnd:       true,
		SetSubscriptionRef: true,
	}

	t.Run("in-order delivery", func(t *testing.T) {
		s := newTestService(t)
		acct, err := s.EnsureAccount(ctx, "user_1")
		require.NoError(t, err)

		applied, err := s.ApplySubscriptionState(ctx, acct.ID, paidAt, activate)
		require.NoError(t, err)
		require.True(t, applied)

		applied, err = s.ApplySubscriptionState(ctx, acct.ID, canceledAt, cancel)
		require.NoError(t, err)
		require.True(t, applied)

		fresh, err := s.GetAccountByUserID(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, types.SubscriptionStatusCanceled, fresh.SubscriptionStatus)
		assert.Nil(t, fresh.SubscriptionPeriodEnd)
	})

	t.Run("late activation after cancellation is discarded", func(t *testing.T) {
		s := newTestService(t)
		acct, err := s.EnsureAccount(ctx, "user_1")
		require.NoError(t, err)

		applied, err := s.ApplySubscriptionState(ctx, acct.ID, canceledAt, cancel)
		require.NoError(t, err)
		require.True(t, applied)

		applied, err = s.ApplySubscriptionState(ctx, acct.ID, paidAt, activate)
		require.NoError(t, err)
		assert.False(t, applied)

		fresh, err := s.GetAccountByUserID(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, types.SubscriptionStatusCanceled, fresh.SubscriptionStatus)
		assert.Equal(t, types.SubscriptionTierFree, fresh.SubscriptionTier)
	})
}
