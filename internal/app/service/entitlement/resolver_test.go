package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/types"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestResolve_Ordering(t *testing.T) {
	now := time.Now()
	future := ptrTime(now.Add(24 * time.Hour))
	past := ptrTime(now.Add(-24 * time.Hour))

	tests := []struct {
		name       string
		account    *models.Account
		cost       int64
		wantOK     bool
		wantSource types.EntitlementSource
		wantReason types.DenyReason
	}{
		{
			name: "active subscription wins over free and credits",
			account: &models.Account{
				SubscriptionStatus: types.SubscriptionStatusActive, SubscriptionPeriodEnd: future,
				FreeUsed: 0, FreeLimit: 10, CreditBalance: 100,
			},
			cost: 1, wantOK: true, wantSource: types.EntitlementSourceSubscription,
		},
		{
			name: "expired subscription falls through to free",
			account: &models.Account{
				SubscriptionStatus: types.SubscriptionStatusActive, SubscriptionPeriodEnd: past,
				FreeUsed: 0, FreeLimit: 10, CreditBalance: 100,
			},
			cost: 1, wantOK: true, wantSource: types.EntitlementSourceFree,
		},
		{
			name: "past_due subscription is not an entitlement",
			account: &models.Account{
				SubscriptionStatus: types.SubscriptionStatusPastDue, SubscriptionPeriodEnd: future,
				FreeUsed: 10, FreeLimit: 10, CreditBalance: 5,
			},
			cost: 1, wantOK: true, wantSource: types.EntitlementSourceCredit,
		},
		{
			name:    "free quota before credits",
			account: &models.Account{FreeUsed: 9, FreeLimit: 10, CreditBalance: 100},
			cost:    1, wantOK: true, wantSource: types.EntitlementSourceFree,
		},
		{
			name:    "free exhausted draws credits",
			account: &models.Account{FreeUsed: 10, FreeLimit: 10, CreditBalance: 1},
			cost:    1, wantOK: true, wantSource: types.EntitlementSourceCredit,
		},
		{
			name:    "cost larger than remaining free quota skips to credits",
			account: &models.Account{FreeUsed: 9, FreeLimit: 10, CreditBalance: 5},
			cost:    2, wantOK: true, wantSource: types.EntitlementSourceCredit,
		},
		{
			name:    "nothing left, never purchased: upgrade prompt",
			account: &models.Account{FreeUsed: 10, FreeLimit: 10, CreditBalance: 0},
			cost:    1, wantOK: false, wantReason: types.DenyReasonUpgrade,
		},
		{
			name:    "nothing left, purchased before: buy credits prompt",
			account: &models.Account{FreeUsed: 10, FreeLimit: 10, CreditBalance: 0, CreditLifetimeTotal: 100},
			cost:    1, wantOK: false, wantReason: types.DenyReasonBuyCredits,
		},
		{
			name:    "insufficient credits for cost denies",
			account: &models.Account{FreeUsed: 10, FreeLimit: 10, CreditBalance: 1, CreditLifetimeTotal: 50},
			cost:    2, wantOK: false, wantReason: types.DenyReasonBuyCredits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.account, tt.cost, now)
			assert.Equal(t, tt.wantOK, got.OK)
			if tt.wantOK {
				assert.Equal(t, tt.wantSource, got.Source)
			} else {
				assert.Equal(t, tt.wantReason, got.Reason)
			}
		})
	}
}

func TestResolve_IsPure(t *testing.T) {
	now := time.Now()
	acct := &models.Account{FreeUsed: 3, FreeLimit: 10, CreditBalance: 7, CreditLifetimeTotal: 7}
	before := *acct
	for i := 0; i < 5; i++ {
		_ = Resolve(acct, 1, now)
	}
	assert.Equal(t, before, *acct)
}

func TestResolve_IdempotentDenial(t *testing.T) {
	now := time.Now()
	acct := &models.Account{FreeUsed: 10, FreeLimit: 10, CreditBalance: 0}
	for i := 0; i < 10; i++ {
		got := Resolve(acct, 1, now)
		assert.False(t, got.OK)
		assert.Equal(t, types.DenyReasonUpgrade, got.Reason)
	}
}
