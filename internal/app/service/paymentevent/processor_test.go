package paymentevent

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/types"
)

func testProcessor() *Processor {
	return &Processor{cfg: &config.Config{
		Catalog:       config.DefaultCatalog(),
		FreeTierLimit: 10,
	}}
}

func TestResolveTier(t *testing.T) {
	p := testProcessor()

	tests := []struct {
		name string
		data *InvoicePaymentData
		want types.SubscriptionTier
	}{
		{name: "tier metadata wins", data: &InvoicePaymentData{TierMeta: "enterprise", PlanID: "pro"}, want: types.SubscriptionTierEnterprise},
		{name: "invalid tier falls back to plan", data: &InvoicePaymentData{TierMeta: "gold", PlanID: "enterprise"}, want: types.SubscriptionTierEnterprise},
		{name: "plan lookup", data: &InvoicePaymentData{PlanID: "pro"}, want: types.SubscriptionTierPro},
		{name: "unknown plan defaults to pro", data: &InvoicePaymentData{PlanID: "legacy"}, want: types.SubscriptionTierPro},
		{name: "empty metadata defaults to pro", data: &InvoicePaymentData{}, want: types.SubscriptionTierPro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.resolveTier(tt.data))
		})
	}
}

func TestSubscriptionPatch_InvoicePaymentSucceeded(t *testing.T) {
	p := testProcessor()
	periodEnd := time.Now().Add(30 * 24 * time.Hour)

	customerRef, patch, ok := p.subscriptionPatch(&Event{
		Kind: KindInvoicePaymentSucceeded,
		InvoicePayment: &InvoicePaymentData{
			CustomerRef:     "cus_1",
			SubscriptionRef: "sub_1",
			TierMeta:        "pro",
			PeriodEnd:       &periodEnd,
		},
	})
	require.True(t, ok)

	assert.Equal(t, "cus_1", customerRef)
	assert.Equal(t, lo.ToPtr(types.SubscriptionStatusActive), patch.Status)
	assert.Equal(t, lo.ToPtr(types.SubscriptionTierPro), patch.Tier)
	assert.True(t, patch.SetPeriodEnd)
	assert.Equal(t, &periodEnd, patch.PeriodEnd)
	assert.True(t, patch.SetSubscriptionRef)
	assert.Equal(t, lo.ToPtr("sub_1"), patch.SubscriptionRef)
}

func TestSubscriptionPatch_InvoicePaymentFailed(t *testing.T) {
	p := testProcessor()

	customerRef, patch, ok := p.subscriptionPatch(&Event{
		Kind:           KindInvoicePaymentFailed,
		InvoicePayment: &InvoicePaymentData{CustomerRef: "cus_1"},
	})
	require.True(t, ok)

	assert.Equal(t, "cus_1", customerRef)
	assert.Equal(t, lo.ToPtr(types.SubscriptionStatusPastDue), patch.Status)
	// Payment failure must not clear the period end or the subscription ref.
	assert.False(t, patch.SetPeriodEnd)
	assert.False(t, patch.SetSubscriptionRef)
	assert.Nil(t, patch.Tier)
}

func TestSubscriptionPatch_SubscriptionDeleted(t *testing.T) {
	p := testProcessor()

	customerRef, patch, ok := p.subscriptionPatch(&Event{
		Kind:               KindSubscriptionDeleted,
		SubscriptionChange: &SubscriptionChangeData{CustomerRef: "cus_1", SubscriptionRef: "sub_1"},
	})
	require.True(t, ok)

	assert.Equal(t, "cus_1", customerRef)
	assert.Equal(t, lo.ToPtr(types.SubscriptionStatusCanceled), patch.Status)
	assert.Equal(t, lo.ToPtr(types.SubscriptionTierFree), patch.Tier)
	assert.True(t, patch.SetPeriodEnd)
	assert.Nil(t, patch.PeriodEnd)
	assert.True(t, patch.SetSubscriptionRef)
	assert.Nil(t, patch.SubscriptionRef)
	assert.Equal(t, lo.ToPtr(int64(10)), patch.FreeLimit)
}

func TestSubscriptionPatch_SubscriptionUpdated(t *testing.T) {
	p := testProcessor()
	periodEnd := time.Now().Add(30 * 24 * time.Hour)

	t.Run("carries new period end", func(t *testing.T) {
		customerRef, patch, ok := p.subscriptionPatch(&Event{
			Kind:               KindSubscriptionUpdated,
			SubscriptionChange: &SubscriptionChangeData{CustomerRef: "cus_1", PeriodEnd: &periodEnd},
		})
		require.True(t, ok)
		assert.Equal(t, "cus_1", customerRef)
		assert.True(t, patch.SetPeriodEnd)
		assert.Equal(t, &periodEnd, patch.PeriodEnd)
		assert.Nil(t, patch.Status)
		assert.Nil(t, patch.Tier)
	})

	t.Run("no period end means no effect", func(t *testing.T) {
		_, _, ok := p.subscriptionPatch(&Event{
			Kind:               KindSubscriptionUpdated,
			SubscriptionChange: &SubscriptionChangeData{CustomerRef: "cus_1"},
		})
		assert.False(t, ok)
	})
}

func TestSubscriptionPatch_UnknownKind(t *testing.T) {
	p := testProcessor()

	_, _, ok := p.subscriptionPatch(&Event{Kind: KindUnknown})
	assert.False(t, ok)
}
