package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faceflowai/ledger/pkg/types"
)

func defaultConfig() *Config {
	return &Config{Catalog: DefaultCatalog()}
}

func TestGetCreditPackage(t *testing.T) {
	cfg := defaultConfig()

	pkg := cfg.GetCreditPackage("credits_100")
	require.NotNil(t, pkg)
	assert.Equal(t, int64(100), pkg.Credits)
	assert.Equal(t, int64(1900), pkg.PriceCents)

	assert.Nil(t, cfg.GetCreditPackage("credits_9000"))
}

func TestGetSubscriptionPlan(t *testing.T) {
	cfg := defaultConfig()

	plan := cfg.GetSubscriptionPlan("enterprise")
	require.NotNil(t, plan)
	assert.Equal(t, types.SubscriptionTierEnterprise, plan.Tier)

	assert.Nil(t, cfg.GetSubscriptionPlan("platinum"))
}

func TestGetPlanTier(t *testing.T) {
	cfg := defaultConfig()

	tests := []struct {
		name   string
		planID string
		want   types.SubscriptionTier
	}{
		{name: "known plan", planID: "enterprise", want: types.SubscriptionTierEnterprise},
		{name: "unknown plan defaults to pro", planID: "legacy", want: types.SubscriptionTierPro},
		{name: "empty plan defaults to pro", planID: "", want: types.SubscriptionTierPro},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.GetPlanTier(tt.planID))
		})
	}
}
