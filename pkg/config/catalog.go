package config

import (
	"os"

	"github.com/faceflowai/ledger/pkg/types"
)

// DefaultCatalog returns the built-in pricing catalog, used when the config
// file does not override it. Stripe price IDs for subscriptions come from the
// environment because they differ per Stripe account.
func DefaultCatalog() Catalog {
	return Catalog{
		CreditPackages: []*types.CreditPackage{
			{ID: "credits_50", Name: "Starter Pack", Credits: 50, PriceCents: 900, Description: "Perfect for trying out"},
			{ID: "credits_100", Name: "Popular Pack", Credits: 100, PriceCents: 1900, Description: "Best value for casual users", Popular: true},
			{ID: "credits_250", Name: "Pro Pack", Credits: 250, PriceCents: 3900, Description: "For serious creators"},
			{ID: "credits_500", Name: "Studio Pack", Credits: 500, PriceCents: 6900, Description: "Save 30% - Best deal!"},
		},
		SubscriptionPlans: []*types.SubscriptionPlan{
			{
				ID:                   "pro",
				Name:                 "Pro",
				Description:          "For serious creators",
				Tier:                 types.SubscriptionTierPro,
				MonthlyPriceCents:    2900,
				YearlyPriceCents:     2300,
				StripePriceIDMonthly: os.Getenv("STRIPE_PRO_MONTHLY_PRICE_ID"),
				StripePriceIDYearly:  os.Getenv("STRIPE_PRO_YEARLY_PRICE_ID"),
				Features: []string{
					"Unlimited generations",
					"4K resolution",
					"All 50+ styles",
					"Commercial license",
					"Priority support",
					"3 custom face models",
				},
			},
			{
				ID:                   "enterprise",
				Name:                 "Enterprise",
				Description:          "For teams and agencies",
				Tier:                 types.SubscriptionTierEnterprise,
				MonthlyPriceCents:    9900,
				YearlyPriceCents:     7900,
				StripePriceIDMonthly: os.Getenv("STRIPE_ENTERPRISE_MONTHLY_PRICE_ID"),
				StripePriceIDYearly:  os.Getenv("STRIPE_ENTERPRISE_YEARLY_PRICE_ID"),
				Features: []string{
					"Everything in Pro",
					"5 team members",
					"API access",
					"Custom models",
					"Dedicated support",
					"Unlimited face models",
				},
			},
		},
	}
}
