package types

type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

type CheckoutMode string

const (
	CheckoutModeCredits      CheckoutMode = "credits"
	CheckoutModeSubscription CheckoutMode = "subscription"
)

// CreditPackage is a one-time purchase granting a fixed number of credits.
type CreditPackage struct {
	ID            string `json:"id" mapstructure:"id"`
	Name          string `json:"name" mapstructure:"name"`
	Credits       int64  `json:"credits" mapstructure:"credits"`
	PriceCents    int64  `json:"price_cents" mapstructure:"price_cents"`
	StripePriceID string `json:"stripe_price_id" mapstructure:"stripe_price_id"`
	Description   string `json:"description" mapstructure:"description"`
	Popular       bool   `json:"popular" mapstructure:"popular"`
}

// SubscriptionPlan is a recurring plan. Consumption under an active plan is
// flat-rate and does not draw down credits or free quota.
type SubscriptionPlan struct {
	ID                   string           `json:"id" mapstructure:"id"`
	Name                 string           `json:"name" mapstructure:"name"`
	Description          string           `json:"description" mapstructure:"description"`
	Tier                 SubscriptionTier `json:"tier" mapstructure:"tier"`
	MonthlyPriceCents    int64            `json:"monthly_price_cents" mapstructure:"monthly_price_cents"`
	YearlyPriceCents     int64            `json:"yearly_price_cents" mapstructure:"yearly_price_cents"`
	StripePriceIDMonthly string           `json:"stripe_price_id_monthly" mapstructure:"stripe_price_id_monthly"`
	StripePriceIDYearly  string           `json:"stripe_price_id_yearly" mapstructure:"stripe_price_id_yearly"`
	Features             []string         `json:"features" mapstructure:"features"`
}

// PriceID returns the Stripe price reference for the given interval.
func (p *SubscriptionPlan) PriceID(interval BillingInterval) string {
	if interval == BillingIntervalYearly {
		return p.StripePriceIDYearly
	}
	return p.StripePriceIDMonthly
}
