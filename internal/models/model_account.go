package models

import (
	"time"

	"github.com/faceflowai/ledger/pkg/types"
)

// Account is the per-user entitlement state. Balance fields are only ever
// mutated through the ledger service's atomic update primitive; the Version
// column carries the optimistic-concurrency check.
type Account struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`

	// Monthly free-tier counters. FreeUsed never exceeds FreeLimit; the
	// increment is re-validated inside the same atomic update that commits it.
	FreeUsed  int64 `gorm:"column:free_used;not null;default:0" json:"free_used"`
	FreeLimit int64 `gorm:"column:free_limit;not null;default:0" json:"free_limit"`

	// Prepaid, non-expiring credits. CreditLifetimeTotal only grows and
	// records total credits ever purchased.
	CreditBalance       int64 `gorm:"column:credit_balance;not null;default:0" json:"credit_balance"`
	CreditLifetimeTotal int64 `gorm:"column:credit_lifetime_total;not null;default:0" json:"credit_lifetime_total"`

	SubscriptionStatus    types.SubscriptionStatus `gorm:"column:subscription_status;type:varchar(32);not null;default:'none'" json:"subscription_status"`
	SubscriptionTier      types.SubscriptionTier   `gorm:"column:subscription_tier;type:varchar(32);not null;default:'free'" json:"subscription_tier"`
	SubscriptionPeriodEnd *time.Time               `gorm:"column:subscription_period_end;default:null" json:"subscription_period_end"`

	// StripeCustomerID is created lazily on first checkout and immutable once set.
	StripeCustomerID     *string `gorm:"column:stripe_customer_id;type:varchar(64);uniqueIndex" json:"stripe_customer_id"`
	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id;type:varchar(64)" json:"stripe_subscription_id"`

	// LastPaymentEventAt is the provider timestamp of the newest payment
	// event applied to subscription fields; older events are discarded.
	LastPaymentEventAt *time.Time `gorm:"column:last_payment_event_at;default:null" json:"last_payment_event_at"`

	Version   int64     `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}

// SubscriptionValid reports whether the account holds an unexpired active
// subscription at the given instant.
func (a *Account) SubscriptionValid(now time.Time) bool {
	return a != nil &&
		a.SubscriptionStatus == types.SubscriptionStatusActive &&
		a.SubscriptionPeriodEnd != nil &&
		a.SubscriptionPeriodEnd.After(now)
}
