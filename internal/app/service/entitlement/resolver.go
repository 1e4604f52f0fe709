// Package entitlement holds the single place where the draw-down ordering
// policy lives: subscription, then free quota, then prepaid credits.
package entitlement

import (
	"time"

	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/types"
)

// Decision is the resolver's verdict for one consumption attempt.
type Decision struct {
	OK     bool
	Source types.EntitlementSource
	// Reason is set when OK is false and tells the caller whether upgrading
	// or buying credits would unlock further consumption.
	Reason types.DenyReason
}

// Resolve inspects a snapshot of the account and picks the entitlement
// source for one consumption. It never mutates state; callers must re-run it
// against a fresh read inside the atomic commit to guard against races.
//
// Ordering: an active subscription is flat-rate, so it is checked first and
// leaves free quota and credits untouched for when the subscription lapses.
// Free quota is spent before purchased credits.
func Resolve(account *models.Account, cost int64, now time.Time) Decision {
	if account.SubscriptionValid(now) {
		return Decision{OK: true, Source: types.EntitlementSourceSubscription}
	}
	if account.FreeUsed+cost <= account.FreeLimit {
		return Decision{OK: true, Source: types.EntitlementSourceFree}
	}
	if account.CreditBalance >= cost {
		return Decision{OK: true, Source: types.EntitlementSourceCredit}
	}

	reason := types.DenyReasonUpgrade
	if account.CreditLifetimeTotal > 0 {
		// The user has bought credits before; topping up is the cheaper ask.
		reason = types.DenyReasonBuyCredits
	}
	return Decision{OK: false, Reason: reason}
}
