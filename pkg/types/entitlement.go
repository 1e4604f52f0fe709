package types

// EntitlementSource identifies which entitlement pays for a consumption.
type EntitlementSource string

const (
	EntitlementSourceSubscription EntitlementSource = "subscription"
	EntitlementSourceFree         EntitlementSource = "free"
	EntitlementSourceCredit       EntitlementSource = "credit"
)

type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = "none"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type SubscriptionTier string

const (
	SubscriptionTierFree       SubscriptionTier = "free"
	SubscriptionTierPro        SubscriptionTier = "pro"
	SubscriptionTierEnterprise SubscriptionTier = "enterprise"
)

// ValidTier reports whether s names a known tier.
func ValidTier(s string) bool {
	switch SubscriptionTier(s) {
	case SubscriptionTierFree, SubscriptionTierPro, SubscriptionTierEnterprise:
		return true
	}
	return false
}

// LedgerEntryKind classifies ledger transactions. Rows are append-only.
type LedgerEntryKind string

const (
	LedgerEntryKindPurchase          LedgerEntryKind = "purchase"
	LedgerEntryKindConsumptionCredit LedgerEntryKind = "consumption_credit"
	LedgerEntryKindConsumptionFree   LedgerEntryKind = "consumption_free"
	LedgerEntryKindRefund            LedgerEntryKind = "refund"
	LedgerEntryKindAdjustment        LedgerEntryKind = "adjustment"
)

// DenyReason tells the caller what would unlock further consumption.
type DenyReason string

const (
	DenyReasonUpgrade    DenyReason = "upgrade"
	DenyReasonBuyCredits DenyReason = "buy_credits"
)
