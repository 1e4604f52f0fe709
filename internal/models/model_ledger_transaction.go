package models

import (
	"time"

	"github.com/faceflowai/ledger/pkg/types"
)

// LedgerTransaction is one row per ledger-affecting event. Rows are
// append-only: never updated or deleted. Positive amounts are grants,
// negative amounts are consumptions.
type LedgerTransaction struct {
	ID        string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	AccountID string                `gorm:"column:account_id;type:uuid;not null;index:idx_account_created,priority:1" json:"account_id"`
	Amount    int64                 `gorm:"column:amount;not null" json:"amount"`
	Kind      types.LedgerEntryKind `gorm:"column:kind;type:varchar(32);not null" json:"kind"`

	Description string `gorm:"column:description;type:varchar(255)" json:"description"`

	// StripePaymentRef holds the provider's payment reference for purchase
	// rows and doubles as the idempotency key for webhook credit grants.
	StripePaymentRef *string `gorm:"column:stripe_payment_ref;type:varchar(128);uniqueIndex" json:"stripe_payment_ref"`

	CreatedAt time.Time `gorm:"index:idx_account_created,priority:2,sort:desc" json:"created_at"`
}

func (LedgerTransaction) TableName() string {
	return "ledger_transaction"
}
