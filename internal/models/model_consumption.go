package models

import (
	"time"

	"github.com/faceflowai/ledger/pkg/types"
)

// ConsumptionRecord is one row per successful metered use. It is created
// atomically with the ledger mutation that paid for it. ArtifactRef is filled
// in later by the producing side once the artifact exists.
type ConsumptionRecord struct {
	ID        string                  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	AccountID string                  `gorm:"column:account_id;type:uuid;not null;index:idx_consumption_account_created,priority:1" json:"account_id"`
	Source    types.EntitlementSource `gorm:"column:source;type:varchar(32);not null" json:"source"`
	Cost      int64                   `gorm:"column:cost;not null" json:"cost"`

	// LedgerTransactionID links to the paying ledger row; nil for
	// subscription-paid consumptions, which write no ledger row.
	LedgerTransactionID *string `gorm:"column:ledger_transaction_id;type:uuid" json:"ledger_transaction_id"`

	ArtifactRef *string `gorm:"column:artifact_ref;type:varchar(255)" json:"artifact_ref"`

	CreatedAt time.Time `gorm:"index:idx_consumption_account_created,priority:2,sort:desc" json:"created_at"`
}

func (ConsumptionRecord) TableName() string {
	return "consumption_record"
}
