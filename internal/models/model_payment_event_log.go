package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentEventLogStatus string

const (
	PaymentEventLogStatusReceived     PaymentEventLogStatus = "received"
	PaymentEventLogStatusHandled      PaymentEventLogStatus = "handled"
	PaymentEventLogStatusHandleFailed PaymentEventLogStatus = "handle_failed"
)

// PaymentEventLog is the audit trail of signature-verified webhook events.
// Unverifiable payloads are rejected before any row is written.
type PaymentEventLog struct {
	ID        string  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EventID   string  `gorm:"column:event_id;type:varchar(128);not null;index" json:"event_id"`
	EventKind string  `gorm:"column:event_kind;type:varchar(64);not null" json:"event_kind"`
	AccountID *string `gorm:"column:account_id;type:uuid" json:"account_id"`
	TraceID   string  `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`

	// EventTime is the provider's timestamp for the event, used by the
	// last-writer-by-event-time-wins rule.
	EventTime time.Time             `gorm:"column:event_time" json:"event_time"`
	Data      datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result    *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status    PaymentEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (PaymentEventLog) TableName() string { return "payment_event_log" }
