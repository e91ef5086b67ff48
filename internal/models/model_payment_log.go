package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentLogStatus string

const (
	PaymentLogStatusReceived     PaymentLogStatus = "received"
	PaymentLogStatusHandled      PaymentLogStatus = "handled"
	PaymentLogStatusHandleFailed PaymentLogStatus = "handle_failed"
)

type PaymentLogKind string

const (
	PaymentLogKindCreateSession PaymentLogKind = "create_checkout_session"
	PaymentLogKindVerifySession PaymentLogKind = "verify_checkout_session"
	PaymentLogKindWebhook       PaymentLogKind = "webhook"
)

// PaymentLog is an append-only audit row per checkout call stage.
type PaymentLog struct {
	ID         string           `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderID string           `gorm:"column:provider_id;type:varchar(64);not null" json:"provider_id"`
	Kind       PaymentLogKind   `gorm:"column:kind;type:varchar(64);not null" json:"kind"`
	UserID     *string          `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	TraceID    string           `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	SessionID  string           `gorm:"column:session_id;type:varchar(255);index" json:"session_id"`
	Data       datatypes.JSON   `gorm:"column:data;type:jsonb" json:"data"`
	Result     *datatypes.JSON  `gorm:"column:result;type:jsonb" json:"result"`
	Status     PaymentLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (PaymentLog) TableName() string { return "payment_log" }
