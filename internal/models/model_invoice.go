package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

// Invoice is a historical record of a paid billing period. One row per
// (subscription_id, billing_period_start).
type Invoice struct {
	ID                 string                     `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID     string                     `gorm:"column:subscription_id;type:uuid;not null;uniqueIndex:ux_invoices_subscription_period,priority:1" json:"subscription_id"`
	UserID             string                     `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	InvoiceType        types.InvoiceType          `gorm:"column:invoice_type;type:varchar(32);not null" json:"invoice_type"`
	Subtotal           decimal.Decimal            `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	TaxAmount          decimal.Decimal            `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0" json:"tax_amount"`
	TotalAmount        decimal.Decimal            `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	Currency           string                     `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	PaymentStatus      types.InvoicePaymentStatus `gorm:"column:payment_status;type:varchar(32);not null" json:"payment_status"`
	BillingPeriodStart time.Time                  `gorm:"column:billing_period_start;not null;uniqueIndex:ux_invoices_subscription_period,priority:2" json:"billing_period_start"`
	BillingPeriodEnd   time.Time                  `gorm:"column:billing_period_end;not null" json:"billing_period_end"`
	DueDate            time.Time                  `gorm:"column:due_date;not null" json:"due_date"`
	PaidAt             *time.Time                 `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }
