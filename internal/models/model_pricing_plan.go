package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingPlan is admin-managed and read-only to billing. A non-positive
// MonthlyPrice denotes a free plan.
type PricingPlan struct {
	ID           string          `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	PlanName     string          `gorm:"column:plan_name;type:varchar(255);not null" json:"plan_name"`
	Description  *string         `gorm:"column:description;type:text" json:"description"`
	MonthlyPrice decimal.Decimal `gorm:"column:monthly_price;type:numeric(12,2);not null;default:0" json:"monthly_price"`
	Currency     string          `gorm:"column:currency;type:varchar(8);not null;default:'USD'" json:"currency"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (PricingPlan) TableName() string { return "pricing_plans" }

func (p *PricingPlan) IsFree() bool {
	return p != nil && !p.MonthlyPrice.IsPositive()
}
