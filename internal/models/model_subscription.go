package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

// Subscription is created once per verified checkout and never updated by
// billing. (user_id, provider_subscription_id) is unique; rows without a
// provider subscription id are not deduplicated.
type Subscription struct {
	ID                     string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID                 string                   `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:ux_subscriptions_user_provider_sub,priority:1" json:"user_id"`
	PricingPlanID          string                   `gorm:"column:pricing_plan_id;type:varchar(64);not null" json:"pricing_plan_id"`
	Status                 types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	MonthlyPrice           decimal.Decimal          `gorm:"column:monthly_price;type:numeric(12,2);not null" json:"monthly_price"`
	Currency               string                   `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	PaymentProvider        types.PaymentProvider    `gorm:"column:payment_provider;type:varchar(32);not null" json:"payment_provider"`
	ProviderCustomerID     *string                  `gorm:"column:provider_customer_id;type:varchar(128);index" json:"provider_customer_id"`
	ProviderSubscriptionID *string                  `gorm:"column:provider_subscription_id;type:varchar(128);uniqueIndex:ux_subscriptions_user_provider_sub,priority:2" json:"provider_subscription_id"`
	CurrentPeriodStart     time.Time                `gorm:"column:current_period_start;not null" json:"current_period_start"`
	CurrentPeriodEnd       time.Time                `gorm:"column:current_period_end;not null" json:"current_period_end"`
	CreatedAt              time.Time                `json:"created_at"`
	UpdatedAt              time.Time                `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Valid reports whether the subscription is active and inside its period.
func (s *Subscription) Valid(now time.Time) bool {
	return s != nil &&
		s.Status == types.SubscriptionStatusActive &&
		!now.Before(s.CurrentPeriodStart) &&
		now.Before(s.CurrentPeriodEnd)
}
