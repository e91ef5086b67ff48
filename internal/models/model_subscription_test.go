package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

func TestSubscription_Valid(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	s := &Subscription{
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now.AddDate(0, 0, -1),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}
	assert.True(t, s.Valid(now))
	assert.False(t, s.Valid(now.AddDate(0, 2, 0)))
	assert.False(t, s.Valid(now.AddDate(0, 0, -2)))

	s.Status = types.SubscriptionStatusCanceled
	assert.False(t, s.Valid(now))

	var nilSub *Subscription
	assert.False(t, nilSub.Valid(now))
}

func TestPricingPlan_IsFree(t *testing.T) {
	assert.True(t, (&PricingPlan{MonthlyPrice: decimal.Zero}).IsFree())
	assert.True(t, (&PricingPlan{MonthlyPrice: decimal.NewFromInt(-1)}).IsFree())
	assert.False(t, (&PricingPlan{MonthlyPrice: decimal.RequireFromString("9.99")}).IsFree())
	var p *PricingPlan
	assert.False(t, p.IsFree())
}
