package models

// All lists every model managed by AutoMigrate.
func All() []any {
	return []any{
		&PricingPlan{},
		&User{},
		&Subscription{},
		&Invoice{},
		&OutboxEvent{},
		&PaymentLog{},
	}
}
