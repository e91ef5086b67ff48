package types

type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type InvoiceType string

const (
	InvoiceTypeSubscription InvoiceType = "subscription"
)

type InvoicePaymentStatus string

const (
	InvoicePaymentStatusPaid    InvoicePaymentStatus = "paid"
	InvoicePaymentStatusPending InvoicePaymentStatus = "pending"
)

// ProfileStatus is the approval state of a user profile. A new paid
// subscription moves the profile to pending until an operator approves it.
type ProfileStatus string

const (
	ProfileStatusIncomplete ProfileStatus = "incomplete"
	ProfileStatusPending    ProfileStatus = "pending"
	ProfileStatusApproved   ProfileStatus = "approved"
)
