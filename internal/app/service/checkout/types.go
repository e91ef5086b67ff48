package checkout

import (
	"context"

	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
)

// FreeSubscriptionSessionID tells the client to activate without payment.
const FreeSubscriptionSessionID = "free_subscription"

const MessageSubscriptionExists = "Subscription already exists"

// Session metadata keys written at creation and read back on verification.
const (
	MetadataUserID        = "user_id"
	MetadataPricingPlanID = "pricing_plan_id"
)

type CreateCheckoutSessionRequest struct {
	PricingPlanID string `json:"pricing_plan_id" validate:"required"`
	UserID        string `json:"user_id" validate:"required"`
	SuccessURL    string `json:"success_url" validate:"required"`
	CancelURL     string `json:"cancel_url" validate:"required"`
}

type CreateCheckoutSessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url,omitempty"`
}

type VerifyCheckoutSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
}

type VerifyCheckoutSessionResult struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message,omitempty"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// Manager is the checkout surface used by the HTTP layer.
type Manager interface {
	// CreateCheckoutSession starts a hosted subscription checkout.
	CreateCheckoutSession(ctx context.Context, req *CreateCheckoutSessionRequest) (*CreateCheckoutSessionResult, error)
	// VerifyCheckoutSession records a paid session as a subscription. Safe to repeat.
	VerifyCheckoutSession(ctx context.Context, req *VerifyCheckoutSessionRequest) (*VerifyCheckoutSessionResult, error)
	// HandleStripeWebhook verifies and applies a provider event.
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
}

// ProfilePendingPayload is the outbox payload of user.profile_pending.
type ProfilePendingPayload struct {
	UserID         string `json:"user_id"`
	SubscriptionID string `json:"subscription_id"`
}

// InvoiceCreatePayload is the outbox payload of invoice.create.
type InvoiceCreatePayload struct {
	Invoice *models.Invoice `json:"invoice"`
}
