package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"
	"go.uber.org/zap"

	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/logctx"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/money"
)

// CreateCheckoutSession validates the request, short-circuits free plans,
// ensures a Stripe customer and creates a subscription-mode checkout session.
func (s *Service) CreateCheckoutSession(ctx context.Context, req *CreateCheckoutSessionRequest) (*CreateCheckoutSessionResult, error) {
	defer s.metrics.ObserveProcess("checkout", "create_session", time.Now())

	if req == nil || s.validate.StructCtx(ctx, req) != nil {
		s.metrics.CheckoutSession("invalid")
		return nil, ErrMissingParameters
	}
	lg := logctx.FromCtx(ctx, s.log).With("user_id", req.UserID, "pricing_plan_id", req.PricingPlanID)

	plan, err := s.loadPlan(ctx, req.PricingPlanID)
	if err != nil {
		s.metrics.CheckoutSession("plan_error")
		return nil, err
	}
	if plan.IsFree() {
		lg.Infow("free plan selected, skipping checkout")
		s.metrics.CheckoutSession("free")
		return &CreateCheckoutSessionResult{SessionID: FreeSubscriptionSessionID}, nil
	}

	email, err := s.store.GetBillingEmail(ctx, req.UserID)
	if err != nil {
		s.metrics.CheckoutSession("failed")
		return nil, err
	}
	customerID, err := s.ensureCustomer(ctx, lg, req.UserID, email)
	if err != nil {
		s.metrics.CheckoutSession("failed")
		return nil, err
	}

	created, err := s.gateway.CreateCheckoutSession(ctx, buildSessionParams(plan, req, customerID))
	if err != nil {
		s.metrics.CheckoutSession("failed")
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	lg = lg.With("session_id", created.ID)

	url := created.URL
	retrieved, err := s.gateway.GetCheckoutSession(ctx, created.ID)
	switch {
	case err != nil:
		lg.Warnw("retrieve created checkout session", "err", err)
	case retrieved.URL != "":
		url = retrieved.URL
	}
	if url == "" {
		s.metrics.CheckoutSession("no_url")
		return nil, &Failure{Kind: ErrCheckoutURLUnavailable, SessionID: created.ID}
	}

	lg.Infow("checkout session created", "customer_id", customerID)
	s.metrics.CheckoutSession("created")
	return &CreateCheckoutSessionResult{SessionID: created.ID, URL: url}, nil
}

// ensureCustomer reuses the customer from the user's previous subscriptions
// or creates one tagged with the user id.
func (s *Service) ensureCustomer(ctx context.Context, lg *zap.SugaredLogger, userID, email string) (string, error) {
	existing, err := s.store.FindProviderCustomerID(ctx, userID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		cust, err := s.gateway.GetCustomer(ctx, existing)
		if err != nil {
			lg.Warnw("load stripe customer, reusing stored id", "customer_id", existing, "err", err)
			return existing, nil
		}
		if !cust.Deleted {
			if cust.Email == "" && email != "" {
				params := &stripe.CustomerParams{Email: stripe.String(email)}
				if _, err := s.gateway.UpdateCustomer(ctx, existing, params); err != nil {
					lg.Warnw("backfill stripe customer email", "customer_id", existing, "err", err)
				}
			}
			return existing, nil
		}
		lg.Warnw("stored stripe customer was deleted, creating a new one", "customer_id", existing)
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{MetadataUserID: userID},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	cust, err := s.gateway.CreateCustomer(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	lg.Infow("stripe customer created", "customer_id", cust.ID)
	return cust.ID, nil
}

func buildSessionParams(plan *models.PricingPlan, req *CreateCheckoutSessionRequest, customerID string) *stripe.CheckoutSessionParams {
	currency := money.NormalizeCurrency(plan.Currency)
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(plan.PlanName),
	}
	if plan.Description != nil && *plan.Description != "" {
		product.Description = stripe.String(*plan.Description)
	}
	metadata := map[string]string{
		MetadataUserID:        req.UserID,
		MetadataPricingPlanID: plan.ID,
	}
	return &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(currency),
					ProductData: product,
					UnitAmount:  stripe.Int64(money.ToMinorUnits(plan.MonthlyPrice, currency)),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata:   metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
}
