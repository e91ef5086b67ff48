package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/outbox"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/payment_log"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/logctx"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/tool"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

// VerifyCheckoutSession reconciles a paid checkout session into one
// subscription row plus its profile and invoice effects. Repeating the call
// for the same session returns MessageSubscriptionExists without writes.
func (s *Service) VerifyCheckoutSession(ctx context.Context, req *VerifyCheckoutSessionRequest) (res *VerifyCheckoutSessionResult, err error) {
	defer s.metrics.ObserveProcess("checkout", "verify_session", time.Now())

	if req == nil || s.validate.StructCtx(ctx, req) != nil {
		s.metrics.CheckoutVerification("invalid")
		return nil, ErrMissingVerifyParameters
	}
	lg := logctx.FromCtx(ctx, s.log).With("user_id", req.UserID, "session_id", req.SessionID)

	s.paymentLog.Record(ctx, payment_log.Entry{
		Kind:      models.PaymentLogKindVerifySession,
		Status:    models.PaymentLogStatusReceived,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Data:      req,
	})
	defer func() {
		entry := payment_log.Entry{
			Kind:      models.PaymentLogKindVerifySession,
			Status:    models.PaymentLogStatusHandled,
			UserID:    req.UserID,
			SessionID: req.SessionID,
			Result:    res,
		}
		result := "created"
		switch {
		case err != nil:
			entry.Status = models.PaymentLogStatusHandleFailed
			entry.Result = err
			result = "failed"
		case res != nil && res.Subscription == nil:
			result = "exists"
		}
		s.paymentLog.Record(ctx, entry)
		s.metrics.CheckoutVerification(result)
	}()

	release, err := s.lockSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.verify(ctx, lg, req)
}

func (s *Service) verify(ctx context.Context, lg *zap.SugaredLogger, req *VerifyCheckoutSessionRequest) (*VerifyCheckoutSessionResult, error) {
	sess, err := s.gateway.GetCheckoutSession(ctx, req.SessionID, "subscription", "customer")
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		lg.Infow("checkout session not paid", "payment_status", sess.PaymentStatus)
		return nil, &Failure{Kind: ErrPaymentNotCompleted, PaymentStatus: string(sess.PaymentStatus)}
	}
	if sess.Metadata[MetadataUserID] != req.UserID {
		lg.Warnw("checkout session belongs to another user", "metadata_user_id", sess.Metadata[MetadataUserID])
		return nil, ErrUserMismatch
	}
	planID := sess.Metadata[MetadataPricingPlanID]
	if planID == "" {
		return nil, ErrMissingPlanMetadata
	}
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	var providerSubID string
	if sess.Subscription != nil {
		providerSubID = sess.Subscription.ID
	}
	if providerSubID != "" {
		existing, err := s.store.FindByProviderSubscriptionID(ctx, req.UserID, providerSubID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			lg.Infow("subscription already recorded", "subscription_id", existing.ID)
			return &VerifyCheckoutSessionResult{Success: true, Message: MessageSubscriptionExists}, nil
		}
	}

	sub := s.buildSubscription(sess, plan, req.UserID, providerSubID)
	events, err := s.persist(ctx, sub)
	if errors.Is(err, subscription.ErrSubscriptionExists) {
		lg.Infow("subscription inserted concurrently", "provider_subscription_id", providerSubID)
		return &VerifyCheckoutSessionResult{Success: true, Message: MessageSubscriptionExists}, nil
	}
	if err != nil {
		lg.Errorw("create subscription", "err", err)
		return nil, &Failure{Kind: ErrSubscriptionCreationFailed, Details: err.Error()}
	}

	s.dispatch(ctx, lg, events)
	lg.Infow("subscription created", "subscription_id", sub.ID, "provider_subscription_id", providerSubID)
	return &VerifyCheckoutSessionResult{Success: true, Subscription: sub}, nil
}

func (s *Service) buildSubscription(sess *stripe.CheckoutSession, plan *models.PricingPlan, userID, providerSubID string) *models.Subscription {
	start, end := s.period(sess.Subscription)
	sub := &models.Subscription{
		ID:                 tool.GenerateUUIDV7(),
		UserID:             userID,
		PricingPlanID:      plan.ID,
		Status:             types.SubscriptionStatusActive,
		MonthlyPrice:       plan.MonthlyPrice,
		Currency:           plan.Currency,
		PaymentProvider:    types.PaymentProviderStripe,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
	}
	if providerSubID != "" {
		sub.ProviderSubscriptionID = lo.ToPtr(providerSubID)
	}
	if sess.Customer != nil && sess.Customer.ID != "" {
		sub.ProviderCustomerID = lo.ToPtr(sess.Customer.ID)
	}
	return sub
}

// period reads the billing period from the first subscription item, falling
// back to one month from now.
func (s *Service) period(sub *stripe.Subscription) (time.Time, time.Time) {
	if sub != nil && sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item != nil && item.CurrentPeriodStart > 0 && item.CurrentPeriodEnd > 0 {
				return time.Unix(item.CurrentPeriodStart, 0).UTC(), time.Unix(item.CurrentPeriodEnd, 0).UTC()
			}
		}
	}
	now := s.now()
	return now, now.AddDate(0, 1, 0)
}

func (s *Service) buildInvoice(sub *models.Subscription) *models.Invoice {
	now := s.now()
	return &models.Invoice{
		ID:                 tool.GenerateUUIDV7(),
		SubscriptionID:     sub.ID,
		UserID:             sub.UserID,
		InvoiceType:        types.InvoiceTypeSubscription,
		Subtotal:           sub.MonthlyPrice,
		TotalAmount:        sub.MonthlyPrice,
		Currency:           sub.Currency,
		PaymentStatus:      types.InvoicePaymentStatusPaid,
		BillingPeriodStart: sub.CurrentPeriodStart,
		BillingPeriodEnd:   sub.CurrentPeriodEnd,
		DueDate:            now,
		PaidAt:             &now,
	}
}

// persist inserts the subscription and its outbox events atomically.
func (s *Service) persist(ctx context.Context, sub *models.Subscription) ([]*models.OutboxEvent, error) {
	var events []*models.OutboxEvent
	err := s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.store.CreateSubscription(ctx, tx, sub); err != nil {
			return err
		}
		pending, err := s.outbox.Emit(ctx, tx, outbox.Event{
			Type:        outbox.EventTypeUserProfilePending,
			AggregateID: sub.UserID,
			Payload:     ProfilePendingPayload{UserID: sub.UserID, SubscriptionID: sub.ID},
		})
		if err != nil {
			return err
		}
		invoice, err := s.outbox.Emit(ctx, tx, outbox.Event{
			Type:        outbox.EventTypeInvoiceCreate,
			AggregateID: sub.ID,
			Payload:     InvoiceCreatePayload{Invoice: s.buildInvoice(sub)},
		})
		if err != nil {
			return err
		}
		events = append(events, pending, invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// dispatch applies committed events once; failures stay pending for the worker.
func (s *Service) dispatch(ctx context.Context, lg *zap.SugaredLogger, events []*models.OutboxEvent) {
	dctx := context.WithoutCancel(ctx)
	for _, ev := range events {
		if err := s.outbox.Dispatch(dctx, ev); err != nil {
			lg.Warnw("soft effect deferred to outbox worker", "event_id", ev.ID, "event_type", ev.EventType, "err", err)
		}
	}
}
