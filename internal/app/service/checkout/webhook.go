package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/payment_log"
	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/logctx"
)

// HandleStripeWebhook verifies the event signature and reconciles completed
// subscription checkouts. Client-class verification outcomes are
// acknowledged so Stripe stops redelivering; server errors are returned.
func (s *Service) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	lg := logctx.FromCtx(ctx, s.log).With("event_id", event.ID, "event_type", event.Type)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		lg.Debugw("stripe event ignored")
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}
	userID := sess.Metadata[MetadataUserID]
	if sess.Mode != stripe.CheckoutSessionModeSubscription || userID == "" {
		lg.Infow("checkout session not managed by billing", "session_id", sess.ID, "mode", sess.Mode)
		return nil
	}

	s.paymentLog.Record(ctx, payment_log.Entry{
		Kind:      models.PaymentLogKindWebhook,
		Status:    models.PaymentLogStatusReceived,
		UserID:    userID,
		SessionID: sess.ID,
		Data:      map[string]string{"event_id": event.ID, "event_type": string(event.Type)},
	})

	res, err := s.VerifyCheckoutSession(ctx, &VerifyCheckoutSessionRequest{SessionID: sess.ID, UserID: userID})
	switch {
	case err == nil:
		lg.Infow("checkout session reconciled from webhook", "session_id", sess.ID, "message", res.Message)
		return nil
	case errors.Is(err, ErrPaymentNotCompleted):
		lg.Infow("checkout session awaiting payment", "session_id", sess.ID)
		return nil
	case HTTPStatus(err) < http.StatusInternalServerError:
		lg.Warnw("checkout session rejected", "session_id", sess.ID, "err", err)
		return nil
	default:
		return err
	}
}
