package checkout

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/outbox"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
)

var errEmptyInvoice = errors.New("invoice payload is empty")

// RegisterOutboxHandlers binds the verification soft effects to the outbox.
// Both handlers are idempotent.
func RegisterOutboxHandlers(ob *outbox.Service, store *subscription.Service) {
	ob.Register(outbox.EventTypeUserProfilePending, func(ctx context.Context, tx *gorm.DB, payload []byte) error {
		p, err := outbox.Decode[ProfilePendingPayload](payload)
		if err != nil {
			return err
		}
		return store.MarkProfilePending(ctx, tx, p.UserID)
	})
	ob.Register(outbox.EventTypeInvoiceCreate, func(ctx context.Context, tx *gorm.DB, payload []byte) error {
		p, err := outbox.Decode[InvoiceCreatePayload](payload)
		if err != nil {
			return err
		}
		if p.Invoice == nil {
			return errEmptyInvoice
		}
		if err := store.CreateInvoice(ctx, tx, p.Invoice); err != nil && !errors.Is(err, subscription.ErrInvoiceExists) {
			return err
		}
		return nil
	})
}
