package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stripe/stripe-go/v84"

	pkgstripe "github.com/superstar643/PITCHINVEST-sub001/internal/platform/stripe"
)

const testWebhookSecret = "whsec_checkout_test"

var errStripeDown = errors.New("stripe unavailable")

// fakeGateway keeps customers and sessions in memory.
type fakeGateway struct {
	mu  sync.Mutex
	seq int

	customers map[string]*stripe.Customer
	sessions  map[string]*stripe.CheckoutSession

	createdCustomers []*stripe.CustomerParams
	updatedCustomers map[string]*stripe.CustomerParams
	createdSessions  []*stripe.CheckoutSessionParams
	sessionGets      int

	getCustomerErr    error
	updateCustomerErr error
	createSessionErr  error
	getSessionErr     error
	omitURL           bool
}

var _ pkgstripe.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		customers:        map[string]*stripe.Customer{},
		sessions:         map[string]*stripe.CheckoutSession{},
		updatedCustomers: map[string]*stripe.CustomerParams{},
	}
}

func (g *fakeGateway) next(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_%d", prefix, g.seq)
}

func (g *fakeGateway) CreateCustomer(_ context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createdCustomers = append(g.createdCustomers, params)
	c := &stripe.Customer{ID: g.next("cus"), Metadata: params.Metadata}
	if params.Email != nil {
		c.Email = *params.Email
	}
	g.customers[c.ID] = c
	return c, nil
}

func (g *fakeGateway) GetCustomer(_ context.Context, id string) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getCustomerErr != nil {
		return nil, g.getCustomerErr
	}
	c, ok := g.customers[id]
	if !ok {
		return nil, fmt.Errorf("no such customer: %s", id)
	}
	return c, nil
}

func (g *fakeGateway) UpdateCustomer(_ context.Context, id string, params *stripe.CustomerParams) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updatedCustomers[id] = params
	if g.updateCustomerErr != nil {
		return nil, g.updateCustomerErr
	}
	c := g.customers[id]
	if params.Email != nil {
		c.Email = *params.Email
	}
	return c, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createSessionErr != nil {
		return nil, g.createSessionErr
	}
	g.createdSessions = append(g.createdSessions, params)
	s := &stripe.CheckoutSession{
		ID:            g.next("cs_test"),
		Mode:          stripe.CheckoutSessionModeSubscription,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Metadata:      params.Metadata,
	}
	if !g.omitURL {
		s.URL = "https://checkout.stripe.test/" + s.ID
	}
	g.sessions[s.ID] = s
	return s, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string, _ ...string) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionGets++
	if g.getSessionErr != nil {
		return nil, g.getSessionErr
	}
	s, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", id)
	}
	cp := *s
	return &cp, nil
}

func (g *fakeGateway) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return pkgstripe.VerifyEvent(payload, signature, testWebhookSecret)
}

func (g *fakeGateway) putSession(s *stripe.CheckoutSession) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[s.ID] = s
}

// paidSession is a completed subscription checkout for userID and planID.
func paidSession(id, userID, planID, providerSubID string) *stripe.CheckoutSession {
	s := &stripe.CheckoutSession{
		ID:            id,
		Mode:          stripe.CheckoutSessionModeSubscription,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: map[string]string{
			MetadataUserID:        userID,
			MetadataPricingPlanID: planID,
		},
		Customer: &stripe.Customer{ID: "cus_paid"},
	}
	if providerSubID != "" {
		s.Subscription = &stripe.Subscription{
			ID: providerSubID,
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{{
					CurrentPeriodStart: periodStart.Unix(),
					CurrentPeriodEnd:   periodEnd.Unix(),
				}},
			},
		}
	}
	return s
}
