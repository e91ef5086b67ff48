package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/tool"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

func TestCreateCheckoutSession_MissingParameters(t *testing.T) {
	env := newTestEnv(t, nil)
	full := createReq("plan-pro", "u1")

	cases := map[string]func(r *CreateCheckoutSessionRequest){
		"plan":    func(r *CreateCheckoutSessionRequest) { r.PricingPlanID = "" },
		"user":    func(r *CreateCheckoutSessionRequest) { r.UserID = "" },
		"success": func(r *CreateCheckoutSessionRequest) { r.SuccessURL = "" },
		"cancel":  func(r *CreateCheckoutSessionRequest) { r.CancelURL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := *full
			mutate(&req)
			_, err := env.svc.CreateCheckoutSession(context.Background(), &req)
			assert.ErrorIs(t, err, ErrMissingParameters)
			assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
		})
	}

	_, err := env.svc.CreateCheckoutSession(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingParameters)
}

func TestCreateCheckoutSession_PlanNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-missing", "u1"))
	require.ErrorIs(t, err, ErrPlanNotFound)

	status, body := Describe(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Pricing plan not found", body.Error)
}

func TestCreateCheckoutSession_FreePlan(t *testing.T) {
	env := newTestEnv(t, nil)
	res, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-free", "u1"))
	require.NoError(t, err)
	assert.Equal(t, FreeSubscriptionSessionID, res.SessionID)
	assert.Empty(t, res.URL)
	assert.Empty(t, env.gw.createdCustomers)
	assert.Empty(t, env.gw.createdSessions)
}

func TestCreateCheckoutSession_NewCustomer(t *testing.T) {
	env := newTestEnv(t, nil)
	req := createReq("plan-pro", "u1")

	res, err := env.svc.CreateCheckoutSession(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, FreeSubscriptionSessionID, res.SessionID)
	assert.NotEmpty(t, res.URL)
	assert.Equal(t, 1, env.gw.sessionGets, "session is re-retrieved after creation")

	require.Len(t, env.gw.createdCustomers, 1)
	cust := env.gw.createdCustomers[0]
	assert.Equal(t, "founder@example.com", stripe.StringValue(cust.Email))
	assert.Equal(t, "u1", cust.Metadata[MetadataUserID])

	require.Len(t, env.gw.createdSessions, 1)
	p := env.gw.createdSessions[0]
	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), stripe.StringValue(p.Mode))
	assert.Equal(t, req.SuccessURL, stripe.StringValue(p.SuccessURL))
	assert.Equal(t, req.CancelURL, stripe.StringValue(p.CancelURL))
	assert.Equal(t, "u1", p.Metadata[MetadataUserID])
	assert.Equal(t, "plan-pro", p.Metadata[MetadataPricingPlanID])
	assert.Equal(t, p.Metadata, p.SubscriptionData.Metadata)

	require.Len(t, p.LineItems, 1)
	item := p.LineItems[0]
	assert.Equal(t, int64(1), stripe.Int64Value(item.Quantity))
	assert.Equal(t, "usd", stripe.StringValue(item.PriceData.Currency))
	assert.Equal(t, int64(1999), stripe.Int64Value(item.PriceData.UnitAmount))
	assert.Equal(t, "month", stripe.StringValue(item.PriceData.Recurring.Interval))
	assert.Equal(t, "Pro", stripe.StringValue(item.PriceData.ProductData.Name))
	assert.NotEmpty(t, stripe.StringValue(item.PriceData.ProductData.Description))
}

func TestCreateCheckoutSession_NotIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	first, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u1"))
	require.NoError(t, err)
	second, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u1"))
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestCreateCheckoutSession_NoEmailCustomer(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u2"))
	require.NoError(t, err)
	require.Len(t, env.gw.createdCustomers, 1)
	assert.Nil(t, env.gw.createdCustomers[0].Email)

	// unknown user row still gets a customer
	_, err = env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "ghost"))
	require.NoError(t, err)
	assert.Len(t, env.gw.createdCustomers, 2)
}

func seedCustomerSubscription(t *testing.T, env *testEnv, customerID string) {
	t.Helper()
	sub := newStoredSubscription("u1", "sub_old")
	sub.ProviderCustomerID = &customerID
	require.NoError(t, env.db.Create(sub).Error)
}

func newStoredSubscription(userID, providerSubID string) *models.Subscription {
	return &models.Subscription{
		ID:                     tool.GenerateUUIDV7(),
		UserID:                 userID,
		PricingPlanID:          "plan-pro",
		Status:                 types.SubscriptionStatusActive,
		Currency:               "USD",
		PaymentProvider:        types.PaymentProviderStripe,
		ProviderSubscriptionID: &providerSubID,
		CurrentPeriodStart:     periodStart,
		CurrentPeriodEnd:       periodEnd,
	}
}

func TestCreateCheckoutSession_ReusesCustomerAndBackfillsEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.customers["cus_old"] = &stripe.Customer{ID: "cus_old"}
	seedCustomerSubscription(t, env, "cus_old")

	_, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u1"))
	require.NoError(t, err)
	assert.Empty(t, env.gw.createdCustomers)
	require.Contains(t, env.gw.updatedCustomers, "cus_old")
	assert.Equal(t, "founder@example.com", stripe.StringValue(env.gw.updatedCustomers["cus_old"].Email))
	assert.Equal(t, "cus_old", stripe.StringValue(env.gw.createdSessions[0].Customer))
}

func TestCreateCheckoutSession_BackfillFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.customers["cus_old"] = &stripe.Customer{ID: "cus_old"}
	env.gw.updateCustomerErr = errStripeDown
	seedCustomerSubscription(t, env, "cus_old")

	res, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u1"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)
	assert.Empty(t, env.gw.createdCustomers)
}

func TestCreateCheckoutSession_DeletedCustomerIsReplaced(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.customers["cus_old"] = &stripe.Customer{ID: "cus_old", Deleted: true}
	seedCustomerSubscription(t, env, "cus_old")

	_, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u1"))
	require.NoError(t, err)
	require.Len(t, env.gw.createdCustomers, 1)
	assert.NotEqual(t, "cus_old", stripe.StringValue(env.gw.createdSessions[0].Customer))
}

func TestCreateCheckoutSession_URLUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.omitURL = true

	_, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u1"))
	require.ErrorIs(t, err, ErrCheckoutURLUnavailable)

	status, body := Describe(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to get checkout URL from Stripe", body.Error)
	assert.NotEmpty(t, body.SessionID)
}

func TestCreateCheckoutSession_RetrievalFailureKeepsCreatedURL(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.getSessionErr = errStripeDown

	res, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u1"))
	require.NoError(t, err)
	assert.Contains(t, res.URL, res.SessionID)
}

func TestCreateCheckoutSession_ProviderError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.createSessionErr = errStripeDown

	_, err := env.svc.CreateCheckoutSession(context.Background(), createReq("plan-pro", "u1"))
	require.True(t, errors.Is(err, errStripeDown))
	status, body := Describe(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body.Error, "stripe unavailable")
}
