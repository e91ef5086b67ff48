package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mw "github.com/superstar643/PITCHINVEST-sub001/internal/app/api/middleware"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/checkout"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/response"
)

type stubManager struct {
	createReq  *checkout.CreateCheckoutSessionRequest
	verifyReq  *checkout.VerifyCheckoutSessionRequest
	payload    []byte
	signature  string
	createRes  *checkout.CreateCheckoutSessionResult
	verifyRes  *checkout.VerifyCheckoutSessionResult
	err        error
	webhookErr error
}

func (s *stubManager) CreateCheckoutSession(_ context.Context, req *checkout.CreateCheckoutSessionRequest) (*checkout.CreateCheckoutSessionResult, error) {
	s.createReq = req
	return s.createRes, s.err
}

func (s *stubManager) VerifyCheckoutSession(_ context.Context, req *checkout.VerifyCheckoutSessionRequest) (*checkout.VerifyCheckoutSessionResult, error) {
	s.verifyReq = req
	return s.verifyRes, s.err
}

func (s *stubManager) HandleStripeWebhook(_ context.Context, payload []byte, signature string) error {
	s.payload = payload
	s.signature = signature
	return s.webhookErr
}

func newCheckoutRouter(mgr checkout.Manager, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/functions/v1")
	g.Use(mw.CORSMiddleware("*"), mw.AuthMiddleware(secret, zap.NewNop().Sugar()))
	RegisterCheckoutRoutes(g, mgr)
	RegisterWebhookRoutes(r.Group("/api/v2/payment"), mgr)
	return r
}

func postJSON(r http.Handler, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, secret, subject string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{Subject: subject, ExpiresAt: time.Now().Add(time.Hour).Unix()})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegisterCheckoutRoutes_RegistersEndpoints(t *testing.T) {
	r := newCheckoutRouter(&stubManager{}, "")
	routes := map[string]bool{}
	for _, rt := range r.Routes() {
		routes[rt.Method+" "+rt.Path] = true
	}
	require.True(t, routes["POST /functions/v1/create-checkout-session"])
	require.True(t, routes["OPTIONS /functions/v1/create-checkout-session"])
	require.True(t, routes["POST /functions/v1/verify-checkout-session"])
	require.True(t, routes["OPTIONS /functions/v1/verify-checkout-session"])
	require.True(t, routes["POST /api/v2/payment/webhook/stripe"])
}

func TestApiCreateCheckoutSession(t *testing.T) {
	mgr := &stubManager{createRes: &checkout.CreateCheckoutSessionResult{SessionID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}}
	r := newCheckoutRouter(mgr, "")

	w := postJSON(r, "/functions/v1/create-checkout-session",
		`{"pricing_plan_id":"plan-pro","user_id":"u1","success_url":"https://app.test/ok","cancel_url":"https://app.test/cancel"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessionId":"cs_1","url":"https://checkout.stripe.test/cs_1"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.NotNil(t, mgr.createReq)
	assert.Equal(t, "plan-pro", mgr.createReq.PricingPlanID)
	assert.Equal(t, "u1", mgr.createReq.UserID)
}

func TestApiCreateCheckoutSession_FreePlanOmitsURL(t *testing.T) {
	mgr := &stubManager{createRes: &checkout.CreateCheckoutSessionResult{SessionID: checkout.FreeSubscriptionSessionID}}
	r := newCheckoutRouter(mgr, "")

	w := postJSON(r, "/functions/v1/create-checkout-session", `{"pricing_plan_id":"plan-free","user_id":"u1","success_url":"s","cancel_url":"c"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessionId":"free_subscription"}`, w.Body.String())
}

func TestApiCreateCheckoutSession_InvalidJSON(t *testing.T) {
	mgr := &stubManager{}
	r := newCheckoutRouter(mgr, "")

	w := postJSON(r, "/functions/v1/create-checkout-session", `{not json`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON body", decodeError(t, w).Error)
	assert.Nil(t, mgr.createReq)
}

func TestApiCreateCheckoutSession_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"missing", checkout.ErrMissingParameters, http.StatusBadRequest, "Missing required parameters"},
		{"plan", checkout.ErrPlanNotFound, http.StatusNotFound, "Pricing plan not found"},
		{"no url", &checkout.Failure{Kind: checkout.ErrCheckoutURLUnavailable, SessionID: "cs_9"}, http.StatusInternalServerError, "Failed to get checkout URL from Stripe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newCheckoutRouter(&stubManager{err: tc.err}, "")
			w := postJSON(r, "/functions/v1/create-checkout-session", `{"pricing_plan_id":"p","user_id":"u1","success_url":"s","cancel_url":"c"}`, nil)
			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decodeError(t, w).Error)
		})
	}
}

func TestApiCreateCheckoutSession_Preflight(t *testing.T) {
	r := newCheckoutRouter(&stubManager{}, "secret")
	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/create-checkout-session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
}

func TestApiVerifyCheckoutSession_AuthBindsUser(t *testing.T) {
	const secret = "s3cret"
	mgr := &stubManager{verifyRes: &checkout.VerifyCheckoutSessionResult{Success: true, Message: checkout.MessageSubscriptionExists}}
	r := newCheckoutRouter(mgr, secret)

	w := postJSON(r, "/functions/v1/verify-checkout-session", `{"session_id":"cs_1"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/functions/v1/verify-checkout-session", `{"session_id":"cs_1"}`,
		map[string]string{"Authorization": bearer(t, secret, "u1")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Subscription already exists"}`, w.Body.String())
	require.NotNil(t, mgr.verifyReq)
	assert.Equal(t, "u1", mgr.verifyReq.UserID)

	mgr.verifyReq = nil
	w = postJSON(r, "/functions/v1/verify-checkout-session", `{"session_id":"cs_1","user_id":"u2"}`,
		map[string]string{"Authorization": bearer(t, secret, "u1")})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User ID mismatch", decodeError(t, w).Error)
	assert.Nil(t, mgr.verifyReq)
}

func TestApiVerifyCheckoutSession_PaymentNotCompleted(t *testing.T) {
	mgr := &stubManager{err: &checkout.Failure{Kind: checkout.ErrPaymentNotCompleted, PaymentStatus: "unpaid"}}
	r := newCheckoutRouter(mgr, "")

	w := postJSON(r, "/functions/v1/verify-checkout-session", `{"session_id":"cs_1","user_id":"u1"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Payment not completed", body.Error)
	assert.Equal(t, "unpaid", body.PaymentStatus)
}

func TestApiStripeWebhook(t *testing.T) {
	mgr := &stubManager{}
	r := newCheckoutRouter(mgr, "")

	w := postJSON(r, "/api/v2/payment/webhook/stripe", `{"id":"evt_1"}`, map[string]string{"Stripe-Signature": "t=1,v1=abc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, `{"id":"evt_1"}`, string(mgr.payload))
	assert.Equal(t, "t=1,v1=abc", mgr.signature)
}

func TestApiStripeWebhook_InvalidSignature(t *testing.T) {
	mgr := &stubManager{webhookErr: checkout.ErrInvalidSignature}
	r := newCheckoutRouter(mgr, "")

	w := postJSON(r, "/api/v2/payment/webhook/stripe", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid webhook signature", decodeError(t, w).Error)
}

func TestApiStripeWebhook_BodyTooLarge(t *testing.T) {
	mgr := &stubManager{}
	r := newCheckoutRouter(mgr, "")

	big := bytes.Repeat([]byte("a"), maxWebhookBodyBytes+1)
	w := postJSON(r, "/api/v2/payment/webhook/stripe", string(big), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mgr.payload)
}
