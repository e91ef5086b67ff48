package checkout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/outbox"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/payment_log"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/internal/platform/db/dbtest"
	redislock "github.com/superstar643/PITCHINVEST-sub001/internal/platform/redis"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/config"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

var (
	fixedNow    = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	periodStart = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
)

type testEnv struct {
	svc   *Service
	gw    *fakeGateway
	db    *gorm.DB
	ob    *outbox.Service
	plog  *payment_log.Service
	store *subscription.Service
}

func newTestEnv(t *testing.T, locker redislock.Locker) *testEnv {
	t.Helper()
	gdb := dbtest.NewSQLite(t)
	log := zap.NewNop().Sugar()

	store := subscription.NewService(gdb, log)
	ob := outbox.NewService(gdb, log, nil)
	RegisterOutboxHandlers(ob, store)
	plog := payment_log.New(gdb, log)
	t.Cleanup(plog.Wait)

	gw := newFakeGateway()
	svc := NewService(&config.Config{}, gw, store, ob, plog, locker, nil, log)
	svc.now = func() time.Time { return fixedNow }

	seed(t, gdb)
	return &testEnv{svc: svc, gw: gw, db: gdb, ob: ob, plog: plog, store: store}
}

func seed(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	desc := "Everything in Free, plus investor messaging"
	require.NoError(t, gdb.Create(&models.PricingPlan{
		ID:           "plan-pro",
		PlanName:     "Pro",
		Description:  &desc,
		MonthlyPrice: decimal.RequireFromString("19.99"),
		Currency:     "USD",
	}).Error)
	require.NoError(t, gdb.Create(&models.PricingPlan{
		ID:           "plan-free",
		PlanName:     "Free",
		MonthlyPrice: decimal.Zero,
		Currency:     "USD",
	}).Error)
	require.NoError(t, gdb.Create(&models.User{ID: "u1", Email: "founder@example.com", ProfileStatus: types.ProfileStatusIncomplete}).Error)
	require.NoError(t, gdb.Create(&models.User{ID: "u2", ProfileStatus: types.ProfileStatusIncomplete}).Error)
}

func count(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func createReq(planID, userID string) *CreateCheckoutSessionRequest {
	return &CreateCheckoutSessionRequest{
		PricingPlanID: planID,
		UserID:        userID,
		SuccessURL:    "https://x/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://x/cancel",
	}
}
