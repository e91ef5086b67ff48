package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/outbox"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/payment_log"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/internal/platform/db"
	redislock "github.com/superstar643/PITCHINVEST-sub001/internal/platform/redis"
	pkgstripe "github.com/superstar643/PITCHINVEST-sub001/internal/platform/stripe"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/config"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/metrics"
)

const (
	defaultVerifyLockTTL = 30 * time.Second
	lockRetryAttempts    = 5
	lockRetryDelay       = 200 * time.Millisecond
)

// Service implements Manager on top of Stripe and the billing datastore.
type Service struct {
	gateway    pkgstripe.Gateway
	store      *subscription.Service
	outbox     *outbox.Service
	paymentLog *payment_log.Service
	locker     redislock.Locker
	metrics    *metrics.Business
	log        *zap.SugaredLogger
	validate   *validator.Validate

	lockTTL time.Duration
	now     func() time.Time
}

var _ Manager = (*Service)(nil)

func NewService(
	cfg *config.Config,
	gateway pkgstripe.Gateway,
	store *subscription.Service,
	ob *outbox.Service,
	paymentLog *payment_log.Service,
	locker redislock.Locker,
	m *metrics.Business,
	log *zap.SugaredLogger,
) *Service {
	ttl := cfg.Checkout.VerifyLockTTL
	if ttl <= 0 {
		ttl = defaultVerifyLockTTL
	}
	if locker == nil {
		locker = redislock.NopLocker{}
	}
	return &Service{
		gateway:    gateway,
		store:      store,
		outbox:     ob,
		paymentLog: paymentLog,
		locker:     locker,
		metrics:    m,
		log:        log,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		lockTTL:    ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) loadPlan(ctx context.Context, id string) (*models.PricingPlan, error) {
	plan, err := s.store.GetPricingPlan(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// lockSession serializes verifications of one session. Redis failures do
// not block verification; the unique index still guards the insert.
func (s *Service) lockSession(ctx context.Context, sessionID string) (func(), error) {
	key := "checkout:verify:" + sessionID
	lg := s.log.With("lock_key", key)
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("wait for verify lock: %w", err)
		}
		lease, err := s.locker.Obtain(ctx, key, s.lockTTL)
		if err == nil {
			return func() {
				if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
					lg.Warnw("release verify lock", "err", err)
				}
			}, nil
		}
		if !errors.Is(err, redislock.ErrNotObtained) {
			lg.Warnw("verify lock unavailable, continuing without it", "err", err)
			return func() {}, nil
		}
		if attempt >= lockRetryAttempts {
			lg.Warnw("verify lock still held, continuing without it", "attempts", attempt)
			return func() {}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for verify lock: %w", ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}
}
