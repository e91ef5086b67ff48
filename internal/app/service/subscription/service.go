package subscription

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/internal/platform/db"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/logctx"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

var (
	// ErrSubscriptionExists marks a duplicate (user_id, provider_subscription_id).
	ErrSubscriptionExists = errors.New("subscription already exists")
	// ErrInvoiceExists marks a duplicate (subscription_id, billing_period_start).
	ErrInvoiceExists = errors.New("invoice already exists")
)

// Service is the billing datastore: plans, users, subscriptions and invoices.
// Methods taking a tx run on it when non-nil so callers can compose them in
// one transaction.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// GetPricingPlan returns gorm.ErrRecordNotFound (wrapped) when absent.
func (s *Service) GetPricingPlan(ctx context.Context, id string) (*models.PricingPlan, error) {
	var plan models.PricingPlan
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, fmt.Errorf("get pricing plan %s: %w", id, err)
	}
	return &plan, nil
}

// GetBillingEmail returns the user's email, or "" when the user has none or
// no user row exists.
func (s *Service) GetBillingEmail(ctx context.Context, userID string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "email").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if db.IsNotFound(err) {
			logctx.FromCtx(ctx, s.log).Warnw("billing user not found", "user_id", userID)
			return "", nil
		}
		return "", fmt.Errorf("get user %s: %w", userID, err)
	}
	return user.Email, nil
}

// FindProviderCustomerID returns the most recent provider customer id
// recorded for the user, or "".
func (s *Service) FindProviderCustomerID(ctx context.Context, userID string) (string, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Select("provider_customer_id").
		Where("user_id = ? AND provider_customer_id IS NOT NULL AND provider_customer_id <> ''", userID).
		Order("created_at DESC").
		Take(&sub).Error
	if err != nil {
		if db.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("find provider customer for %s: %w", userID, err)
	}
	if sub.ProviderCustomerID == nil {
		return "", nil
	}
	return *sub.ProviderCustomerID, nil
}

// FindByProviderSubscriptionID returns nil without error when no row matches.
func (s *Service) FindByProviderSubscriptionID(ctx context.Context, userID, providerSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider_subscription_id = ?", userID, providerSubscriptionID).
		Take(&sub).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find subscription %s: %w", providerSubscriptionID, err)
	}
	return &sub, nil
}

// CreateSubscription inserts sub. A unique violation is reported as
// ErrSubscriptionExists.
func (s *Service) CreateSubscription(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	if sub == nil {
		return fmt.Errorf("nil subscription")
	}
	if err := s.conn(ctx, tx).Create(sub).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return ErrSubscriptionExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// CreateInvoice inserts inv unless an invoice for the same subscription
// period exists, in which case it returns ErrInvoiceExists. The conflict is
// absorbed by the statement so an enclosing transaction stays usable.
func (s *Service) CreateInvoice(ctx context.Context, tx *gorm.DB, inv *models.Invoice) error {
	if inv == nil {
		return fmt.Errorf("nil invoice")
	}
	res := s.conn(ctx, tx).Clauses(clause.OnConflict{DoNothing: true}).Create(inv)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error) {
			return ErrInvoiceExists
		}
		return fmt.Errorf("insert invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvoiceExists
	}
	return nil
}

// MarkProfilePending moves the user's profile to pending approval. A
// missing user row is not an error.
func (s *Service) MarkProfilePending(ctx context.Context, tx *gorm.DB, userID string) error {
	res := s.conn(ctx, tx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("profile_status", types.ProfileStatusPending)
	if res.Error != nil {
		return fmt.Errorf("update profile status for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		logctx.FromCtx(ctx, s.log).Warnw("profile status not updated, user row missing", "user_id", userID)
	}
	return nil
}
