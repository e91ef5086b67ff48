package subscription

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

const (
	defaultScanSize = 10
	maxScanSize     = 500
)

type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse[T any] struct {
	Items []*T  `json:"items"`
	Total int64 `json:"total"`
}

var subscriptionColumns = []string{
	"id", "user_id", "pricing_plan_id", "status", "monthly_price", "currency", "payment_provider",
	"provider_customer_id", "provider_subscription_id", "current_period_start", "current_period_end",
	"created_at", "updated_at",
}

var invoiceColumns = []string{
	"id", "subscription_id", "user_id", "invoice_type", "subtotal", "tax_amount", "total_amount",
	"currency", "payment_status", "billing_period_start", "billing_period_end", "due_date", "paid_at",
	"created_at", "updated_at",
}

// ScanSubscriptions implements paginated/admin listing with filters
func (s *Service) ScanSubscriptions(ctx context.Context, req *ScanRequest) (*ScanResponse[models.Subscription], error) {
	return scan[models.Subscription](s.db.WithContext(ctx).Model(&models.Subscription{}), req, subscriptionColumns)
}

// ScanInvoices implements paginated/admin listing with filters
func (s *Service) ScanInvoices(ctx context.Context, req *ScanRequest) (*ScanResponse[models.Invoice], error) {
	return scan[models.Invoice](s.db.WithContext(ctx).Model(&models.Invoice{}), req, invoiceColumns)
}

// ListUserSubscriptions scans one user's subscriptions, newest first by default.
func (s *Service) ListUserSubscriptions(ctx context.Context, userID string, req *ScanRequest) (*ScanResponse[models.Subscription], error) {
	if req == nil {
		req = &ScanRequest{}
	}
	scoped := *req
	scoped.Filters = append([]*types.CommonFilter{{Field: "user_id", Operator: types.CommonFilterOperatorEq, Values: []any{userID}}}, req.Filters...)
	if scoped.SortBy == "" {
		scoped.SortBy = "created_at"
	}
	return s.ScanSubscriptions(ctx, &scoped)
}

func scan[T any](tx *gorm.DB, req *ScanRequest, columns []string) (*ScanResponse[T], error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFilters(req.Filters, columns); err != nil {
		return nil, err
	}
	if req.SortBy != "" && !lo.Contains(columns, req.SortBy) {
		return nil, fmt.Errorf("sort field %q is not allowed", req.SortBy)
	}
	size := req.Size
	if size <= 0 {
		size = defaultScanSize
	}
	size = min(size, maxScanSize)
	from := max(req.From, 0)

	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	q := tx.Limit(size)
	if from > 0 {
		q = q.Offset(from)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}

	rows := make([]*T, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	return &ScanResponse[T]{Items: rows, Total: total}, nil
}
