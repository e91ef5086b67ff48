package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

type StatisticType string

const (
	// Invoices
	StatisticTypeDailyInvoiceCount StatisticType = "daily_invoice_count"
	StatisticTypeDailyRevenue      StatisticType = "daily_revenue"
	StatisticTypeTotalRevenue      StatisticType = "total_revenue"

	// Subscriptions
	StatisticTypeDailyNewSubscriptionCount StatisticType = "daily_new_subscription_count"
	StatisticTypeTotalActiveSubscriptions  StatisticType = "total_active_subscriptions"
)

// Filter fields accepted by the statistics endpoint. Each applies only to
// the statistic types listed in validFilters.
type BillingStatisticFilterType string

const (
	BillingStatisticFilterTypeCurrency      BillingStatisticFilterType = "currency"
	BillingStatisticFilterTypePricingPlanID BillingStatisticFilterType = "pricing_plan_id"
	BillingStatisticFilterTypeCreatedAt     BillingStatisticFilterType = "created_at"
)

var validFilters = map[BillingStatisticFilterType][]StatisticType{
	BillingStatisticFilterTypeCurrency: {
		StatisticTypeDailyInvoiceCount, StatisticTypeDailyRevenue, StatisticTypeTotalActiveSubscriptions,
	},
	BillingStatisticFilterTypePricingPlanID: {
		StatisticTypeDailyNewSubscriptionCount, StatisticTypeTotalActiveSubscriptions,
	},
	BillingStatisticFilterTypeCreatedAt: {
		StatisticTypeDailyInvoiceCount, StatisticTypeDailyRevenue, StatisticTypeDailyNewSubscriptionCount,
	},
}

var filterFields = lo.Map(lo.Keys(validFilters), func(f BillingStatisticFilterType, _ int) string { return string(f) })

type BillingStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type BillingStatisticRequest struct {
	Filters   []*types.CommonFilter       `json:"filters"`
	DataItems []*BillingStatisticDataItem `json:"data_items"`
}

// Validate rejects unknown filter fields and operators.
func (r *BillingStatisticRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("nil request")
	}
	return types.ValidateFilters(r.Filters, filterFields)
}

// FiltersFor returns the filters that apply to statisticType.
func (r *BillingStatisticRequest) FiltersFor(statisticType StatisticType) types.FiltersAnd {
	if r == nil {
		return nil
	}
	return lo.Filter(r.Filters, func(f *types.CommonFilter, _ int) bool {
		return lo.Contains(validFilters[BillingStatisticFilterType(f.Field)], statisticType)
	})
}

type BillingStatisticResponseDataItem struct {
	Date  string          `json:"date,omitempty"`
	Label string          `json:"label,omitempty"`
	Value decimal.Decimal `json:"value"`
}

type BillingStatisticResponse struct {
	DataItems map[StatisticType][]BillingStatisticResponseDataItem `json:"data_items"`
}

// Service computes read-only operator statistics over invoices and subscriptions.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Service { return &Service{db: db, now: time.Now} }

func where(filters types.FiltersAnd) clause.Where {
	return clause.Where{Exprs: []clause.Expression{filters}}
}

func (s *Service) getDailyInvoiceCount(ctx context.Context, request *BillingStatisticRequest) ([]BillingStatisticResponseDataItem, error) {
	var results []BillingStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(models.Invoice{}.TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where("payment_status = ?", types.InvoicePaymentStatusPaid).
		Where(where(request.FiltersFor(StatisticTypeDailyInvoiceCount))).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyRevenue(ctx context.Context, request *BillingStatisticRequest) ([]BillingStatisticResponseDataItem, error) {
	var results []BillingStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(models.Invoice{}.TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, currency AS label, sum(total_amount) as value").
		Where("payment_status = ?", types.InvoicePaymentStatusPaid).
		Where(where(request.FiltersFor(StatisticTypeDailyRevenue))).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getTotalRevenue is the running revenue total per currency for every day
// between the first and the last invoice.
func (s *Service) getTotalRevenue(ctx context.Context, _ *BillingStatisticRequest) ([]BillingStatisticResponseDataItem, error) {
	var results []BillingStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(created_at)) as min_date, MAX(DATE(created_at)) as max_date
    FROM invoices WHERE payment_status = ?
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
dates AS (
    SELECT TO_CHAR(date, 'YYYY-MM-DD') as date FROM distinct_dates
),
currencies AS (
    SELECT DISTINCT currency as label FROM invoices WHERE payment_status = ?
),
date_currency_combinations AS (
    SELECT d.date, c.label FROM dates d CROSS JOIN currencies c
),
revenue_date AS (
    SELECT dc.date, dc.label, COALESCE(SUM(i.total_amount), 0) as value
    FROM date_currency_combinations dc
    LEFT JOIN invoices i
      ON TO_CHAR(i.created_at, 'YYYY-MM-DD') = dc.date
     AND i.currency = dc.label
     AND i.payment_status = ?
    GROUP BY dc.date, dc.label
)
SELECT d.date as date, d.label as label, SUM(s.value) as value
FROM revenue_date d
LEFT JOIN revenue_date s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`, types.InvoicePaymentStatusPaid, types.InvoicePaymentStatusPaid, types.InvoicePaymentStatusPaid).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewSubscriptionCount(ctx context.Context, request *BillingStatisticRequest) ([]BillingStatisticResponseDataItem, error) {
	var results []BillingStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(models.Subscription{}.TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(DISTINCT user_id) as value").
		Where(where(request.FiltersFor(StatisticTypeDailyNewSubscriptionCount))).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalActiveSubscriptions(ctx context.Context, request *BillingStatisticRequest) ([]BillingStatisticResponseDataItem, error) {
	var results []BillingStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(models.Subscription{}.TableName()).
		Select("count(*) as value").
		Where(where(request.FiltersFor(StatisticTypeTotalActiveSubscriptions))).
		Where("status = ?", types.SubscriptionStatusActive).
		Where("current_period_end >= ?", s.now())
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getBillingStatistic(ctx context.Context, request *BillingStatisticRequest, dataItem *BillingStatisticDataItem) ([]BillingStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyInvoiceCount:
		return s.getDailyInvoiceCount(ctx, request)
	case StatisticTypeDailyRevenue:
		return s.getDailyRevenue(ctx, request)
	case StatisticTypeTotalRevenue:
		return s.getTotalRevenue(ctx, request)
	case StatisticTypeDailyNewSubscriptionCount:
		return s.getDailyNewSubscriptionCount(ctx, request)
	case StatisticTypeTotalActiveSubscriptions:
		return s.getTotalActiveSubscriptions(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetBillingStatistic computes the requested data items concurrently. An
// item whose type a filter cannot apply to is returned empty.
func (s *Service) GetBillingStatistic(ctx context.Context, request *BillingStatisticRequest) (*BillingStatisticResponse, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []BillingStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		if item == nil {
			continue
		}
		wg.Add(1)
		go func(di *BillingStatisticDataItem) {
			defer wg.Done()
			for _, filter := range request.Filters {
				if !lo.Contains(validFilters[BillingStatisticFilterType(filter.Field)], di.ID) {
					resChan <- &lo.Entry[StatisticType, []BillingStatisticResponseDataItem]{Key: di.ID, Value: nil}
					return
				}
			}
			res, err := s.getBillingStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []BillingStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]BillingStatisticResponseDataItem)
	for errChan != nil || resChan != nil {
		select {
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			return nil, err
		case entry, ok := <-resChan:
			if !ok {
				resChan = nil
				continue
			}
			results[entry.Key] = entry.Value
		}
	}
	return &BillingStatisticResponse{DataItems: results}, nil
}
