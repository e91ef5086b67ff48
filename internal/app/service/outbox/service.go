package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/logctx"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/metrics"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/tool"
)

type EventType string

const (
	EventTypeUserProfilePending EventType = "user.profile_pending"
	EventTypeInvoiceCreate      EventType = "invoice.create"
)

var (
	errTxRequired = errors.New("outbox: transaction required")
	errNoHandler  = errors.New("outbox: no handler registered")
)

// Event is what producers emit. Payload is stored as JSON.
type Event struct {
	Type        EventType
	AggregateID string
	Payload     any
}

// Handler applies one event inside tx. Handlers must be idempotent: an
// event may be delivered more than once.
type Handler func(ctx context.Context, tx *gorm.DB, payload []byte) error

type Service struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	metrics *metrics.Business

	mu       sync.RWMutex
	handlers map[EventType]Handler
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, m *metrics.Business) *Service {
	return &Service{db: db, log: log, metrics: m, handlers: make(map[EventType]Handler)}
}

func (s *Service) Register(t EventType, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[t] = h
}

func (s *Service) handler(t EventType) (Handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[t]
	return h, ok
}

// Emit records ev in tx; it becomes visible to dispatch only if tx commits.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, ev Event) (*models.OutboxEvent, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("outbox: marshal %s payload: %w", ev.Type, err)
	}
	row := &models.OutboxEvent{
		ID:          tool.GenerateUUIDV7(),
		EventType:   string(ev.Type),
		AggregateID: ev.AggregateID,
		Payload:     payload,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("outbox: insert %s: %w", ev.Type, err)
	}
	return row, nil
}

// Dispatch runs the handler for ev and marks it processed in the same
// transaction. On failure the attempt is recorded and the error returned.
func (s *Service) Dispatch(ctx context.Context, ev *models.OutboxEvent) error {
	if ev == nil {
		return nil
	}
	if ev.Processed() {
		return nil
	}
	lg := logctx.FromCtx(ctx, s.log).With("event_id", ev.ID, "event_type", ev.EventType)

	h, ok := s.handler(EventType(ev.EventType))
	if !ok {
		s.markFailed(ctx, ev, errNoHandler)
		s.metrics.OutboxEvent(ev.EventType, "no_handler")
		return fmt.Errorf("dispatch %s: %w", ev.EventType, errNoHandler)
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h(ctx, tx, ev.Payload); err != nil {
			return err
		}
		return tx.Model(&models.OutboxEvent{}).
			Where("id = ? AND processed_at IS NULL", ev.ID).
			Update("processed_at", now).Error
	})
	if err != nil {
		s.markFailed(ctx, ev, err)
		s.metrics.OutboxEvent(ev.EventType, "failed")
		lg.Warnw("outbox dispatch failed", "attempt", ev.AttemptCount, "err", err)
		return fmt.Errorf("dispatch %s %s: %w", ev.EventType, ev.ID, err)
	}
	ev.ProcessedAt = &now
	s.metrics.OutboxEvent(ev.EventType, "ok")
	lg.Debugw("outbox event processed")
	return nil
}

func (s *Service) markFailed(ctx context.Context, ev *models.OutboxEvent, cause error) {
	msg := cause.Error()
	err := s.db.WithContext(context.WithoutCancel(ctx)).Model(&models.OutboxEvent{}).
		Where("id = ?", ev.ID).
		Updates(map[string]any{
			"last_error":    msg,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("outbox mark failed", "event_id", ev.ID, "err", err)
		return
	}
	ev.AttemptCount++
	ev.LastError = &msg
}

// FetchPending returns unprocessed events below maxAttempts, oldest first.
func (s *Service) FetchPending(ctx context.Context, limit, maxAttempts int) ([]*models.OutboxEvent, error) {
	q := s.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("created_at ASC").
		Order("id ASC")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*models.OutboxEvent
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("outbox: fetch pending: %w", err)
	}
	return rows, nil
}

// ProcessPending dispatches one batch and reports how many events were
// processed. Individual failures are combined into the returned error.
func (s *Service) ProcessPending(ctx context.Context, limit, maxAttempts int) (int, error) {
	rows, err := s.FetchPending(ctx, limit, maxAttempts)
	if err != nil {
		return 0, err
	}
	var (
		processed int
		errs      error
	)
	for _, row := range rows {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		if err := s.Dispatch(ctx, row); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		processed++
	}
	return processed, errs
}

// Decode unmarshals an event payload into T.
func Decode[T any](payload []byte) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("outbox: decode payload: %w", err)
	}
	return v, nil
}
