package payment_log

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/logctx"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/tool"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	wg  sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Entry describes one stage of a checkout call.
type Entry struct {
	Kind      models.PaymentLogKind
	Status    models.PaymentLogStatus
	UserID    string
	SessionID string
	Data      any
	Result    any
}

// Record builds a payment log row from e and saves it asynchronously.
func (s *Service) Record(ctx context.Context, e Entry) {
	if s == nil {
		return
	}
	row := &models.PaymentLog{
		ID:         tool.GenerateUUIDV7(),
		ProviderID: string(types.PaymentProviderStripe),
		Kind:       e.Kind,
		TraceID:    logctx.TraceID(ctx),
		SessionID:  e.SessionID,
		Status:     e.Status,
	}
	if e.UserID != "" {
		uid := e.UserID
		row.UserID = &uid
	}
	if e.Data != nil {
		row.Data = s.toJSON(ctx, e.Data)
	}
	if e.Result != nil {
		res := s.toJSON(ctx, e.Result)
		row.Result = &res
	}
	s.Save(ctx, row)
}

func (s *Service) toJSON(ctx context.Context, v any) datatypes.JSON {
	if err, ok := v.(error); ok {
		v = map[string]string{"error": err.Error()}
	}
	b, err := json.Marshal(v)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("payment log payload not serializable", "err", err)
		return datatypes.JSON("null")
	}
	return b
}

// Save asynchronously persists a payment log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.PaymentLog) {
	if log == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if log.ID == "" {
			log.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save payment log: %v", err)
		}
	}()
}

// Wait blocks until pending saves have finished.
func (s *Service) Wait() {
	if s != nil {
		s.wg.Wait()
	}
}
