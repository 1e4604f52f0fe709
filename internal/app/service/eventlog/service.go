package eventlog

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/logctx"
	"github.com/faceflowai/ledger/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a payment event log row. Nil input is
// ignored; persistence failures are logged, never surfaced, so the audit
// trail can't block event processing.
func (s *Service) Save(ctx context.Context, row *models.PaymentEventLog) {
	go func() {
		if row == nil {
			return
		}
		if row.ID == "" {
			row.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(row).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save payment event log: %v", err)
		}
	}()
}

var Module = fx.Options(
	fx.Provide(New),
)
