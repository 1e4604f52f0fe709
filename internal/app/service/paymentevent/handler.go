package paymentevent

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/faceflowai/ledger/internal/app/service/eventlog"
	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/internal/platform/stripepay"
)

// Handler is the webhook entry point: it verifies the payload signature,
// parses the typed event, audits it, and runs it through the Processor.
type Handler struct {
	stripe    *stripepay.Client
	processor *Processor
	eventLog  *eventlog.Service
	Logger    *zap.SugaredLogger
}

func NewHandler(stripe *stripepay.Client, processor *Processor, eventLog *eventlog.Service, log *zap.SugaredLogger) *Handler {
	return &Handler{stripe: stripe, processor: processor, eventLog: eventLog, Logger: log}
}

// HandleWebhook processes one inbound notification and reports the event
// kind it recognized. Signature verification happens before anything else; a
// failing payload is rejected without being parsed or persisted.
func (h *Handler) HandleWebhook(c *gin.Context) (kind Kind, resErr error) {
	payload, err := c.GetRawData()
	if err != nil {
		return KindUnknown, fmt.Errorf("failed to read webhook body: %w", err)
	}

	stripeEv, err := h.stripe.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		return KindUnknown, err
	}

	ev, err := FromStripeEvent(stripeEv)
	if err != nil {
		return KindUnknown, err
	}

	var traceID string
	if v, ok := c.Get("traceID"); ok {
		if s, ok2 := v.(string); ok2 {
			traceID = s
		}
	}

	// Save 'received' log; the payload is safe to persist once verified.
	h.eventLog.Save(c.Request.Context(), &models.PaymentEventLog{
		EventID:   ev.ID,
		EventKind: string(ev.Kind),
		TraceID:   traceID,
		EventTime: ev.OccurredAt,
		Data:      datatypes.JSON(stripeEv.Data.Raw),
		Status:    models.PaymentEventLogStatusReceived,
	})

	defer func() {
		resMap := map[string]any{}
		if resErr != nil {
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		status := models.PaymentEventLogStatusHandled
		if resErr != nil {
			status = models.PaymentEventLogStatusHandleFailed
		}
		h.eventLog.Save(c.Request.Context(), &models.PaymentEventLog{
			EventID:   ev.ID,
			EventKind: string(ev.Kind),
			TraceID:   traceID,
			EventTime: ev.OccurredAt,
			Data:      datatypes.JSON(stripeEv.Data.Raw),
			Result:    func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }(),
			Status:    status,
		})
	}()

	resErr = h.processor.Process(c.Request.Context(), ev)
	return ev.Kind, resErr
}

var Module = fx.Options(
	fx.Provide(NewProcessor),
	fx.Provide(NewHandler),
)
