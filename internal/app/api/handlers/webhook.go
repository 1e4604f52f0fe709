package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faceflowai/ledger/internal/app/service/paymentevent"
	"github.com/faceflowai/ledger/internal/platform/stripepay"
	"github.com/faceflowai/ledger/pkg/logctx"
	"github.com/faceflowai/ledger/pkg/metrics"
)

// @Summary      Stripe Webhook
// @Description  Handles Stripe event notifications. The Stripe-Signature header must match the endpoint secret.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/v1/webhook/stripe [post]
// ApiStripeWebhook answers with plain HTTP status codes because the provider
// retries on any non-2xx: 400 stops retries for unverifiable payloads, 500
// asks for redelivery after a processing failure.
func ApiStripeWebhook(h *paymentevent.Handler, m *metrics.Exporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		logctx.FromCtx(c, h.Logger).Infow("webhook_stripe_received")

		kind, err := h.HandleWebhook(c)
		if err != nil {
			if errors.Is(err, stripepay.ErrInvalidSignature) {
				// Do not echo any payload detail back.
				logctx.FromCtx(c, h.Logger).Warnw("webhook_stripe_bad_signature")
				m.ObservePaymentEvent(string(kind), "bad_signature")
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
				return
			}
			logctx.FromCtx(c, h.Logger).Errorw("webhook_stripe_handle_error", "error", err.Error())
			m.ObservePaymentEvent(string(kind), "error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
			return
		}

		logctx.FromCtx(c, h.Logger).Infow("webhook_stripe_handled", "kind", kind)
		m.ObservePaymentEvent(string(kind), "ok")
		c.JSON(http.StatusOK, gin.H{"received": "true"})
	}
}
