package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faceflowai/ledger/internal/app/api/middleware"
	ledgersvc "github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/pkg/metrics"
	"github.com/faceflowai/ledger/pkg/response"
)

type ConsumeRequest struct {
	// Cost defaults to one unit when omitted.
	Cost int64 `json:"cost"`
}

type consumeDeniedResp struct {
	Reason string `json:"reason"`
}

// @Summary      Consume Entitlement
// @Description  Atomically spends entitlement for one generation: subscription first, then free quota, then credits.
// @Tags         Ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ConsumeRequest false "Consumption request"
// @Success      200  {object}  handlers.RespConsume
// @Router       /api/v1/consume [post]
func ApiConsume(svc *ledgersvc.Service, m *metrics.Exporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConsumeRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
		}

		res, err := svc.Consume(c.Request.Context(), c.GetString(middleware.ContextKeyUserID), req.Cost)
		if err != nil {
			var denied *ledgersvc.NoEntitlementError
			switch {
			case errors.As(err, &denied):
				m.ObserveConsume("denied", "")
				c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeNoEntitlement,
					consumeDeniedResp{Reason: string(denied.Reason)}))
			case errors.Is(err, ledgersvc.ErrAccountNotFound):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, nil))
			case errors.Is(err, ledgersvc.ErrConcurrentModification):
				m.ObserveConsume("conflict", "")
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeTransient, nil))
			default:
				m.ObserveConsume("error", "")
				respondInternalError(c, "consume failed", err)
			}
			return
		}

		m.ObserveConsume("ok", string(res.Source))
		c.JSON(http.StatusOK, response.OKT(res))
	}
}
