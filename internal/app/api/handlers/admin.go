package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ledgersvc "github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/internal/app/service/statistics"
	"github.com/faceflowai/ledger/pkg/response"
	"github.com/faceflowai/ledger/pkg/types"
)

// @Summary      Scan Ledger (Admin)
// @Description  Retrieves a paginated and filterable list of ledger transactions across all accounts.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ledger.ScanTransactionsRequest true "Scan request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespScanLedger
// @Router       /api/v1/admin/ledger/scan [post]
func ApiScanLedger(svc *ledgersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledgersvc.ScanTransactionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanTransactions(c.Request.Context(), &req)
		if err != nil {
			respondInternalError(c, "ledger scan failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type AdjustCreditsRequest struct {
	AccountID   string `json:"account_id"`
	Delta       int64  `json:"delta"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	OperatorID  string `json:"operator_id"`
}

// @Summary      Adjust Credits (Admin)
// @Description  Applies a manual credit adjustment or refund compensation to an account.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body AdjustCreditsRequest true "Adjustment request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/credits/adjust [post]
func ApiAdjustCredits(svc *ledgersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdjustCreditsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.AccountID == "" || req.OperatorID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing account_id or operator_id"))
			return
		}
		kind := types.LedgerEntryKind(req.Kind)
		if kind == "" {
			kind = types.LedgerEntryKindAdjustment
		}

		desc := req.Description
		if desc == "" {
			desc = "Manual adjustment by " + req.OperatorID
		}
		err := svc.AdjustCredits(c.Request.Context(), req.AccountID, req.Delta, kind, desc)
		switch {
		case errors.Is(err, ledgersvc.ErrAccountNotFound):
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, nil))
			return
		case errors.Is(err, ledgersvc.ErrInvalidAdjustment):
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		case err != nil:
			respondInternalError(c, "credits adjust failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Get Ledger Statistics (Admin)
// @Description  Retrieves daily ledger statistics for the requested data items.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.StatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespStatistics
// @Router       /api/v1/admin/statistics [post]
func ApiGetStatistics(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.StatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetStatistics(c.Request.Context(), &req)
		if errors.Is(err, statistics.ErrInvalidDataItem) {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err != nil {
			respondInternalError(c, "statistics failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, svc *ledgersvc.Service, stats *statistics.Service) {
	r.POST("/ledger/scan", ApiScanLedger(svc))
	r.POST("/credits/adjust", ApiAdjustCredits(svc))
	r.POST("/statistics", ApiGetStatistics(stats))
}
