package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faceflowai/ledger/internal/app/api/middleware"
	ledgersvc "github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/response"
	"github.com/faceflowai/ledger/pkg/types"
)

type AccountResponse struct {
	UserID                string                   `json:"user_id"`
	FreeUsed              int64                    `json:"free_used"`
	FreeLimit             int64                    `json:"free_limit"`
	CreditBalance         int64                    `json:"credit_balance"`
	SubscriptionStatus    types.SubscriptionStatus `json:"subscription_status"`
	SubscriptionTier      types.SubscriptionTier   `json:"subscription_tier"`
	SubscriptionPeriodEnd *time.Time               `json:"subscription_period_end"`
}

type CreditsResponse struct {
	Balance       int64                       `json:"balance"`
	LifetimeTotal int64                       `json:"lifetime_total"`
	Transactions  []*models.LedgerTransaction `json:"transactions"`
}

// @Summary      Get Account
// @Description  Returns the caller's entitlement account. Accounts are created on first sight.
// @Tags         Ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespAccount
// @Router       /api/v1/account [get]
func ApiGetAccount(svc *ledgersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, err := svc.EnsureAccount(c.Request.Context(), c.GetString(middleware.ContextKeyUserID))
		if err != nil {
			respondInternalError(c, "get account failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&AccountResponse{
			UserID:                acct.UserID,
			FreeUsed:              acct.FreeUsed,
			FreeLimit:             acct.FreeLimit,
			CreditBalance:         acct.CreditBalance,
			SubscriptionStatus:    acct.SubscriptionStatus,
			SubscriptionTier:      acct.SubscriptionTier,
			SubscriptionPeriodEnd: acct.SubscriptionPeriodEnd,
		}))
	}
}

// @Summary      Get Credits
// @Description  Returns the caller's credit balance, lifetime purchased total and recent ledger entries.
// @Tags         Ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespCredits
// @Router       /api/v1/credits [get]
func ApiGetCredits(svc *ledgersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, err := svc.GetAccountByUserID(c.Request.Context(), c.GetString(middleware.ContextKeyUserID))
		if errors.Is(err, ledgersvc.ErrAccountNotFound) {
			// Never purchased or consumed anything yet.
			c.JSON(http.StatusOK, response.OKT(&CreditsResponse{Transactions: []*models.LedgerTransaction{}}))
			return
		}
		if err != nil {
			respondInternalError(c, "get credits failed", err)
			return
		}

		rows, err := svc.RecentTransactions(c.Request.Context(), acct.ID, 50)
		if err != nil {
			respondInternalError(c, "get credits failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CreditsResponse{
			Balance:       acct.CreditBalance,
			LifetimeTotal: acct.CreditLifetimeTotal,
			Transactions:  rows,
		}))
	}
}
