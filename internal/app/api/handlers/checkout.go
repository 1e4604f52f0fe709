package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faceflowai/ledger/internal/app/api/middleware"
	checkoutsvc "github.com/faceflowai/ledger/internal/app/service/checkout"
	ledgersvc "github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/pkg/response"
	"github.com/faceflowai/ledger/pkg/types"
)

type CheckoutRequest struct {
	Mode types.CheckoutMode `json:"mode"`
	// PackageID selects a credit package when Mode is "credits".
	PackageID string `json:"package_id"`
	// PlanID and Interval select a subscription price when Mode is
	// "subscription". Interval defaults to monthly.
	PlanID   string                `json:"plan_id"`
	Interval types.BillingInterval `json:"interval"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// @Summary      Start Checkout
// @Description  Creates a payment-provider checkout session for a credit package or a subscription plan and returns the redirect URL.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CheckoutRequest true "Checkout request"
// @Success      200  {object}  handlers.RespCheckout
// @Router       /api/v1/checkout [post]
func ApiStartCheckout(svc *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		userID := c.GetString(middleware.ContextKeyUserID)
		email := c.GetString(middleware.ContextKeyUserEmail)

		var (
			url string
			err error
		)
		switch req.Mode {
		case types.CheckoutModeCredits:
			url, err = svc.StartCreditCheckout(c.Request.Context(), userID, email, req.PackageID)
		case types.CheckoutModeSubscription:
			if req.Interval == "" {
				req.Interval = types.BillingIntervalMonthly
			}
			url, err = svc.StartSubscriptionCheckout(c.Request.Context(), userID, email, req.PlanID, req.Interval)
		default:
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid checkout mode"))
			return
		}

		if err != nil {
			if errors.Is(err, checkoutsvc.ErrUnknownPackage) ||
				errors.Is(err, checkoutsvc.ErrUnknownPlan) ||
				errors.Is(err, checkoutsvc.ErrPlanNotPurchasable) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			respondInternalError(c, "checkout failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CheckoutResponse{URL: url}))
	}
}

// @Summary      Billing Portal
// @Description  Creates a payment-provider billing portal session for subscription management.
// @Tags         Billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespCheckout
// @Router       /api/v1/billing/portal [post]
func ApiBillingPortal(svc *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, err := svc.StartPortalSession(c.Request.Context(), c.GetString(middleware.ContextKeyUserID))
		if errors.Is(err, ledgersvc.ErrAccountNotFound) {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, "no billing account"))
			return
		}
		if err != nil {
			respondInternalError(c, "billing portal failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CheckoutResponse{URL: url}))
	}
}
