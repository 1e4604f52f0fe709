package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/response"
	"github.com/faceflowai/ledger/pkg/types"
)

type CatalogResponse struct {
	CreditPackages    []*types.CreditPackage    `json:"credit_packages"`
	SubscriptionPlans []*types.SubscriptionPlan `json:"subscription_plans"`
}

// @Summary      Get Catalog
// @Description  Returns the purchasable credit packages and subscription plans.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespCatalog
// @Router       /api/v1/catalog [get]
func ApiGetCatalog(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(&CatalogResponse{
			CreditPackages:    cfg.Catalog.CreditPackages,
			SubscriptionPlans: cfg.Catalog.SubscriptionPlans,
		}))
	}
}
