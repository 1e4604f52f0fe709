package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/response"
)

func TestRegisterAdminRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1/admin")
	RegisterAdminRoutes(g, nil, nil)

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("POST /api/v1/admin/ledger/scan"))
	require.True(t, contains("POST /api/v1/admin/credits/adjust"))
	require.True(t, contains("POST /api/v1/admin/statistics"))
}

func TestApiGetCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Catalog: config.DefaultCatalog()}

	r := gin.New()
	r.GET("/api/v1/catalog", ApiGetCatalog(cfg))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res response.APIResponse[CatalogResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, response.APIResponseCodeOK, res.Code)
	assert.Len(t, res.Data.CreditPackages, 4)
	assert.Len(t, res.Data.SubscriptionPlans, 2)
}
