package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/faceflowai/ledger/pkg/response"
)

// respondInternalError logs the failure detail on the request-scoped logger
// and answers with the stable internal-error code. The underlying error text
// never reaches the caller.
func respondInternalError(c *gin.Context, op string, err error) {
	if l, ok := c.Get("logger"); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			lg.Errorw(op, "error", err.Error())
		}
	}
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, nil))
}
