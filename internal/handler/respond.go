package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mollyslab/slabgate/internal/middleware"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
)

// respondError maps any service error to its HTTP status and JSON body
// and records it in the request's audit context.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	middleware.AddAuditContext(c, "error", appErr.Message)
	middleware.AddAuditContext(c, "error_code", string(appErr.Type))
	c.JSON(appErr.HTTPStatus, appErr)
}
