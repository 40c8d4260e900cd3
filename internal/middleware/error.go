package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
	"github.com/mollyslab/slabgate/internal/pkg/logger"
)

// ErrorHandler turns errors attached to the gin context into the
// standard {code, message, suggestion} response. Every taxonomy member
// is an expected outcome and logs at warn; only internal faults log at
// error level.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperrors.AppError

		if !errors.As(err, &appErr) {
			appErr = apperrors.New(apperrors.ErrInternal, err.Error(), err)
		}

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.Type,
			"client_ip", c.ClientIP(),
		}

		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "Internal Server Error", logFields...)
		} else {
			logger.Warn(appErr.Message, logFields...)
		}

		c.JSON(appErr.HTTPStatus, appErr)
	}
}
