package middleware

import (
	"github.com/GoPolymarket/schemascope/internal/pkg/apperrors"
	"github.com/GoPolymarket/schemascope/internal/pkg/logger"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle if there are errors
		if len(c.Errors) == 0 {
			return
		}

		// A handler that already answered keeps its response.
		if c.Writer.Written() {
			return
		}

		appErr := apperrors.Wrap(c.Errors.Last().Err)

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.Type,
			"client_ip", c.ClientIP(),
		}

		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "Internal Server Error", logFields...)
		} else {
			logger.Ctx(c.Request.Context()).Warn(appErr.Message, logFields...)
		}

		response.Emit(c, appErr.HTTPStatus, response.Failed(appErr))
	}
}
