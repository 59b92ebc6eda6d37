package middleware

import (
	"crypto/subtle"

	"github.com/GoPolymarket/schemascope/internal/config"
	"github.com/GoPolymarket/schemascope/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

const HeaderDebugKey = "X-Debug-Key"

// DebugGuard protects the /debug routes. Without a configured key they stay
// open, except in release mode where they are refused.
func DebugGuard(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ""
		if cfg != nil {
			key = cfg.Debug.Key
		}
		if key == "" {
			if gin.Mode() == gin.ReleaseMode {
				_ = c.Error(apperrors.New(apperrors.ErrForbidden, "debug key not configured", nil))
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(HeaderDebugKey)), []byte(key)) != 1 {
			_ = c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid debug key", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
