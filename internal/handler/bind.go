package handler

import (
	"net/http"

	"github.com/GoPolymarket/schemascope/internal/pkg/apperrors"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/GoPolymarket/schemascope/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindJSON binds the request body into dst. On failure it has already
// answered the request and returns false.
func bindJSON(c *gin.Context, subject string, dst any) bool {
	err := c.ShouldBindBodyWith(dst, binding.JSON)
	if err == nil {
		return true
	}
	var raw []byte
	if v, ok := c.Get(gin.BodyBytesKey); ok {
		raw, _ = v.([]byte)
	}
	if failure := validation.FromBindError(subject, err, raw); failure != nil {
		response.Emit(c, http.StatusBadRequest, response.Invalid(failure))
		return false
	}
	_ = c.Error(apperrors.New(apperrors.ErrInvalidRequest, "invalid request body", err))
	return false
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInvalidRequest, "invalid query", err))
		return false
	}
	return true
}
