package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB and by the redis client wrapper.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Check reports ok when every configured dependency answers a ping.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, dep := range h.deps {
		if dep == nil {
			checks[name] = "disabled"
			continue
		}
		if err := dep.PingContext(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	response.Emit(c, status, response.Success(gin.H{"status": state, "checks": checks}))
}
