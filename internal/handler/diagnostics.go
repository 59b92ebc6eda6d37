package handler

import (
	"net/http"
	"time"

	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/pkg/apperrors"
	"github.com/GoPolymarket/schemascope/internal/pkg/logger"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/GoPolymarket/schemascope/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

type DiagnosticsHandler struct {
	svc      *service.DiagnosticService
	upgrader websocket.Upgrader
}

func NewDiagnosticsHandler(svc *service.DiagnosticService) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The route sits behind DebugGuard; any origin holding the key may read.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type diagnosticsQuery struct {
	Limit     int    `form:"limit" binding:"omitempty,gte=0,lte=1000"`
	Method    string `form:"method"`
	MinStatus int    `form:"min_status" binding:"omitempty,gte=0,lte=599"`
	Resource  string `form:"resource"`
}

// List returns the newest records kept in memory, newest first.
func (h *DiagnosticsHandler) List(c *gin.Context) {
	var q diagnosticsQuery
	if !bindQuery(c, &q) {
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = 100
	}
	records := h.svc.Recent(service.RecentFilter{
		Limit:     limit,
		Method:    q.Method,
		MinStatus: q.MinStatus,
		Resource:  q.Resource,
	})
	if records == nil {
		records = []model.DiagnosticRecord{}
	}
	response.Emit(c, http.StatusOK, response.Success(gin.H{
		"records": records,
		"count":   len(records),
	}))
}

// Stream pushes every emitted record to a websocket client until it leaves.
func (h *DiagnosticsHandler) Stream(c *gin.Context) {
	hub := h.svc.Hub()
	if hub == nil {
		_ = c.Error(apperrors.New(apperrors.ErrUnavailable, "live stream disabled", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered with an HTTP error.
		logger.Ctx(c.Request.Context()).Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	records, cancel := hub.Subscribe()
	defer cancel()

	// Drain control frames; a read error means the client went away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(rec); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
