package handler

import (
	"net/http"

	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/GoPolymarket/schemascope/internal/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req model.CreateOrderRequest
	if !bindJSON(c, "Order", &req) {
		return
	}

	order, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Emit(c, http.StatusCreated, response.Success(order.Public()))
}

func (h *OrderHandler) List(c *gin.Context) {
	var q model.ListQuery
	if !bindQuery(c, &q) {
		return
	}

	orders, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Public())
	}
	response.Emit(c, http.StatusOK, response.Success(out))
}
