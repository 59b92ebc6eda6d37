package handler

import (
	"net/http"

	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/GoPolymarket/schemascope/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if !bindJSON(c, "User", &req) {
		return
	}

	user, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Emit(c, http.StatusCreated, response.Success(user.Public()))
}

func (h *UserHandler) List(c *gin.Context) {
	var q model.ListQuery
	if !bindQuery(c, &q) {
		return
	}

	users, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	response.Emit(c, http.StatusOK, response.Success(out))
}
