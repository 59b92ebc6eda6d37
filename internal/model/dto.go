package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateUserRequest represents the incoming JSON body for POST /users.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Age      *int   `json:"age" binding:"omitempty,gte=0,lte=150"`
	Role     string `json:"role" binding:"omitempty,oneof=user admin"`
}

func (r CreateUserRequest) ToModel() *User {
	u := &User{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     r.Role,
	}
	if r.Age != nil {
		u.Age = *r.Age
	}
	return u
}

// CreateOrderRequest represents the incoming JSON body for POST /orders.
type CreateOrderRequest struct {
	OrderID *int64   `json:"orderId" binding:"required"`
	UserID  string   `json:"userId" binding:"required,uuid"`
	Amount  *float64 `json:"amount" binding:"required,gt=0"`
	Status  string   `json:"status" binding:"omitempty,oneof=pending paid shipped cancelled"`
}

func (r CreateOrderRequest) ToModel() (*Order, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, err
	}
	o := &Order{
		UserID: userID,
		Status: r.Status,
	}
	if r.OrderID != nil {
		o.OrderID = *r.OrderID
	}
	if r.Amount != nil {
		o.Amount = decimal.NewFromFloat(*r.Amount).Round(2)
	}
	return o, nil
}

// ListQuery is the pagination shared by list endpoints.
type ListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}
