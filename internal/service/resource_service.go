package service

import (
	"context"
	"errors"

	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/pkg/apperrors"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type UserRepo interface {
	Create(ctx context.Context, u *model.User) error
	List(ctx context.Context, limit, offset int) ([]model.User, error)
}

type OrderRepo interface {
	Create(ctx context.Context, o *model.Order) error
	List(ctx context.Context, limit, offset int) ([]model.Order, error)
}

func errStorageUnavailable() error {
	return apperrors.New(apperrors.ErrUnavailable, "database not configured", nil)
}

// storageError maps gorm's translated errors onto API errors.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.New(apperrors.ErrConflict, "duplicate key", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.New(apperrors.ErrInvalidRequest, "referenced record does not exist", err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.New(apperrors.ErrNotFound, "record not found", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.New(apperrors.ErrUpstream, "database call interrupted", err)
	default:
		return apperrors.New(apperrors.ErrInternal, "database error", err)
	}
}

func normalizePage(q model.ListQuery) (int, int) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type UserService struct {
	repo UserRepo
}

func NewUserService(repo UserRepo) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if s.repo == nil {
		return nil, errStorageUnavailable()
	}
	u := req.ToModel()
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, storageError(err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, q model.ListQuery) ([]model.User, error) {
	if s.repo == nil {
		return nil, errStorageUnavailable()
	}
	limit, offset := normalizePage(q)
	users, err := s.repo.List(ctx, limit, offset)
	return users, storageError(err)
}

type OrderService struct {
	repo OrderRepo
}

func NewOrderService(repo OrderRepo) *OrderService {
	return &OrderService{repo: repo}
}

func (s *OrderService) Create(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	if s.repo == nil {
		return nil, errStorageUnavailable()
	}
	o, err := req.ToModel()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidRequest, "invalid userId", err)
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, storageError(err)
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, q model.ListQuery) ([]model.Order, error) {
	if s.repo == nil {
		return nil, errStorageUnavailable()
	}
	limit, offset := normalizePage(q)
	orders, err := s.repo.List(ctx, limit, offset)
	return orders, storageError(err)
}
