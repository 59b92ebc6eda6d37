package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order belongs to a User; listing orders preloads it.
type Order struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   int64           `gorm:"uniqueIndex;not null" json:"orderId"`
	UserID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"userId"`
	User      *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status    string          `gorm:"default:pending" json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Public strips the nested user's private fields.
func (o Order) Public() Order {
	if o.User != nil {
		u := o.User.Public()
		o.User = &u
	}
	return o
}
