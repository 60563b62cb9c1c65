package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ProductID   int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Category struct {
	CategoryID int64  `json:"id"`
	Name       string `json:"name" validate:"required,min=1,max=100"`
}

type User struct {
	UserID       int64     `json:"id"`
	Email        string    `json:"email" validate:"required,email,max=255"`
	Name         string    `json:"name" validate:"required,min=2,max=150"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductFilter narrows a catalog listing. Nil fields are not applied.
type ProductFilter struct {
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
}

// ProductPatch carries a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *int64
}

type OperationType string

const (
	OperationOutgoing   OperationType = "outgoing"
	OperationIncoming   OperationType = "incoming"
	OperationAdjustment OperationType = "adjustment"
)

// Operation is one row of the stock ledger.
type Operation struct {
	OperationID   int64         `json:"id"`
	ProductID     int64         `json:"product_id"`
	OrderID       *int64        `json:"order_id,omitempty"`
	OperationType OperationType `json:"operation_type"`
	ChangeQuant   int           `json:"change_quant"`
	CreatedAt     time.Time     `json:"created_at"`
}
