package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para registrar un producto con su stock inicial.
type CreateProductRequest struct {
	SKU            string          `json:"sku" validate:"required,min=1,max=100"`
	Name           string          `json:"name" validate:"required,min=1,max=200"`
	Price          decimal.Decimal `json:"price"`
	UnitStock      int             `json:"unit_stock" validate:"min=0"`
	StockThreshold int             `json:"stock_threshold" validate:"min=0"`
}

// AdjustStockRequest reposición manual de stock.
type AdjustStockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"company_id"`
	BranchID       string          `json:"branch_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	UnitStock      int             `json:"unit_stock"`
	StockThreshold int             `json:"stock_threshold"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
