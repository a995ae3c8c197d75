package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Disponibilidad del producto, derivada de UnitStock == 0.
const (
	ProductAvailable   = "YES"
	ProductUnavailable = "NO"
)

// Product representa un producto vendible de una sucursal.
// UnitStock solo cambia vía descuento/reposición del inventario, nunca directamente desde pedidos.
type Product struct {
	ID             string
	CompanyID      string
	BranchID       string
	SKU            string
	Name           string
	Price          decimal.Decimal
	UnitStock      int
	StockThreshold int
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Available indica si el producto está marcado como disponible.
func (p *Product) Available() bool { return p.Status == ProductAvailable }
