package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de pedido.
const (
	OrderPending   = "Pending"
	OrderPaid      = "Paid"
	OrderCancelled = "Cancelled"
)

// Acciones registradas en el historial del pedido.
const (
	OrderActionCreated       = "Created"
	OrderActionPaid          = "Paid"
	OrderActionCancelled     = "Cancelled"
	OrderActionStatusUpdated = "StatusUpdated"
)

// ValidOrderStatus indica si s es uno de Pending, Paid o Cancelled.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderPaid, OrderCancelled:
		return true
	}
	return false
}

// Order cabecera de pedido. Status y OrderStatus son campos gemelos que deben coincidir.
type Order struct {
	ID            string
	CompanyID     string
	BranchID      string
	CustomerID    string
	Date          time.Time
	TotalAmount   decimal.Decimal
	Status        string
	OrderStatus   string
	PaymentMethod string
	CreatedBy     string
	Lines         []OrderLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderLine línea de pedido. LineTotal = Quantity × UnitPrice.
type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Line devuelve la línea del producto, o nil si el producto no pertenece al pedido.
func (o *Order) Line(productID string) *OrderLine {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			return &o.Lines[i]
		}
	}
	return nil
}

// OrderedQuantity suma la cantidad pedida de un producto (puede repetirse en varias líneas).
func (o *Order) OrderedQuantity(productID string) int {
	n := 0
	for _, l := range o.Lines {
		if l.ProductID == productID {
			n += l.Quantity
		}
	}
	return n
}

// OrderHistory fila de auditoría por transición de estado. Inmutable.
type OrderHistory struct {
	ID             string
	OrderID        string
	PreviousStatus string
	NewStatus      string
	Action         string
	ActorID        string
	Note           string
	CreatedAt      time.Time
}
