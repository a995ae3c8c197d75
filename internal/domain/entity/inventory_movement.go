package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeIN  = "IN"  // reposición (cancelación, devolución, ajuste)
	MovementTypeOUT = "OUT" // descuento por venta
)

// InventoryMovement traza de auditoría de cada descuento o reposición de stock.
type InventoryMovement struct {
	ID            string
	ProductID     string
	TransactionID string // pedido o devolución que originó el movimiento
	Type          string
	Quantity      int // positivo entrada, negativo salida
	StockAfter    int
	CreatedBy     string
	CreatedAt     time.Time
}
