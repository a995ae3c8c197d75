package dto

import "time"

// InventoryMovementResponse movimiento de stock (IN/OUT) con la operación que lo originó.
type InventoryMovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	StockAfter    int       `json:"stock_after"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}
