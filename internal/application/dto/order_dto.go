package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerInput datos del cliente en un pedido: se busca por teléfono, luego correo; si no existe se crea con name.
type CustomerInput struct {
	Name  string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// OrderLineRequest línea de pedido. Sin unit_price usa el precio del producto.
type OrderLineRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	Customer      CustomerInput      `json:"customer"`
	PaymentMethod string             `json:"payment_method" validate:"required,max=50"`
	Lines         []OrderLineRequest `json:"lines" validate:"dive"`
}

// UpdateOrderStatusRequest body para PATCH /api/orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status      string `json:"status" validate:"required,oneof=Pending Paid Cancelled"`
	OrderStatus string `json:"order_status" validate:"required,oneof=Pending Paid Cancelled"`
	Note        string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// BulkUpdateOrderStatusRequest body para PATCH /api/orders/status.
type BulkUpdateOrderStatusRequest struct {
	OrderIDs    []string `json:"order_ids" validate:"required,min=1,dive,required"`
	Status      string   `json:"status" validate:"required,oneof=Pending Paid Cancelled"`
	OrderStatus string   `json:"order_status" validate:"required,oneof=Pending Paid Cancelled"`
	Note        string   `json:"note,omitempty" validate:"omitempty,max=500"`
}

// BulkUpdateResponse cantidad de pedidos actualizados.
type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

// OrderLineResponse línea de pedido.
type OrderLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderResponse pedido con líneas. invoice_id solo se llena al crear.
type OrderResponse struct {
	ID            string              `json:"id"`
	CompanyID     string              `json:"company_id"`
	BranchID      string              `json:"branch_id"`
	CustomerID    string              `json:"customer_id"`
	Date          time.Time           `json:"date"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        string              `json:"status"`
	OrderStatus   string              `json:"order_status"`
	PaymentMethod string              `json:"payment_method"`
	Lines         []OrderLineResponse `json:"lines"`
	InvoiceID     string              `json:"invoice_id,omitempty"`
	InvoiceNumber string              `json:"invoice_number,omitempty"`
}

// OrderHistoryResponse fila del historial de estados.
type OrderHistoryResponse struct {
	ID             string    `json:"id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Action         string    `json:"action"`
	ActorID        string    `json:"actor_id"`
	Note           string    `json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
