package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnItemRequest producto devuelto en una devolución parcial.
type ReturnItemRequest struct {
	ProductID      string          `json:"product_id" validate:"required"`
	ReturnQuantity int             `json:"return_quantity" validate:"gt=0"`
	ReturnAmount   decimal.Decimal `json:"return_amount"`
}

// CreateReturnRequest body para POST /api/returns/whole y /api/returns/partial.
// El método de reembolso se valida en el servicio para respetar el orden de las precondiciones.
type CreateReturnRequest struct {
	InvoiceID         string              `json:"invoice_id" validate:"required"`
	OrderID           string              `json:"order_id" validate:"required"`
	Reason            string              `json:"reason" validate:"required,min=5,max=500"`
	RefundMethod      string              `json:"refund_method" validate:"required"`
	TotalReturnAmount decimal.Decimal     `json:"total_return_amount"`
	Items             []ReturnItemRequest `json:"items,omitempty" validate:"dive"`
}

// UpdateReturnStatusRequest body para PATCH /api/returns/:id/status.
type UpdateReturnStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Completed Rejected"`
}

// ReturnItemResponse ítem devuelto.
type ReturnItemResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	ReturnQuantity int             `json:"return_quantity"`
	ReturnAmount   decimal.Decimal `json:"return_amount"`
}

// ReturnResponse devolución con ítems y nota crédito, si ya se emitió.
type ReturnResponse struct {
	ID                  string               `json:"id"`
	InvoiceID           string               `json:"invoice_id"`
	OrderID             string               `json:"order_id"`
	CustomerID          string               `json:"customer_id"`
	Type                string               `json:"type"`
	Status              string               `json:"status"`
	Reason              string               `json:"reason"`
	RefundMethod        string               `json:"refund_method"`
	TotalReturnAmount   decimal.Decimal      `json:"total_return_amount"`
	CreditNoteInvoiceID string               `json:"credit_note_invoice_id,omitempty"`
	Items               []ReturnItemResponse `json:"items"`
	CreatedAt           time.Time            `json:"created_at"`
}
