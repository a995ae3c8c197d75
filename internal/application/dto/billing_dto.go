package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// CreateInvoiceRequest body para POST /api/invoices. Sin due_date se usa el plazo configurado.
type CreateInvoiceRequest struct {
	OrderID string     `json:"order_id" validate:"required"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// AddPaymentRequest body para POST /api/invoices/:id/payments.
type AddPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,max=50"`
	Reference string          `json:"reference,omitempty" validate:"omitempty,max=100"`
}

// InvoiceResponse factura o nota crédito.
type InvoiceResponse struct {
	ID                string          `json:"id"`
	CompanyID         string          `json:"company_id"`
	BranchID          string          `json:"branch_id"`
	CustomerID        string          `json:"customer_id"`
	OrderID           string          `json:"order_id,omitempty"`
	Type              string          `json:"type"`
	InvoiceNumber     string          `json:"invoice_number"`
	InvoiceDate       time.Time       `json:"invoice_date"`
	DueDate           time.Time       `json:"due_date"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	Balance           decimal.Decimal `json:"balance"`
	Status            string          `json:"status"`
	OriginalInvoiceID string          `json:"original_invoice_id,omitempty"`
	ReturnID          string          `json:"return_id,omitempty"`
}

// InvoicePaymentResponse pago aplicado.
type InvoicePaymentResponse struct {
	ID         string          `json:"id"`
	InvoiceID  string          `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	ReceivedBy string          `json:"received_by"`
	PaidAt     time.Time       `json:"paid_at"`
}

// PaymentResultResponse factura con su saldo actualizado y el pago registrado.
type PaymentResultResponse struct {
	Invoice InvoiceResponse        `json:"invoice"`
	Payment InvoicePaymentResponse `json:"payment"`
}
