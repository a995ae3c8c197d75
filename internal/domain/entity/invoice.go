package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de factura.
const (
	InvoiceTypeInvoice    = "Invoice"
	InvoiceTypeCreditNote = "CreditNote"
)

// Estados de factura.
const (
	InvoicePending       = "Pending"
	InvoicePartiallyPaid = "PartiallyPaid"
	InvoicePaid          = "Paid"
	InvoiceCancelled     = "Cancelled"
	InvoiceOverdue       = "Overdue"
)

// Invoice cabecera de factura o nota crédito.
// Balance siempre se recalcula como TotalAmount - AmountPaid.
type Invoice struct {
	ID                string
	CompanyID         string
	BranchID          string
	CustomerID        string
	OrderID           string
	Type              string
	InvoiceNumber     string // INV-YYYYMM-NNNN o CN-YYYYMM-NNNN
	InvoiceDate       time.Time
	DueDate           time.Time
	TotalAmount       decimal.Decimal
	AmountPaid        decimal.Decimal
	Balance           decimal.Decimal
	Status            string
	OriginalInvoiceID string
	ReturnID          string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsCreditNote indica si la factura es una nota crédito.
func (i *Invoice) IsCreditNote() bool { return i.Type == InvoiceTypeCreditNote }

// ApplyPayment suma amount a AmountPaid, recalcula Balance y el estado.
func (i *Invoice) ApplyPayment(amount decimal.Decimal, now time.Time) {
	i.AmountPaid = i.AmountPaid.Add(amount)
	i.Balance = i.TotalAmount.Sub(i.AmountPaid)
	if i.Balance.IsZero() {
		i.Status = InvoicePaid
	} else {
		i.Status = InvoicePartiallyPaid
	}
	i.UpdatedAt = now
}

// InvoicePayment pago aplicado a una factura. Solo se agrega, nunca se modifica.
type InvoicePayment struct {
	ID         string
	InvoiceID  string
	Amount     decimal.Decimal
	Method     string
	Reference  string
	ReceivedBy string
	PaidAt     time.Time
}
