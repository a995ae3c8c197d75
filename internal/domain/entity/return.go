package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de devolución.
const (
	ReturnWhole   = "whole"
	ReturnPartial = "partial"
)

// Estados de devolución.
const (
	ReturnPending   = "Pending"
	ReturnApproved  = "Approved"
	ReturnCompleted = "Completed"
	ReturnRejected  = "Rejected"
)

// Métodos de reembolso aceptados.
const (
	RefundCash        = "Cash"
	RefundCard        = "Card"
	RefundStoreCredit = "Store Credit"
)

// ValidReturnStatus indica si s es un estado de devolución conocido.
func ValidReturnStatus(s string) bool {
	switch s {
	case ReturnPending, ReturnApproved, ReturnCompleted, ReturnRejected:
		return true
	}
	return false
}

// ValidRefundMethod indica si m es Cash, Card o Store Credit.
func ValidRefundMethod(m string) bool {
	switch m {
	case RefundCash, RefundCard, RefundStoreCredit:
		return true
	}
	return false
}

// Return una transacción de devolución contra una factura.
type Return struct {
	ID                  string
	CompanyID           string
	BranchID            string
	CustomerID          string
	InvoiceID           string
	OrderID             string
	Type                string
	Status              string
	Reason              string
	RefundMethod        string
	TotalReturnAmount   decimal.Decimal
	CreditNoteInvoiceID string
	CreatedBy           string
	Items               []ReturnItem
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ReturnItem producto devuelto. Las devoluciones totales guardan un ítem por producto del pedido.
type ReturnItem struct {
	ID             string
	ReturnID       string
	ProductID      string
	ReturnQuantity int
	ReturnAmount   decimal.Decimal
}
