package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro del cliente.
const (
	LedgerSale       = "Sale"
	LedgerPayment    = "Payment"
	LedgerRefund     = "Refund"
	LedgerCredit     = "Credit"
	LedgerDebit      = "Debit"
	LedgerAdjustment = "Adjustment"
)

// ValidLedgerType indica si t es un tipo de movimiento conocido.
func ValidLedgerType(t string) bool {
	switch t {
	case LedgerSale, LedgerPayment, LedgerRefund, LedgerCredit, LedgerDebit, LedgerAdjustment:
		return true
	}
	return false
}

// CustomerLedgerEntry movimiento del libro del cliente.
// Balance es el acumulado debit − credit al momento de insertar, ordenado por (TransactionDate, Seq).
type CustomerLedgerEntry struct {
	ID              string
	Seq             int64
	CompanyID       string
	BranchID        string
	CustomerID      string
	TransactionDate time.Time
	TransactionType string
	DebitAmount     decimal.Decimal
	CreditAmount    decimal.Decimal
	Balance         decimal.Decimal
	Description     string
	Reference       string
	InvoiceID       string
	OrderID         string
	ReturnID        string
	CreatedBy       string
	CreatedAt       time.Time
}

// Net devuelve debit − credit.
func (e *CustomerLedgerEntry) Net() decimal.Decimal {
	return e.DebitAmount.Sub(e.CreditAmount)
}
