package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de asiento contable.
const (
	EntryIncome   = "Income"
	EntryExpense  = "Expense"
	EntrySale     = "Sale"
	EntryPurchase = "Purchase"
	EntryPayment  = "Payment"
	EntryRefund   = "Refund"
)

// AccountingEntry asiento del diario contable de una sucursal. Solo se agrega.
type AccountingEntry struct {
	ID            string
	CompanyID     string
	BranchID      string
	EntryType     string
	Amount        decimal.Decimal
	Description   string
	PaymentMethod string
	Category      string
	EntryDate     time.Time
	CreatedBy     string
	CreatedAt     time.Time
}
