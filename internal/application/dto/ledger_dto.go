package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryRequest body para POST /api/ledger/entries (movimiento manual).
type LedgerEntryRequest struct {
	CustomerID      string          `json:"customer_id" validate:"required"`
	TransactionType string          `json:"transaction_type" validate:"required,oneof=Sale Payment Refund Credit Debit Adjustment"`
	DebitAmount     decimal.Decimal `json:"debit_amount"`
	CreditAmount    decimal.Decimal `json:"credit_amount"`
	Description     string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Reference       string          `json:"reference,omitempty" validate:"omitempty,max=100"`
	InvoiceID       string          `json:"invoice_id,omitempty"`
	OrderID         string          `json:"order_id,omitempty"`
	ReturnID        string          `json:"return_id,omitempty"`
}

// SaleLedgerRequest body para POST /api/ledger/sales.
type SaleLedgerRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	InvoiceID string `json:"invoice_id" validate:"required"`
}

// PaymentLedgerRequest body para POST /api/ledger/payments.
type PaymentLedgerRequest struct {
	CustomerID string          `json:"customer_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,max=50"`
	Reference  string          `json:"reference,omitempty" validate:"omitempty,max=100"`
	InvoiceID  string          `json:"invoice_id,omitempty"`
}

// RefundLedgerRequest body para POST /api/ledger/refunds.
type RefundLedgerRequest struct {
	ReturnID string `json:"return_id" validate:"required"`
}

// LedgerEntryResponse movimiento del libro del cliente.
type LedgerEntryResponse struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	TransactionDate time.Time       `json:"transaction_date"`
	TransactionType string          `json:"transaction_type"`
	DebitAmount     decimal.Decimal `json:"debit_amount"`
	CreditAmount    decimal.Decimal `json:"credit_amount"`
	Balance         decimal.Decimal `json:"balance"`
	Description     string          `json:"description,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	InvoiceID       string          `json:"invoice_id,omitempty"`
	OrderID         string          `json:"order_id,omitempty"`
	ReturnID        string          `json:"return_id,omitempty"`
}

// BalanceResponse saldo actual del cliente.
type BalanceResponse struct {
	CustomerID string          `json:"customer_id"`
	Balance    decimal.Decimal `json:"balance"`
}

// StatementResponse estado de cuenta en [start, end).
type StatementResponse struct {
	CustomerID     string                `json:"customer_id"`
	CustomerName   string                `json:"customer_name"`
	Start          time.Time             `json:"start"`
	End            time.Time             `json:"end"`
	OpeningBalance decimal.Decimal       `json:"opening_balance"`
	ClosingBalance decimal.Decimal       `json:"closing_balance"`
	TotalDebit     decimal.Decimal       `json:"total_debit"`
	TotalCredit    decimal.Decimal       `json:"total_credit"`
	Entries        []LedgerEntryResponse `json:"entries"`
}

// AgingBucketsResponse saldos vencidos por tramo.
type AgingBucketsResponse struct {
	Days0To30  decimal.Decimal `json:"days_0_30"`
	Days31To60 decimal.Decimal `json:"days_31_60"`
	Days61To90 decimal.Decimal `json:"days_61_90"`
	Over90     decimal.Decimal `json:"days_91_plus"`
	Total      decimal.Decimal `json:"total"`
}

// AgingRowResponse antigüedad por cliente.
type AgingRowResponse struct {
	CustomerID string               `json:"customer_id"`
	Invoices   int                  `json:"invoices"`
	Buckets    AgingBucketsResponse `json:"buckets"`
}

// AgingResponse reporte de antigüedad de cartera.
type AgingResponse struct {
	AsOf   time.Time            `json:"as_of"`
	Rows   []AgingRowResponse   `json:"rows"`
	Totals AgingBucketsResponse `json:"totals"`
}

// AccountingEntryResponse asiento del diario contable.
type AccountingEntryResponse struct {
	ID            string          `json:"id"`
	EntryType     string          `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Category      string          `json:"category,omitempty"`
	EntryDate     time.Time       `json:"entry_date"`
}

// AccountingSummaryResponse totales por tipo en el rango.
type AccountingSummaryResponse struct {
	From   time.Time                  `json:"from"`
	To     time.Time                  `json:"to"`
	Totals map[string]decimal.Decimal `json:"totals"`
	Net    decimal.Decimal            `json:"net"`
}
