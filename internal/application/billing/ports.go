package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// DocumentLine línea imprimible de una factura o nota crédito.
type DocumentLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// InvoiceDocument datos que consume el renderizador: la factura, su cliente y las líneas.
// Original solo se llena para notas crédito.
type InvoiceDocument struct {
	Invoice  *entity.Invoice
	Original *entity.Invoice
	Customer *entity.Customer
	Lines    []DocumentLine
}

// InvoiceRenderer puerto de salida que genera la representación imprimible (PDF) de una factura.
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error)
}
