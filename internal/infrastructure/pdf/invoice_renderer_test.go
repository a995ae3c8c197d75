package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0", "$0,00"},
		{"25000", "$25.000,00"},
		{"1000000", "$1.000.000,00"},
		{"-1500.5", "-$1.500,50"},
		{"999.999", "$1.000,00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatMoney(decimal.RequireFromString(c.in)), c.in)
	}
}

func TestRenderInvoice_GeneraPDF(t *testing.T) {
	now := time.Now()
	doc := &billing.InvoiceDocument{
		Invoice: &entity.Invoice{
			InvoiceNumber: "INV-202601-0001", Type: entity.InvoiceTypeInvoice,
			InvoiceDate: now, DueDate: now.AddDate(0, 0, 30),
			TotalAmount: decimal.NewFromInt(30), Balance: decimal.NewFromInt(30),
		},
		Customer: &entity.Customer{Name: "Ana", Phone: "+573001234567"},
		Lines: []billing.DocumentLine{
			{ProductID: "p-1", ProductName: "Widget", Quantity: 3, UnitPrice: decimal.NewFromInt(10), LineTotal: decimal.NewFromInt(30)},
		},
	}
	out, err := NewInvoiceRenderer("Tienda").RenderInvoice(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, len(out) > 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderInvoice_NotaCredito(t *testing.T) {
	doc := &billing.InvoiceDocument{
		Invoice: &entity.Invoice{
			InvoiceNumber: "CN-202601-0001", Type: entity.InvoiceTypeCreditNote,
			TotalAmount: decimal.NewFromInt(-10), Balance: decimal.NewFromInt(-10),
		},
		Original: &entity.Invoice{InvoiceNumber: "INV-202601-0001"},
	}
	out, err := NewInvoiceRenderer("Tienda").RenderInvoice(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderInvoice_SinFactura(t *testing.T) {
	_, err := NewInvoiceRenderer("Tienda").RenderInvoice(context.Background(), &billing.InvoiceDocument{})
	assert.Error(t, err)
}
