// Package pdf genera la representación imprimible de facturas y notas crédito con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  Tienda               │  FACTURA / NOTA CRÉDITO  N° + Fecha  │
//	│  CLIENTE: Nombre + contacto                                  │
//	│  TABLA: Cant | Descripción | P.Unit | Total                  │
//	│  TOTALES: Total / Pagado / Saldo                             │
//	│  PIE: vencimiento o factura original                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/billing"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ billing.InvoiceRenderer = (*InvoiceRenderer)(nil)

// InvoiceRenderer implementa billing.InvoiceRenderer.
type InvoiceRenderer struct {
	storeName string
}

// NewInvoiceRenderer construye el renderizador; storeName va en el encabezado.
func NewInvoiceRenderer(storeName string) *InvoiceRenderer {
	return &InvoiceRenderer{storeName: storeName}
}

// RenderInvoice genera el PDF y devuelve sus bytes.
func (g *InvoiceRenderer) RenderInvoice(_ context.Context, doc *billing.InvoiceDocument) ([]byte, error) {
	if doc == nil || doc.Invoice == nil {
		return nil, fmt.Errorf("pdf: documento vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Invoice.InvoiceNumber, true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(g.headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(doc.Lines)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

func (g *InvoiceRenderer) headerRow(doc *billing.InvoiceDocument) core.Row {
	title := "FACTURA DE VENTA"
	if doc.Invoice.IsCreditNote() {
		title = "NOTA CRÉDITO"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(g.storeName, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		),
		col.New(5).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(doc.Invoice.InvoiceNumber, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New("Fecha: "+doc.Invoice.InvoiceDate.Format("02/01/2006"), props.Text{Size: 8, Align: align.Right, Top: 14, Color: colorGray}),
		),
	)
}

func customerRow(doc *billing.InvoiceDocument) core.Row {
	name, contact := doc.Invoice.CustomerID, "-"
	if c := doc.Customer; c != nil {
		name = c.Name
		contact = fmt.Sprintf("Tel: %s   |   Email: %s", nonEmpty(c.Phone, "-"), nonEmpty(c.Email, "-"))
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(contact, props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 6, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Total", 3, align.Right),
	)
}

func lineRows(lines []billing.DocumentLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(nonEmpty(l.ProductName, l.ProductID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(formatMoney(l.LineTotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func totalsRow(doc *billing.InvoiceDocument) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	inv := doc.Invoice
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(label("Total:"), label("Pagado:"), label("Saldo:")),
		col.New(3).Add(
			value(formatMoney(inv.TotalAmount)),
			value(formatMoney(inv.AmountPaid)),
			value(formatMoney(inv.Balance)),
		),
	)
}

func footerRow(doc *billing.InvoiceDocument) core.Row {
	msg := "Vence: " + doc.Invoice.DueDate.Format("02/01/2006")
	if doc.Invoice.IsCreditNote() {
		msg = "Nota crédito sobre la factura " + doc.Invoice.OriginalInvoiceID
		if doc.Original != nil {
			msg = "Nota crédito sobre la factura " + doc.Original.InvoiceNumber
		}
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 8, Color: colorGray, Top: 2}),
	))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney imprime el valor con dos decimales y puntos de miles.
// Ej: 25000 → "$25.000,00", -1500.5 → "-$1.500,50"
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + "$" + string(buf) + "," + frac
}
