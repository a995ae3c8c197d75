package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/infrastructure/memory"
)

var tenant = domain.Tenant{CompanyID: "c1", BranchID: "b1", UserID: "u1"}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store    *memory.Store
	ledger   *ledger.Service
	acc      *accounting.Service
	invoices *InvoiceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	led := ledger.NewService(store, repos, nil, nil, zerolog.Nop())
	acc := accounting.NewService(repos, zerolog.Nop())
	inv := NewInvoiceService(store, repos, led, acc, nil, nil, 30, zerolog.Nop())
	inv.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, repos.Customers.Create(context.Background(), &entity.Customer{ID: "cu1", CompanyID: "c1", Name: "Ana"}))
	return &fixture{store: store, ledger: led, acc: acc, invoices: inv}
}

func (f *fixture) order(t *testing.T, id, total string) *entity.Order {
	t.Helper()
	ctx := context.Background()
	r := f.store.Repositories()
	o := &entity.Order{ID: id, CompanyID: "c1", BranchID: "b1", CustomerID: "cu1", TotalAmount: d(total),
		Status: entity.OrderPending, OrderStatus: entity.OrderPending}
	require.NoError(t, r.Orders.Create(ctx, o))
	require.NoError(t, r.Orders.AddLine(ctx, &entity.OrderLine{ID: id + "-l1", OrderID: id, ProductID: "p1", Quantity: 1, UnitPrice: d(total), LineTotal: d(total)}))
	return o
}

func TestCreateInvoice_NumeracionEIdempotencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(t, "o1", "100")
	f.order(t, "o2", "50")

	inv1, err := f.invoices.CreateInvoice(ctx, tenant, "o1", nil)
	require.NoError(t, err)
	assert.Equal(t, "INV-202610-0001", inv1.InvoiceNumber)
	assert.Equal(t, entity.InvoicePending, inv1.Status)
	assert.True(t, inv1.Balance.Equal(d("100")))
	assert.Equal(t, time.Date(2026, 11, 14, 12, 0, 0, 0, time.UTC), inv1.DueDate)

	again, err := f.invoices.CreateInvoice(ctx, tenant, "o1", nil)
	require.NoError(t, err)
	assert.Equal(t, inv1.ID, again.ID)

	inv2, err := f.invoices.CreateInvoice(ctx, tenant, "o2", nil)
	require.NoError(t, err)
	assert.Equal(t, "INV-202610-0002", inv2.InvoiceNumber)
}

func TestCreateInvoice_Concurrente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, id := range ids {
		f.order(t, id, "10")
	}
	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.invoices.CreateInvoice(ctx, tenant, id, nil)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	list, err := f.invoices.ListInvoices(ctx, tenant, 100, 0)
	require.NoError(t, err)
	require.Len(t, list, len(ids))
	seen := map[string]bool{}
	for _, inv := range list {
		assert.False(t, seen[inv.InvoiceNumber], "número repetido %s", inv.InvoiceNumber)
		seen[inv.InvoiceNumber] = true
	}
}

func TestCreateInvoice_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(t, "o1", "10")

	_, err := f.invoices.CreateInvoice(ctx, domain.Tenant{CompanyID: "c1"}, "o1", nil)
	assert.ErrorIs(t, err, domain.ErrNoBranchContext)

	_, err = f.invoices.CreateInvoice(ctx, domain.Tenant{CompanyID: "c1", BranchID: "b2"}, "o1", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.invoices.CreateInvoice(ctx, tenant, "nope", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddPayment_SaldoYEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(t, "o1", "100")
	inv, err := f.invoices.CreateInvoice(ctx, tenant, "o1", nil)
	require.NoError(t, err)

	got, p, err := f.invoices.AddPayment(ctx, tenant, inv.ID, PaymentInput{Amount: d("30"), Method: "Cash", Reference: "R1"})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePartiallyPaid, got.Status)
	assert.True(t, got.Balance.Equal(d("70")))
	assert.Equal(t, "u1", p.ReceivedBy)

	got, _, err = f.invoices.AddPayment(ctx, tenant, inv.ID, PaymentInput{Amount: d("70"), Method: "Card"})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePaid, got.Status)
	assert.True(t, got.Balance.IsZero())

	// saldo = total - Σ pagos
	payments, err := f.invoices.ListPayments(ctx, tenant, inv.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	stored, err := f.invoices.GetInvoice(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(stored.TotalAmount.Sub(sum)))
	assert.True(t, stored.AmountPaid.Equal(sum))

	// el libro del cliente recibe los abonos
	bal, err := f.ledger.GetCustomerBalance(ctx, tenant, "cu1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(d("-100")))

	entries, err := f.acc.ListEntries(ctx, tenant, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAddPayment_Rechazos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(t, "o1", "100")
	inv, err := f.invoices.CreateInvoice(ctx, tenant, "o1", nil)
	require.NoError(t, err)

	_, _, err = f.invoices.AddPayment(ctx, tenant, "missing", PaymentInput{Amount: d("1"), Method: "Cash"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = f.invoices.AddPayment(ctx, tenant, inv.ID, PaymentInput{Amount: d("0"), Method: "Cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, _, err = f.invoices.AddPayment(ctx, tenant, inv.ID, PaymentInput{Amount: d("-5"), Method: "Cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, _, err = f.invoices.AddPayment(ctx, tenant, inv.ID, PaymentInput{Amount: d("100.01"), Method: "Cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	// un rechazo no deja pagos ni movimientos
	payments, err := f.invoices.ListPayments(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	bal, err := f.ledger.GetCustomerBalance(ctx, tenant, "cu1")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	require.NoError(t, f.invoices.UpdateInvoiceStatusByOrderID(ctx, "o1", entity.InvoiceCancelled))
	_, _, err = f.invoices.AddPayment(ctx, tenant, inv.ID, PaymentInput{Amount: d("1"), Method: "Cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestUpdateInvoiceStatusByOrderID_SinFactura(t *testing.T) {
	f := newFixture(t)
	f.order(t, "o1", "10")
	assert.NoError(t, f.invoices.UpdateInvoiceStatusByOrderID(context.Background(), "o1", entity.InvoicePaid))
}

func TestCreateCreditNoteInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(t, "o1", "100")
	inv, err := f.invoices.CreateInvoice(ctx, tenant, "o1", nil)
	require.NoError(t, err)
	ret := &entity.Return{ID: "r1", CompanyID: "c1", BranchID: "b1", CustomerID: "cu1", InvoiceID: inv.ID, OrderID: "o1",
		Type: entity.ReturnPartial, TotalReturnAmount: d("40"),
		Items: []entity.ReturnItem{{ID: "ri1", ReturnID: "r1", ProductID: "p1", ReturnQuantity: 2, ReturnAmount: d("40")}}}
	require.NoError(t, f.store.Repositories().Returns.Create(ctx, ret))

	cn, err := f.invoices.CreateCreditNoteInvoice(ctx, tenant, "r1")
	require.NoError(t, err)
	assert.Equal(t, "CN-202610-0001", cn.InvoiceNumber)
	assert.Equal(t, entity.InvoiceTypeCreditNote, cn.Type)
	assert.True(t, cn.TotalAmount.Equal(d("-40")))
	assert.Equal(t, inv.ID, cn.OriginalInvoiceID)
	assert.Equal(t, "r1", cn.ReturnID)

	stored, err := f.store.Repositories().Returns.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, cn.ID, stored.CreditNoteInvoiceID)

	_, err = f.invoices.CreateCreditNoteInvoice(ctx, tenant, "r1")
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.invoices.CreateCreditNoteInvoice(ctx, tenant, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// la nota crédito no se puede pagar
	_, _, err = f.invoices.AddPayment(ctx, tenant, cn.ID, PaymentInput{Amount: d("1"), Method: "Cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestCreateCreditNoteInvoice_SinFacturaOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Repositories().Returns.Create(ctx, &entity.Return{ID: "r1", CompanyID: "c1", BranchID: "b1", InvoiceID: "ghost", TotalReturnAmount: d("1")}))
	_, err := f.invoices.CreateCreditNoteInvoice(ctx, tenant, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type captureRenderer struct{ doc *InvoiceDocument }

func (c *captureRenderer) RenderInvoice(_ context.Context, doc *InvoiceDocument) ([]byte, error) {
	c.doc = doc
	return []byte("%PDF"), nil
}

func TestRenderInvoicePDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Repositories().Products.Create(ctx, &entity.Product{ID: "p1", CompanyID: "c1", BranchID: "b1", Name: "Café"}))
	f.order(t, "o1", "25")
	inv, err := f.invoices.CreateInvoice(ctx, tenant, "o1", nil)
	require.NoError(t, err)

	rend := &captureRenderer{}
	f.invoices.renderer = rend
	data, name, err := f.invoices.RenderInvoicePDF(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
	assert.Equal(t, "INV-202610-0001.pdf", name)
	require.Len(t, rend.doc.Lines, 1)
	assert.Equal(t, "Café", rend.doc.Lines[0].ProductName)
	assert.Equal(t, "Ana", rend.doc.Customer.Name)
}
