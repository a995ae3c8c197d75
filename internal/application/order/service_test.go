package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/application/returns"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/internal/infrastructure/memory"
)

var tenant = domain.Tenant{CompanyID: "c1", BranchID: "b1", UserID: "u1"}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func price(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

// failingTx delega en el almacén y falla a partir de la llamada número failFrom.
type failingTx struct {
	inner    repository.TxRunner
	mu       sync.Mutex
	calls    int
	failFrom int
}

func (f *failingTx) Run(ctx context.Context, fn func(r repository.Repositories) error) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.failFrom > 0 && n >= f.failFrom {
		return errors.New("conexión perdida")
	}
	return f.inner.Run(ctx, fn)
}

type countingMetrics struct {
	ports.NopMetrics
	mu       sync.Mutex
	failures map[string]int
	created  int
}

func (m *countingMetrics) OrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *countingMetrics) SideEffectFailed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = map[string]int{}
	}
	m.failures[kind]++
}

type fixture struct {
	store   *memory.Store
	tx      *failingTx
	metrics *countingMetrics
	ledger  *ledger.Service
	acc     *accounting.Service
	orders  *Service
	returns *returns.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	tx := &failingTx{inner: store}
	metrics := &countingMetrics{}
	log := zerolog.Nop()

	led := ledger.NewService(tx, repos, nil, nil, log)
	acc := accounting.NewService(repos, log)
	inv := inventory.NewService(tx, nil, metrics, time.Second, log)
	invoices := billing.NewInvoiceService(tx, repos, led, acc, nil, metrics, 30, log)
	customers := billing.NewCustomerService(tx, repos, "CO")
	svc := NewService(tx, repos, customers, inv, invoices, led, acc, metrics, log)
	rets := returns.NewService(tx, repos, inv, invoices, led, acc, metrics, 0, log)
	return &fixture{store: store, tx: tx, metrics: metrics, ledger: led, acc: acc, orders: svc, returns: rets}
}

func (f *fixture) product(t *testing.T, id, branch string, stock int, price string) {
	t.Helper()
	require.NoError(t, f.store.Repositories().Products.Create(context.Background(), &entity.Product{
		ID: id, CompanyID: "c1", BranchID: branch, Name: "Producto " + id, Price: d(price),
		UnitStock: stock, StockThreshold: 1, Status: entity.ProductAvailable,
	}))
}

func (f *fixture) stock(t *testing.T, id string) *entity.Product {
	t.Helper()
	p, err := f.store.Repositories().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

var ana = billing.CustomerInfo{Name: "Ana", Phone: "3001234567"}

func TestCreateOrder_DescuentaHastaCeroYRechazaElSiguiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 5, "2.00")

	res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{
		Customer: ana, PaymentMethod: "Cash",
		Lines: []LineInput{{ProductID: "p1", Quantity: 5, UnitPrice: price("2.00")}},
	})
	require.NoError(t, err)
	assert.True(t, res.Order.TotalAmount.Equal(d("10.00")))
	assert.Equal(t, entity.OrderPending, res.Order.Status)
	require.NotNil(t, res.Invoice)
	assert.Equal(t, res.Order.ID, res.Invoice.OrderID)
	assert.True(t, res.Invoice.Balance.Equal(d("10")))

	p := f.stock(t, "p1")
	assert.Equal(t, 0, p.UnitStock)
	assert.Equal(t, entity.ProductUnavailable, p.Status)

	bal, err := f.ledger.GetCustomerBalance(ctx, tenant, res.Order.CustomerID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(d("10")))

	_, err = f.orders.CreateOrder(ctx, tenant, CreateInput{
		Customer: ana, PaymentMethod: "Cash",
		Lines:    []LineInput{{ProductID: "p1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	assert.Equal(t, 1, f.metrics.created)
}

func TestCreateOrder_FallaEnUnaLineaNoDejaNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "a", "b1", 10, "1")
	f.product(t, "b", "b1", 1, "1")

	_, err := f.orders.CreateOrder(ctx, tenant, CreateInput{
		Customer: billing.CustomerInfo{Name: "Nuevo", Email: "nuevo@mail.com"},
		Lines:    []LineInput{{ProductID: "a", Quantity: 3}, {ProductID: "b", Quantity: 2}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 10, f.stock(t, "a").UnitStock)
	orders, err := f.orders.ListOrders(ctx, tenant, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
	c, err := f.store.Repositories().Customers.FindByEmail(ctx, "c1", "nuevo@mail.com")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCreateOrder_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 5, "1")
	f.product(t, "px", "b2", 5, "1")

	_, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.orders.CreateOrder(ctx, tenant, CreateInput{
		Customer: billing.CustomerInfo{Phone: "3001234567"},
		Lines:    []LineInput{{ProductID: "p1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.orders.CreateOrder(ctx, domain.Tenant{CompanyID: "c1"}, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNoBranchContext)

	_, err = f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "px", Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 0}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{
		{ProductID: "p1", Quantity: 1, UnitPrice: price("1")}, {ProductID: "p1", Quantity: 1, UnitPrice: price("2")},
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateOrder_LineasRepetidasSeAgrupan(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "b1", 5, "3")
	res, err := f.orders.CreateOrder(context.Background(), tenant, CreateInput{Customer: ana, Lines: []LineInput{
		{ProductID: "p1", Quantity: 1}, {ProductID: "p1", Quantity: 2},
	}})
	require.NoError(t, err)
	require.Len(t, res.Order.Lines, 1)
	assert.Equal(t, 3, res.Order.Lines[0].Quantity)
	assert.True(t, res.Order.TotalAmount.Equal(d("9")))
	assert.Equal(t, 2, f.stock(t, "p1").UnitStock)
}

func TestCreateOrder_FacturaBestEffort(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "b1", 5, "4")
	f.tx.failFrom = 2 // la transacción del pedido pasa; la de la factura falla

	res, err := f.orders.CreateOrder(context.Background(), tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)
	assert.Nil(t, res.Invoice)
	assert.Equal(t, 4, f.stock(t, "p1").UnitStock)
	assert.Equal(t, 1, f.metrics.failures["invoice"])
}

func TestCreateOrder_ConcurrenteUltimaUnidad(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "b1", 3, "1")
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, insufficient := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.CreateOrder(context.Background(), tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 1}}})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, ok)
	assert.Equal(t, 7, insufficient)
	assert.Equal(t, 0, f.stock(t, "p1").UnitStock)
}

func (f *fixture) paidEntries(t *testing.T) (sales, refunds int) {
	t.Helper()
	entries, err := f.acc.ListEntries(context.Background(), tenant, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	for _, e := range entries {
		switch e.EntryType {
		case entity.EntrySale:
			sales++
		case entity.EntryRefund:
			refunds++
		}
	}
	return sales, refunds
}

func TestUpdateOrderStatus_PagarDosVecesEsIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 5, "10")
	res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)
	paid := StatusChange{Status: entity.OrderPaid, OrderStatus: entity.OrderPaid}

	for i := 0; i < 2; i++ {
		o, err := f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, paid)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderPaid, o.Status)
	}
	sales, _ := f.paidEntries(t)
	assert.Equal(t, 1, sales)

	inv, err := f.store.Repositories().Invoices.GetByOrderID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePaid, inv.Status)

	hist, err := f.orders.History(ctx, tenant, res.Order.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, entity.OrderActionCreated, hist[0].Action)
	assert.Equal(t, entity.OrderPending, hist[1].PreviousStatus)
	assert.Equal(t, entity.OrderPaid, hist[2].PreviousStatus)
	assert.Equal(t, entity.OrderActionPaid, hist[2].Action)
}

func TestUpdateOrderStatus_CancelarPagadoReponeYReembolsaUnaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 5, "10")
	res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 5}}})
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, StatusChange{Status: entity.OrderPaid, OrderStatus: entity.OrderPaid})
	require.NoError(t, err)

	cancel := StatusChange{Status: entity.OrderCancelled, OrderStatus: entity.OrderCancelled, Note: "cliente desiste"}
	for i := 0; i < 2; i++ {
		_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, cancel)
		require.NoError(t, err)
	}

	p := f.stock(t, "p1")
	assert.Equal(t, 5, p.UnitStock)
	assert.Equal(t, entity.ProductAvailable, p.Status)
	sales, refunds := f.paidEntries(t)
	assert.Equal(t, 1, sales)
	assert.Equal(t, 1, refunds)

	inv, err := f.store.Repositories().Invoices.GetByOrderID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceCancelled, inv.Status)
}

func TestUpdateOrderStatus_CancelarPendienteNoReembolsa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 5, "10")
	res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)

	o, err := f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, StatusChange{Status: entity.OrderCancelled, OrderStatus: entity.OrderCancelled})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, o.OrderStatus)
	assert.Equal(t, 5, f.stock(t, "p1").UnitStock)
	_, refunds := f.paidEntries(t)
	assert.Equal(t, 0, refunds)
}

func TestUpdateOrderStatus_CanceladoNoSeReabre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 10, "2")
	res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)

	cancel := StatusChange{Status: entity.OrderCancelled, OrderStatus: entity.OrderCancelled}
	_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, cancel)
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t, "p1").UnitStock)

	for _, next := range []string{entity.OrderPending, entity.OrderPaid} {
		_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, StatusChange{Status: next, OrderStatus: next})
		require.ErrorIs(t, err, domain.ErrInvalidOperation)
		assert.EqualError(t, err, "Cancelled orders cannot be reopened")
	}

	_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, cancel)
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t, "p1").UnitStock)
	o, err := f.orders.GetOrder(ctx, tenant, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, o.Status)
}

func TestCancelarYDevolver_NoReponenDosVeces(t *testing.T) {
	whole := func(inv *entity.Invoice) returns.CreateInput {
		return returns.CreateInput{InvoiceID: inv.ID, OrderID: inv.OrderID, Reason: "customer changed mind",
			RefundMethod: entity.RefundCash, TotalReturnAmount: inv.TotalAmount}
	}
	cancel := StatusChange{Status: entity.OrderCancelled, OrderStatus: entity.OrderCancelled}

	t.Run("devolución de pedido cancelado", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.product(t, "p1", "b1", 10, "2")
		res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 2}}})
		require.NoError(t, err)
		require.NotNil(t, res.Invoice)
		_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, cancel)
		require.NoError(t, err)

		_, err = f.returns.CreateWholeReturn(ctx, tenant, whole(res.Invoice))
		require.ErrorIs(t, err, domain.ErrInvalidOperation)
		assert.EqualError(t, err, "Cancelled orders cannot be returned")
		assert.Equal(t, 10, f.stock(t, "p1").UnitStock)
	})

	t.Run("cancelación de pedido devuelto", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.product(t, "p1", "b1", 10, "2")
		res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 2}}})
		require.NoError(t, err)
		require.NotNil(t, res.Invoice)
		_, err = f.returns.CreateWholeReturn(ctx, tenant, whole(res.Invoice))
		require.NoError(t, err)
		assert.Equal(t, 10, f.stock(t, "p1").UnitStock)

		_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, cancel)
		require.ErrorIs(t, err, domain.ErrInvalidOperation)
		assert.EqualError(t, err, "Orders with returns cannot be cancelled")
		assert.Equal(t, 10, f.stock(t, "p1").UnitStock)
		o, err := f.orders.GetOrder(ctx, tenant, res.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderPending, o.Status)
	})
}

func TestCreateOrder_PrecioExplicitoCeroSeRespeta(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "b1", 5, "3")
	res, err := f.orders.CreateOrder(context.Background(), tenant, CreateInput{Customer: ana, Lines: []LineInput{
		{ProductID: "p1", Quantity: 2, UnitPrice: price("0")},
	}})
	require.NoError(t, err)
	assert.True(t, res.Order.Lines[0].UnitPrice.IsZero())
	assert.True(t, res.Order.TotalAmount.IsZero())

	res, err = f.orders.CreateOrder(context.Background(), tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)
	assert.True(t, res.Order.Lines[0].UnitPrice.Equal(d("3")))
}

func TestUpdateOrderStatus_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 5, "10")
	res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, StatusChange{Status: "Shipped", OrderStatus: "Shipped"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orders.UpdateOrderStatus(ctx, tenant, res.Order.ID, StatusChange{Status: entity.OrderPaid, OrderStatus: entity.OrderCancelled})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orders.UpdateOrderStatus(ctx, domain.Tenant{CompanyID: "c1", BranchID: "b2"}, res.Order.ID, StatusChange{Status: entity.OrderPaid, OrderStatus: entity.OrderPaid})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBulkUpdateOrderStatus_OmiteOtrasSucursales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 10, "1")
	f.product(t, "p2", "b2", 10, "1")
	other := domain.Tenant{CompanyID: "c1", BranchID: "b2", UserID: "u2"}

	var ids []string
	for i := 0; i < 2; i++ {
		res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 1}}})
		require.NoError(t, err)
		ids = append(ids, res.Order.ID)
	}
	res, err := f.orders.CreateOrder(ctx, other, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p2", Quantity: 1}}})
	require.NoError(t, err)
	ids = append(ids, res.Order.ID, "no-existe")

	n, err := f.orders.BulkUpdateOrderStatus(ctx, tenant, ids, StatusChange{Status: entity.OrderPaid, OrderStatus: entity.OrderPaid})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	untouched, err := f.orders.GetOrder(ctx, other, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, untouched.Status)

	_, err = f.orders.BulkUpdateOrderStatus(ctx, tenant, ids, StatusChange{Status: "x", OrderStatus: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListYDeleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "b1", 10, "1")
	res, err := f.orders.CreateOrder(ctx, tenant, CreateInput{Customer: ana, Lines: []LineInput{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)

	list, err := f.orders.ListOrders(ctx, domain.Tenant{CompanyID: "c1"}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, f.orders.DeleteOrder(ctx, tenant, res.Order.ID))
	_, err = f.orders.GetOrder(ctx, tenant, res.Order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 9, f.stock(t, "p1").UnitStock)

	inv, err := f.store.Repositories().Invoices.GetByID(ctx, res.Invoice.ID)
	require.NoError(t, err)
	assert.Empty(t, inv.OrderID)
}
