//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/application/order"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/pkg/config"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	cfg := config.DBConfig{DatabaseURL: dsn}

	mg, err := NewMigrator(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	version, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.False(t, dirty)
	require.NoError(t, mg.Close())

	pool, err := NewPool(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type stack struct {
	repos  repository.Repositories
	tx     *TxRunner
	orders *order.Service
	ledger *ledger.Service
}

func newStack(pool *pgxpool.Pool) *stack {
	repos := Repositories(pool)
	tx := NewTxRunner(pool)
	log := zerolog.Nop()
	inv := inventory.NewService(tx, nil, nil, 0, log)
	led := ledger.NewService(tx, repos, nil, nil, log)
	acc := accounting.NewService(repos, log)
	invoices := billing.NewInvoiceService(tx, repos, led, acc, nil, nil, 30, log)
	customers := billing.NewCustomerService(tx, repos, "CO")
	return &stack{
		repos:  repos,
		tx:     tx,
		orders: order.NewService(tx, repos, customers, inv, invoices, led, acc, nil, log),
		ledger: led,
	}
}

func seedProduct(t *testing.T, repos repository.Repositories, stock int, price string) *entity.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{
		ID: uuid.New().String(), CompanyID: "c1", BranchID: "b1", SKU: uuid.New().String()[:8], Name: "Widget",
		Price: decimal.RequireFromString(price), UnitStock: stock, StockThreshold: 1,
		Status: entity.ProductAvailable, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return p
}

func TestPostgres_PedidoCompleto(t *testing.T) {
	pool := newTestPool(t)
	s := newStack(pool)
	ctx := context.Background()
	tenant := domain.Tenant{CompanyID: "c1", BranchID: "b1", UserID: "u1"}
	p := seedProduct(t, s.repos, 5, "2.00")

	res, err := s.orders.CreateOrder(ctx, tenant, order.CreateInput{
		Customer:      billing.CustomerInfo{Name: "Ana", Phone: "3001234567"},
		PaymentMethod: "Cash",
		Lines:         []order.LineInput{{ProductID: p.ID, Quantity: 5, UnitPrice: decimal.RequireFromString("2.00")}},
	})
	require.NoError(t, err)
	assert.True(t, res.Order.TotalAmount.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, res.Invoice)
	assert.Regexp(t, `^INV-\d{6}-0001$`, res.Invoice.InvoiceNumber)

	got, err := s.repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnitStock)
	assert.Equal(t, entity.ProductUnavailable, got.Status)

	bal, err := s.ledger.GetCustomerBalance(ctx, tenant, res.Order.CustomerID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(10)), bal.String())

	_, err = s.orders.CreateOrder(ctx, tenant, order.CreateInput{
		Customer:      billing.CustomerInfo{Phone: "3001234567"},
		PaymentMethod: "Cash",
		Lines:         []order.LineInput{{ProductID: p.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	report, err := s.ledger.VerifyReplay(ctx, res.Order.CustomerID)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestPostgres_UltimaUnidadConcurrente(t *testing.T) {
	pool := newTestPool(t)
	s := newStack(pool)
	ctx := context.Background()
	tenant := domain.Tenant{CompanyID: "c1", BranchID: "b1", UserID: "u1"}
	p := seedProduct(t, s.repos, 3, "1.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, insufficient := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.orders.CreateOrder(ctx, tenant, order.CreateInput{
				Customer:      billing.CustomerInfo{Name: "Ana", Email: "ana@example.com"},
				PaymentMethod: "Card",
				Lines:         []order.LineInput{{ProductID: p.ID, Quantity: 1}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, domain.ErrInsufficientStock) {
				insufficient++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, ok)
	assert.Equal(t, 5, insufficient)

	got, err := s.repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnitStock)
}

func TestPostgres_FacturaDuplicadaNoAbortaTx(t *testing.T) {
	pool := newTestPool(t)
	s := newStack(pool)
	ctx := context.Background()
	now := time.Now().UTC()
	cust := &entity.Customer{ID: uuid.New().String(), CompanyID: "c1", Name: "Ana", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.repos.Customers.Create(ctx, cust))

	inv := func(number string) *entity.Invoice {
		return &entity.Invoice{
			ID: uuid.New().String(), CompanyID: "c1", BranchID: "b1", CustomerID: cust.ID,
			Type: entity.InvoiceTypeInvoice, InvoiceNumber: number, InvoiceDate: now, DueDate: now,
			Status: entity.InvoicePending, CreatedAt: now, UpdatedAt: now,
		}
	}
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		require.NoError(t, r.Invoices.Create(ctx, inv("INV-202610-0001")))
		assert.ErrorIs(t, r.Invoices.Create(ctx, inv("INV-202610-0001")), domain.ErrDuplicate)
		return r.Invoices.Create(ctx, inv("INV-202610-0002"))
	})
	require.NoError(t, err)

	max, err := s.repos.Invoices.MaxNumber(ctx, "c1", "INV-202610-")
	require.NoError(t, err)
	assert.Equal(t, "INV-202610-0002", max)

	missing, err := s.repos.Invoices.GetByID(ctx, "no-es-uuid")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgres_LibroSerializadoPorCliente(t *testing.T) {
	pool := newTestPool(t)
	s := newStack(pool)
	ctx := context.Background()
	tenant := domain.Tenant{CompanyID: "c1", BranchID: "b1", UserID: "u1"}
	now := time.Now().UTC()
	cust := &entity.Customer{ID: uuid.New().String(), CompanyID: "c1", Name: "Ana", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.repos.Customers.Create(ctx, cust))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := ledger.EntryInput{CustomerID: cust.ID, TransactionType: entity.LedgerDebit, Debit: decimal.NewFromInt(5)}
			if i%2 == 1 {
				in = ledger.EntryInput{CustomerID: cust.ID, TransactionType: entity.LedgerCredit, Credit: decimal.NewFromInt(2)}
			}
			_, err := s.ledger.CreateLedgerEntry(ctx, tenant, in, "u1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	bal, err := s.ledger.GetCustomerBalance(ctx, tenant, cust.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(30)), bal.String())

	report, err := s.ledger.VerifyReplay(ctx, cust.ID)
	require.NoError(t, err)
	assert.True(t, report.OK())
}
