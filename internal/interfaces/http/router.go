package http

import (
	nethttp "net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/catalog"
	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/application/order"
	"github.com/jhoicas/pos-api/internal/application/returns"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orders         *order.Service
	Returns        *returns.Service
	Invoices       *billing.InvoiceService
	Customers      *billing.CustomerService
	Ledger         *ledger.Service
	Accounting     *accounting.Service
	Catalog        *catalog.Service
	Metrics        nethttp.Handler // nil no expone /metrics
	JWTSecret      string
	RequestTimeout time.Duration
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api", RequestTimeout(deps.RequestTimeout))

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole(RoleAdmin, RoleCajero))
	adminOnly := RequireRole(RoleAdmin)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.Catalog)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.Get)
	products.Post("/:id/stock", productHandler.AdjustStock)
	products.Get("/:id/movements", productHandler.Movements)

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.Customers)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.Get)

	orders := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.Orders)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Patch("/status", adminOnly, orderHandler.BulkUpdateStatus)
	orders.Get("/:id", orderHandler.Get)
	orders.Get("/:id/history", orderHandler.History)
	orders.Patch("/:id/status", orderHandler.UpdateStatus)
	orders.Delete("/:id", adminOnly, orderHandler.Delete)

	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.Get)
	invoices.Get("/:id/pdf", invoiceHandler.PDF)
	invoices.Get("/:id/payments", invoiceHandler.Payments)
	invoices.Post("/:id/payments", invoiceHandler.AddPayment)

	rets := protected.Group("/returns")
	returnHandler := NewReturnHandler(deps.Returns)
	rets.Post("/whole", returnHandler.CreateWhole)
	rets.Post("/partial", returnHandler.CreatePartial)
	rets.Get("/", returnHandler.List)
	rets.Get("/:id", returnHandler.Get)
	rets.Patch("/:id/status", returnHandler.UpdateStatus)
	rets.Post("/:id/credit-note", invoiceHandler.CreditNote)

	led := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.Ledger)
	led.Post("/entries", ledgerHandler.CreateEntry)
	led.Post("/sales", ledgerHandler.CreateSale)
	led.Post("/payments", ledgerHandler.CreatePayment)
	led.Post("/refunds", ledgerHandler.CreateRefund)
	led.Get("/aging", ledgerHandler.Aging)
	led.Get("/customers/:id/balance", ledgerHandler.Balance)
	led.Get("/customers/:id/statement", ledgerHandler.Statement)
	led.Get("/customers/:id/statement.xlsx", ledgerHandler.StatementXLSX)

	acc := protected.Group("/accounting")
	accountingHandler := NewAccountingHandler(deps.Accounting)
	acc.Get("/entries", accountingHandler.List)
	acc.Get("/summary", accountingHandler.Summary)
}
