package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/catalog"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/application/order"
	"github.com/jhoicas/pos-api/internal/application/returns"
	"github.com/jhoicas/pos-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/pos-api/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/pos-api/internal/interfaces/http"
)

// newPOSApp arma la API completa sobre el almacén en memoria.
func newPOSApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	log := zerolog.Nop()
	m := metrics.New()

	led := ledger.NewService(store, repos, nil, xlsx.NewStatementExporter(), log)
	acc := accounting.NewService(repos, log)
	inv := inventory.NewService(store, nil, m, time.Second, log)
	invoices := billing.NewInvoiceService(store, repos, led, acc, nil, m, 30, log)
	customers := billing.NewCustomerService(store, repos, "CO")

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Orders:         order.NewService(store, repos, customers, inv, invoices, led, acc, m, log),
		Returns:        returns.NewService(store, repos, inv, invoices, led, acc, m, 0, log),
		Invoices:       invoices,
		Customers:      customers,
		Ledger:         led,
		Accounting:     acc,
		Catalog:        catalog.NewService(repos, inv),
		Metrics:        m.Handler(),
		JWTSecret:      testJWTSecret,
		RequestTimeout: 5 * time.Second,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func dec(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(fmt.Sprint(v))
	require.NoError(t, err)
	return d
}

func createProduct(t *testing.T, app *fiber.App, auth, sku string, stock int) string {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/products", auth, map[string]any{
		"sku": sku, "name": "Producto " + sku, "price": "10.00", "unit_stock": stock, "stock_threshold": 1,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["id"].(string)
}

func TestAPI_PedidoPagoYDevolucionCompleta(t *testing.T) {
	app := newPOSApp(t)
	cajero := bearer(t, apphttp.RoleCajero, testBranchID)
	pid := createProduct(t, app, cajero, "SKU-1", 5)

	status, o := call(t, app, http.MethodPost, "/api/orders", cajero, map[string]any{
		"customer":       map[string]any{"name": "Ana", "phone": "3001234567"},
		"payment_method": "Cash",
		"lines":          []map[string]any{{"product_id": pid, "quantity": 3, "unit_price": "10.00"}},
	})
	require.Equal(t, http.StatusCreated, status, o)
	invoiceID, _ := o["invoice_id"].(string)
	require.NotEmpty(t, invoiceID)
	assert.True(t, dec(t, o["total_amount"]).Equal(decimal.NewFromInt(30)))

	status, p := call(t, app, http.MethodPost, "/api/invoices/"+invoiceID+"/payments", cajero, map[string]any{
		"amount": "50", "method": "Cash",
	})
	assert.Equal(t, http.StatusBadRequest, status, p)

	status, p = call(t, app, http.MethodPost, "/api/invoices/"+invoiceID+"/payments", cajero, map[string]any{
		"amount": "10", "method": "Cash",
	})
	require.Equal(t, http.StatusOK, status, p)
	inv := p["invoice"].(map[string]any)
	assert.True(t, dec(t, inv["balance"]).Equal(decimal.NewFromInt(20)))

	status, r := call(t, app, http.MethodPost, "/api/returns/whole", cajero, map[string]any{
		"invoice_id": invoiceID, "order_id": o["id"], "reason": "cliente insatisfecho",
		"refund_method": "Cash", "total_return_amount": "29",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, r["message"], "Return amount must equal invoice total")

	status, r = call(t, app, http.MethodPost, "/api/returns/whole", cajero, map[string]any{
		"invoice_id": invoiceID, "order_id": o["id"], "reason": "cliente insatisfecho",
		"refund_method": "Cash", "total_return_amount": "30",
	})
	require.Equal(t, http.StatusCreated, status, r)
	assert.Equal(t, "whole", r["type"])
	assert.NotEmpty(t, r["credit_note_invoice_id"])

	status, prod := call(t, app, http.MethodGet, "/api/products/"+pid, cajero, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 5, prod["unit_stock"])
}

func TestAPI_StockInsuficienteRetorna409(t *testing.T) {
	app := newPOSApp(t)
	cajero := bearer(t, apphttp.RoleCajero, testBranchID)
	pid := createProduct(t, app, cajero, "SKU-2", 1)

	status, body := call(t, app, http.MethodPost, "/api/orders", cajero, map[string]any{
		"customer":       map[string]any{"name": "Ana", "phone": "3001234567"},
		"payment_method": "Cash",
		"lines":          []map[string]any{{"product_id": pid, "quantity": 2, "unit_price": "10.00"}},
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
}

func TestAPI_ValidacionesDeEntrada(t *testing.T) {
	app := newPOSApp(t)
	cajero := bearer(t, apphttp.RoleCajero, testBranchID)

	status, body := call(t, app, http.MethodPost, "/api/orders", cajero, map[string]any{
		"customer": map[string]any{"name": "Ana"}, "payment_method": "Cash", "lines": []any{},
	})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, body = call(t, app, http.MethodPatch, "/api/orders/x/status", cajero, map[string]any{
		"status": "Shipped", "order_status": "Shipped",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Contains(t, body["message"], "status must be one of")

	status, body = call(t, app, http.MethodPost, "/api/returns/whole", cajero, map[string]any{
		"invoice_id": "i", "order_id": "o", "reason": "mal", "refund_method": "Cash",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "reason")

	status, body = call(t, app, http.MethodPost, "/api/returns/whole", cajero, map[string]any{
		"invoice_id": "no-existe", "order_id": "o", "reason": "producto defectuoso", "refund_method": "Cash",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invoice not found", body["message"])
}

func TestAPI_SinSucursalEscribeFallaYListaVacia(t *testing.T) {
	app := newPOSApp(t)
	sinSucursal := bearer(t, apphttp.RoleCajero, "")

	status, body := call(t, app, http.MethodPost, "/api/products", sinSucursal, map[string]any{
		"sku": "X", "name": "X", "price": "1", "unit_stock": 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "no branch context", body["message"])

	status, body = call(t, app, http.MethodGet, "/api/products", sinSucursal, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["items"])
}

func TestAPI_OperacionesAdmin(t *testing.T) {
	app := newPOSApp(t)
	cajero := bearer(t, apphttp.RoleCajero, testBranchID)
	admin := bearer(t, apphttp.RoleAdmin, testBranchID)
	pid := createProduct(t, app, admin, "SKU-3", 4)

	_, o := call(t, app, http.MethodPost, "/api/orders", cajero, map[string]any{
		"customer":       map[string]any{"name": "Luis", "email": "luis@example.com"},
		"payment_method": "Card",
		"lines":          []map[string]any{{"product_id": pid, "quantity": 1, "unit_price": "10.00"}},
	})
	req := map[string]any{"order_ids": []any{o["id"]}, "status": "Paid", "order_status": "Paid"}

	status, _ := call(t, app, http.MethodPatch, "/api/orders/status", cajero, req)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := call(t, app, http.MethodPatch, "/api/orders/status", admin, req)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 1, body["updated"])

	status, _ = call(t, app, http.MethodDelete, "/api/orders/"+o["id"].(string), cajero, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_MetricsExpuestas(t *testing.T) {
	app := newPOSApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CancelacionNoSeReabreNiSeDevuelve(t *testing.T) {
	app := newPOSApp(t)
	cajero := bearer(t, apphttp.RoleCajero, testBranchID)
	pid := createProduct(t, app, cajero, "SKU-4", 10)

	status, o := call(t, app, http.MethodPost, "/api/orders", cajero, map[string]any{
		"customer":       map[string]any{"name": "Marta"},
		"payment_method": "Cash",
		"lines":          []map[string]any{{"product_id": pid, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, status, o)
	orderID := o["id"].(string)
	invoiceID, _ := o["invoice_id"].(string)
	require.NotEmpty(t, invoiceID)
	assert.True(t, dec(t, o["total_amount"]).Equal(decimal.NewFromInt(20)))

	status, body := call(t, app, http.MethodPatch, "/api/orders/"+orderID+"/status", cajero, map[string]any{
		"status": "Cancelled", "order_status": "Cancelled",
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(t, app, http.MethodPatch, "/api/orders/"+orderID+"/status", cajero, map[string]any{
		"status": "Pending", "order_status": "Pending",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cancelled orders cannot be reopened", body["message"])

	status, body = call(t, app, http.MethodPost, "/api/returns/whole", cajero, map[string]any{
		"invoice_id": invoiceID, "order_id": orderID, "reason": "cliente insatisfecho",
		"refund_method": "Cash", "total_return_amount": "20",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cancelled orders cannot be returned", body["message"])

	status, prod := call(t, app, http.MethodGet, "/api/products/"+pid, cajero, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 10, prod["unit_stock"])

	status, list := call(t, app, http.MethodGet, "/api/orders?limit=500", cajero, nil)
	require.Equal(t, http.StatusOK, status)
	page := list["page"].(map[string]any)
	assert.EqualValues(t, 100, page["limit"])
	assert.EqualValues(t, 1, page["count"])
}
