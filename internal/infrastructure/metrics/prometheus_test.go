package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Contadores(t *testing.T) {
	p := New()
	p.OrderCreated()
	p.OrderCreated()
	p.OrderStatusChanged("Paid")
	p.ReturnCreated("whole")
	p.PaymentRecorded()
	p.SideEffectFailed("invoice")
	p.LowStockAlert(true)
	p.LowStockAlert(false)
	p.LowStockAlert(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.ordersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.statusTransitions.WithLabelValues("Paid")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.statusTransitions.WithLabelValues("Cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.returnsCreated.WithLabelValues("whole")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.payments))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.sideEffectFailed.WithLabelValues("invoice")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.lowStockAlerts.WithLabelValues("false")))
}

func TestPrometheus_Handler(t *testing.T) {
	p := New()
	p.OrderCreated()

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pos_orders_created_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
