// Package metrics expone los contadores de negocio en formato Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/pos-api/internal/application/ports"
)

const namespace = "pos"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus implementa ports.Metrics sobre un registro propio (no el global).
type Prometheus struct {
	registry          *prometheus.Registry
	ordersCreated     prometheus.Counter
	statusTransitions *prometheus.CounterVec
	returnsCreated    *prometheus.CounterVec
	payments          prometheus.Counter
	sideEffectFailed  *prometheus.CounterVec
	lowStockAlerts    *prometheus.CounterVec
}

// New registra los contadores junto con los collectors de proceso y runtime de Go.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_created_total",
			Help: "Pedidos creados.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_status_transitions_total",
			Help: "Cambios de estado de pedidos por estado destino.",
		}, []string{"to"}),
		returnsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "returns_created_total",
			Help: "Devoluciones registradas por tipo.",
		}, []string{"type"}),
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "invoice_payments_total",
			Help: "Pagos aplicados a facturas.",
		}),
		sideEffectFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "side_effect_failures_total",
			Help: "Efectos secundarios best-effort que fallaron (factura, libro, nota crédito).",
		}, []string{"kind"}),
		lowStockAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "low_stock_alerts_total",
			Help: "Avisos de stock bajo por resultado.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.ordersCreated, p.statusTransitions, p.returnsCreated,
		p.payments, p.sideEffectFailed, p.lowStockAlerts,
	)
	return p
}

// Registry devuelve el registro para pruebas o para exponerlo en otro handler.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler sirve el formato de exposición de Prometheus.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) OrderCreated() { p.ordersCreated.Inc() }

func (p *Prometheus) OrderStatusChanged(to string) { p.statusTransitions.WithLabelValues(to).Inc() }

func (p *Prometheus) ReturnCreated(returnType string) { p.returnsCreated.WithLabelValues(returnType).Inc() }

func (p *Prometheus) PaymentRecorded() { p.payments.Inc() }

func (p *Prometheus) SideEffectFailed(kind string) { p.sideEffectFailed.WithLabelValues(kind).Inc() }

// LowStockAlert cuenta el aviso con result="true" o "false".
func (p *Prometheus) LowStockAlert(sent bool) {
	p.lowStockAlerts.WithLabelValues(strconv.FormatBool(sent)).Inc()
}
