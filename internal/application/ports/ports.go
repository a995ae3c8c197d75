package ports

import "context"

// LowStockNotifier puerto de salida para avisos de stock bajo.
// Es best-effort: el resultado nunca revierte el descuento de inventario.
type LowStockNotifier interface {
	SendLowStockAlert(ctx context.Context, productName string, currentStock, threshold int) bool
}

// CustomerLocker lock distribuido opcional por cliente, tomado antes de abrir la transacción
// que escribe en su libro. El lock autoritativo lo toma la transacción en la base de datos.
type CustomerLocker interface {
	// Acquire devuelve la función de liberación; si no se obtiene, devuelve error y el llamador continúa.
	Acquire(ctx context.Context, customerID string) (release func(), err error)
}

// Metrics contadores de negocio expuestos por el adaptador de métricas.
type Metrics interface {
	OrderCreated()
	OrderStatusChanged(to string)
	ReturnCreated(returnType string)
	PaymentRecorded()
	SideEffectFailed(kind string)
	LowStockAlert(sent bool)
}

// NopMetrics implementación vacía de Metrics.
type NopMetrics struct{}

func (NopMetrics) OrderCreated() {}
func (NopMetrics) OrderStatusChanged(string) {}
func (NopMetrics) ReturnCreated(string) {}
func (NopMetrics) PaymentRecorded() {}
func (NopMetrics) SideEffectFailed(string) {}
func (NopMetrics) LowStockAlert(bool) {}

// NopLocker CustomerLocker que no bloquea nada.
type NopLocker struct{}

// Acquire siempre obtiene un lock vacío.
func (NopLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }
