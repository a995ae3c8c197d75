// Package notify implementa los avisos de stock bajo que no dependen de Redis.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/ports"
)

var _ ports.LowStockNotifier = (*LogNotifier)(nil)

// LogNotifier escribe el aviso en el log. Es el notificador por defecto sin Redis.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// SendLowStockAlert registra el aviso y siempre lo da por enviado.
func (n *LogNotifier) SendLowStockAlert(_ context.Context, productName string, currentStock, threshold int) bool {
	n.log.Warn().
		Str("product", productName).
		Int("stock", currentStock).
		Int("threshold", threshold).
		Msg("stock bajo")
	return true
}
