package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/jhoicas/pos-api/internal/application/ports"
)

var _ ports.LowStockNotifier = (*RateLimited)(nil)

// RateLimited limita cuántos avisos por minuto llegan al notificador envuelto.
// Los avisos que exceden el límite se descartan sin esperar.
type RateLimited struct {
	next    ports.LowStockNotifier
	limiter *rate.Limiter
}

// NewRateLimited envuelve next con un token bucket de perMinute avisos (ráfaga = perMinute).
func NewRateLimited(next ports.LowStockNotifier, perMinute int) *RateLimited {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// SendLowStockAlert reenvía el aviso si hay cupo; si no, devuelve false.
func (r *RateLimited) SendLowStockAlert(ctx context.Context, productName string, currentStock, threshold int) bool {
	if !r.limiter.Allow() {
		return false
	}
	return r.next.SendLowStockAlert(ctx, productName, currentStock, threshold)
}
