package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/ports"
)

// LowStockChannel canal pub/sub donde se publican los avisos.
const LowStockChannel = "pos:alerts:low-stock"

var _ ports.LowStockNotifier = (*AlertPublisher)(nil)

// LowStockAlert mensaje publicado en LowStockChannel.
type LowStockAlert struct {
	ProductName  string    `json:"product_name"`
	CurrentStock int       `json:"current_stock"`
	Threshold    int       `json:"threshold"`
	At           time.Time `json:"at"`
}

// AlertPublisher publica avisos de stock bajo. Un SETNX con TTL evita repetir el mismo aviso
// del mismo producto durante cooldown.
type AlertPublisher struct {
	client   *goredis.Client
	cooldown time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewAlertPublisher construye el publicador.
func NewAlertPublisher(client *goredis.Client, cooldown time.Duration, log zerolog.Logger) *AlertPublisher {
	if cooldown <= 0 {
		cooldown = 15 * time.Minute
	}
	return &AlertPublisher{client: client, cooldown: cooldown, log: log, now: time.Now}
}

// SendLowStockAlert publica el aviso. Un aviso suprimido por cooldown cuenta como entregado.
func (p *AlertPublisher) SendLowStockAlert(ctx context.Context, productName string, currentStock, threshold int) bool {
	key := "pos:alerts:cooldown:" + productName
	fresh, err := p.client.SetNX(ctx, key, currentStock, p.cooldown).Result()
	if err != nil {
		p.log.Warn().Err(err).Str("product", productName).Msg("cooldown de aviso no disponible")
		return false
	}
	if !fresh {
		p.log.Debug().Str("product", productName).Msg("aviso de stock bajo en cooldown")
		return true
	}
	payload, err := json.Marshal(LowStockAlert{
		ProductName:  productName,
		CurrentStock: currentStock,
		Threshold:    threshold,
		At:           p.now().UTC(),
	})
	if err != nil {
		return false
	}
	if err := p.client.Publish(ctx, LowStockChannel, payload).Err(); err != nil {
		p.log.Warn().Err(err).Str("product", productName).Msg("no se pudo publicar aviso de stock bajo")
		// Sin publicar, el siguiente descuento debe poder reintentar.
		_ = p.client.Del(ctx, key).Err()
		return false
	}
	return true
}
