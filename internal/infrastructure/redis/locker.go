package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/ports"
)

var _ ports.CustomerLocker = (*CustomerLocker)(nil)

// CustomerLocker lock distribuido "ledger:<customerID>" sobre redislock.
// Es un primer filtro entre instancias; el lock autoritativo lo toma la transacción en PostgreSQL.
type CustomerLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	log    zerolog.Logger
}

// NewCustomerLocker construye el lock. ttl acota cuánto retiene el lock una instancia caída;
// wait es cuánto se reintenta antes de rendirse.
func NewCustomerLocker(client *goredis.Client, ttl, wait time.Duration, log zerolog.Logger) *CustomerLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &CustomerLocker{locker: redislock.New(client), ttl: ttl, wait: wait, log: log}
}

func lockKey(customerID string) string { return "ledger:" + customerID }

// Acquire obtiene el lock del cliente o devuelve error si no lo consigue dentro de wait.
func (l *CustomerLocker) Acquire(ctx context.Context, customerID string) (func(), error) {
	step := 50 * time.Millisecond
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(step), int(l.wait/step)),
	}
	lock, err := l.locker.Obtain(ctx, lockKey(customerID), l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("lock %s ocupado", lockKey(customerID))
	}
	if err != nil {
		return nil, fmt.Errorf("obtener lock %s: %w", lockKey(customerID), err)
	}
	return func() {
		// La liberación usa su propio contexto: el de la petición puede estar cancelado.
		relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := lock.Release(relCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("customer_id", customerID).Msg("no se pudo liberar lock del cliente")
		}
	}, nil
}
