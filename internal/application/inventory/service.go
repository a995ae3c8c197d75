package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// Reference identifica la operación que origina un movimiento de stock.
type Reference struct {
	TransactionID string // pedido o devolución
	UserID        string
}

// StockChange resultado de un descuento o reposición.
type StockChange struct {
	ProductID   string
	ProductName string
	Before      int
	After       int
	Threshold   int
	LowStock    bool // After <= Threshold tras un descuento
}

// Service libro de inventario: descuentos y reposiciones de stock por producto.
type Service struct {
	tx           repository.TxRunner
	notifier     ports.LowStockNotifier
	metrics      ports.Metrics
	alertTimeout time.Duration
	log          zerolog.Logger
	now          func() time.Time
	async        bool
}

// NewService construye el servicio. notifier puede ser nil.
func NewService(tx repository.TxRunner, notifier ports.LowStockNotifier, metrics ports.Metrics, alertTimeout time.Duration, log zerolog.Logger) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if alertTimeout <= 0 {
		alertTimeout = 3 * time.Second
	}
	return &Service{
		tx:           tx,
		notifier:     notifier,
		metrics:      metrics,
		alertTimeout: alertTimeout,
		log:          log,
		now:          time.Now,
		async:        true,
	}
}

// DeductInTx descuenta qty del producto usando los repos de la transacción del llamador.
// Bloquea la fila del producto; si qty supera el stock devuelve ErrInsufficientStock sin modificar nada.
func (s *Service) DeductInTx(ctx context.Context, r repository.Repositories, productID string, qty int, ref Reference) (*StockChange, error) {
	if qty <= 0 {
		return nil, domain.Invalid("quantity must be greater than zero")
	}
	p, err := r.Products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound(fmt.Sprintf("Product %s not found", productID))
	}
	if qty > p.UnitStock {
		return nil, &domain.BusinessError{
			Kind:    domain.ErrInsufficientStock,
			Message: fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", p.Name, qty, p.UnitStock),
		}
	}
	change := &StockChange{ProductID: p.ID, ProductName: p.Name, Before: p.UnitStock, Threshold: p.StockThreshold}
	p.UnitStock -= qty
	if p.UnitStock == 0 {
		p.Status = entity.ProductUnavailable
	}
	p.UpdatedAt = s.now()
	if err := r.Products.UpdateStock(ctx, p); err != nil {
		return nil, err
	}
	if err := s.recordMovement(ctx, r, p, entity.MovementTypeOUT, -qty, ref); err != nil {
		return nil, err
	}
	change.After = p.UnitStock
	change.LowStock = p.UnitStock <= p.StockThreshold
	return change, nil
}

// RestoreInTx devuelve qty al stock del producto. Si el producto no existe devuelve (nil, false, nil).
func (s *Service) RestoreInTx(ctx context.Context, r repository.Repositories, productID string, qty int, ref Reference) (*StockChange, bool, error) {
	if qty <= 0 {
		return nil, false, domain.Invalid("quantity must be greater than zero")
	}
	p, err := r.Products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if p == nil {
		return nil, false, nil
	}
	change := &StockChange{ProductID: p.ID, ProductName: p.Name, Before: p.UnitStock, Threshold: p.StockThreshold}
	p.UnitStock += qty
	if !p.Available() && p.UnitStock > 0 {
		p.Status = entity.ProductAvailable
	}
	p.UpdatedAt = s.now()
	if err := r.Products.UpdateStock(ctx, p); err != nil {
		return nil, false, err
	}
	if err := s.recordMovement(ctx, r, p, entity.MovementTypeIN, qty, ref); err != nil {
		return nil, false, err
	}
	change.After = p.UnitStock
	return change, true, nil
}

func (s *Service) recordMovement(ctx context.Context, r repository.Repositories, p *entity.Product, kind string, qty int, ref Reference) error {
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		ProductID:     p.ID,
		TransactionID: ref.TransactionID,
		Type:          kind,
		Quantity:      qty,
		StockAfter:    p.UnitStock,
		CreatedBy:     ref.UserID,
		CreatedAt:     p.UpdatedAt,
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		return fmt.Errorf("registrar movimiento: %w", err)
	}
	return nil
}

// DeductInventory descuenta stock en su propia transacción y, tras confirmar, avisa si quedó bajo el umbral.
func (s *Service) DeductInventory(ctx context.Context, productID string, qty int, ref Reference) (*StockChange, error) {
	var change *StockChange
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		change, err = s.DeductInTx(ctx, r, productID, qty, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.NotifyLowStock(change)
	return change, nil
}

// RestoreInventory repone stock en su propia transacción. Devuelve false si el producto no existe.
func (s *Service) RestoreInventory(ctx context.Context, productID string, qty int, ref Reference) (bool, error) {
	var ok bool
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		_, ok, err = s.RestoreInTx(ctx, r, productID, qty, ref)
		return err
	})
	return ok, err
}

// NotifyLowStock envía los avisos de stock bajo de los cambios indicados, sin bloquear al llamador.
// Llamar solo después de confirmar la transacción.
func (s *Service) NotifyLowStock(changes ...*StockChange) {
	if s.notifier == nil {
		return
	}
	for _, c := range changes {
		if c == nil || !c.LowStock {
			continue
		}
		send := func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.alertTimeout)
			defer cancel()
			sent := s.notifier.SendLowStockAlert(ctx, c.ProductName, c.After, c.Threshold)
			s.metrics.LowStockAlert(sent)
			if !sent {
				s.log.Warn().Str("product_id", c.ProductID).Int("stock", c.After).Msg("aviso de stock bajo no enviado")
			}
		}
		if s.async {
			go send()
		} else {
			send()
		}
	}
}
