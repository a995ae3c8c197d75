// Package order orquesta la creación de pedidos y sus cambios de estado, encadenando inventario,
// facturación, libro de clientes y diario contable.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/pkg/money"
)

// Service orquestador de pedidos.
type Service struct {
	tx         repository.TxRunner
	repos      repository.Repositories
	customers  *billing.CustomerService
	inventory  *inventory.Service
	invoices   *billing.InvoiceService
	ledger     *ledger.Service
	accounting *accounting.Service
	metrics    ports.Metrics
	log        zerolog.Logger
	now        func() time.Time
}

// NewService construye el orquestador.
func NewService(
	tx repository.TxRunner,
	repos repository.Repositories,
	customers *billing.CustomerService,
	inventorySvc *inventory.Service,
	invoices *billing.InvoiceService,
	ledgerSvc *ledger.Service,
	accountingSvc *accounting.Service,
	metrics ports.Metrics,
	log zerolog.Logger,
) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Service{
		tx:         tx,
		repos:      repos,
		customers:  customers,
		inventory:  inventorySvc,
		invoices:   invoices,
		ledger:     ledgerSvc,
		accounting: accountingSvc,
		metrics:    metrics,
		log:        log,
		now:        time.Now,
	}
}

// LineInput línea solicitada. UnitPrice nil usa el precio del producto; cero es un precio válido.
type LineInput struct {
	ProductID string
	Quantity  int
	UnitPrice *decimal.Decimal
}

func samePrice(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// CreateInput datos para crear un pedido.
type CreateInput struct {
	Customer      billing.CustomerInfo
	PaymentMethod string
	Lines         []LineInput
}

// Result pedido creado y, si se pudo emitir, su factura.
type Result struct {
	Order   *entity.Order
	Invoice *entity.Invoice
}

// mergeLines agrupa las líneas repetidas de un mismo producto. Dos precios distintos para el mismo producto
// son un error porque las devoluciones validan contra un único precio unitario.
func mergeLines(lines []LineInput) ([]LineInput, error) {
	out := make([]LineInput, 0, len(lines))
	idx := map[string]int{}
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, domain.Invalid("product_id is required")
		}
		if l.Quantity <= 0 {
			return nil, domain.Invalid(fmt.Sprintf("quantity for product %s must be greater than zero", l.ProductID))
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return nil, domain.Invalid(fmt.Sprintf("unit price for product %s cannot be negative", l.ProductID))
		}
		i, ok := idx[l.ProductID]
		if !ok {
			idx[l.ProductID] = len(out)
			out = append(out, l)
			continue
		}
		if !samePrice(out[i].UnitPrice, l.UnitPrice) {
			return nil, domain.Invalid(fmt.Sprintf("product %s appears with different unit prices", l.ProductID))
		}
		out[i].Quantity += l.Quantity
	}
	return out, nil
}

// CreateOrder crea el pedido en una sola transacción: resuelve el cliente, inserta cabecera y líneas,
// descuenta inventario por línea y registra el historial. Si una línea no tiene stock no queda nada escrito.
// Después, fuera de esa transacción, intenta emitir la factura y cargar la venta al cliente; esas fallas
// se registran en el log y no afectan el pedido.
func (s *Service) CreateOrder(ctx context.Context, t domain.Tenant, in CreateInput) (*Result, error) {
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, domain.InvalidOperation("Order must contain at least one line")
	}
	lines, err := mergeLines(in.Lines)
	if err != nil {
		return nil, err
	}

	var o *entity.Order
	var changes []*inventory.StockChange
	err = s.tx.Run(ctx, func(r repository.Repositories) error {
		changes = changes[:0]
		customer, err := s.customers.ResolveInTx(ctx, r, t.CompanyID, in.Customer)
		if err != nil {
			return err
		}

		now := s.now()
		o = &entity.Order{
			ID:            uuid.New().String(),
			CompanyID:     t.CompanyID,
			BranchID:      t.BranchID,
			CustomerID:    customer.ID,
			Date:          now,
			Status:        entity.OrderPending,
			OrderStatus:   entity.OrderPending,
			PaymentMethod: in.PaymentMethod,
			CreatedBy:     t.UserID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		for _, l := range lines {
			p, err := r.Products.GetByID(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if p == nil || !t.Owns(p.CompanyID, p.BranchID) {
				return domain.NotFound(fmt.Sprintf("Product %s not found", l.ProductID))
			}
			price := p.Price
			if l.UnitPrice != nil {
				price = *l.UnitPrice
			}
			o.Lines = append(o.Lines, entity.OrderLine{
				ID:        uuid.New().String(),
				OrderID:   o.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: price,
				LineTotal: money.LineTotal(l.Quantity, price),
			})
			o.TotalAmount = o.TotalAmount.Add(o.Lines[len(o.Lines)-1].LineTotal)
		}

		if err := r.Orders.Create(ctx, o); err != nil {
			return fmt.Errorf("insertar pedido: %w", err)
		}
		ref := inventory.Reference{TransactionID: o.ID, UserID: t.UserID}
		for i := range o.Lines {
			l := &o.Lines[i]
			if err := r.Orders.AddLine(ctx, l); err != nil {
				return fmt.Errorf("insertar línea: %w", err)
			}
			change, err := s.inventory.DeductInTx(ctx, r, l.ProductID, l.Quantity, ref)
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}
		return r.Orders.AddHistory(ctx, &entity.OrderHistory{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			NewStatus: entity.OrderPending,
			Action:    entity.OrderActionCreated,
			ActorID:   t.UserID,
			Note:      "Order created",
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCreated()
	s.inventory.NotifyLowStock(changes...)

	res := &Result{Order: o}
	res.Invoice = s.postSale(ctx, o, t.UserID)
	return res, nil
}

// postSale emite la factura y luego carga la venta al cliente, cada una en su propia transacción.
// Devuelve la factura si se pudo emitir.
func (s *Service) postSale(ctx context.Context, o *entity.Order, actor string) *entity.Invoice {
	log := s.log.With().Str("order_id", o.ID).Str("branch_id", o.BranchID).Logger()

	var inv *entity.Invoice
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		inv, _, err = s.invoices.CreateInvoiceInTx(ctx, r, o.ID, nil, actor)
		return err
	})
	if err != nil {
		s.metrics.SideEffectFailed("invoice")
		log.Error().Err(err).Msg("no se pudo emitir la factura del pedido")
		return nil
	}

	err = s.ledger.WithCustomerLock(ctx, o.CustomerID, func() error {
		return s.tx.Run(ctx, func(r repository.Repositories) error {
			_, err := s.ledger.SaleEntryInTx(ctx, r, o, inv, actor)
			return err
		})
	})
	if err != nil {
		s.metrics.SideEffectFailed("sale_ledger")
		log.Error().Err(err).Str("invoice_id", inv.ID).Str("customer_id", o.CustomerID).
			Msg("no se pudo registrar la venta en el libro del cliente")
	}
	return inv
}

// StatusChange estado destino. Status y OrderStatus deben ser válidos y coincidir.
type StatusChange struct {
	Status      string
	OrderStatus string
	Note        string
}

func (c StatusChange) validate() error {
	if !entity.ValidOrderStatus(c.Status) {
		return domain.Invalid(fmt.Sprintf("invalid status %q", c.Status))
	}
	if !entity.ValidOrderStatus(c.OrderStatus) {
		return domain.Invalid(fmt.Sprintf("invalid order_status %q", c.OrderStatus))
	}
	if c.Status != c.OrderStatus {
		return domain.Invalid("status and order_status must match")
	}
	return nil
}

func actionFor(next string) string {
	switch next {
	case entity.OrderCancelled:
		return entity.OrderActionCancelled
	case entity.OrderPaid:
		return entity.OrderActionPaid
	}
	return entity.OrderActionStatusUpdated
}

// UpdateOrderStatus cambia el estado del pedido y aplica sus efectos en la misma transacción:
// al cancelar repone inventario; al pagar registra la venta contable y marca la factura pagada;
// al cancelar un pedido pagado registra el reembolso y cancela la factura. Repetir el mismo estado
// solo agrega historial. Un pedido cancelado no puede reabrirse y uno con devoluciones no puede cancelarse.
func (s *Service) UpdateOrderStatus(ctx context.Context, t domain.Tenant, orderID string, change StatusChange) (*entity.Order, error) {
	if err := change.validate(); err != nil {
		return nil, err
	}
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	o, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || !t.Owns(o.CompanyID, o.BranchID) {
		return nil, domain.NotFound("Order not found")
	}
	return s.applyStatus(ctx, t, orderID, change)
}

// ensureNoReturns bloquea la factura del pedido, igual que una devolución, y rechaza la cancelación
// si ya tiene devoluciones: el inventario y el reembolso de esas unidades ya se registraron.
func (s *Service) ensureNoReturns(ctx context.Context, r repository.Repositories, orderID string) error {
	inv, err := r.Invoices.GetByOrderID(ctx, orderID)
	if err != nil || inv == nil {
		return err
	}
	if inv, err = r.Invoices.GetForUpdate(ctx, inv.ID); err != nil || inv == nil {
		return err
	}
	returned, err := r.Returns.ReturnedQuantities(ctx, inv.ID)
	if err != nil {
		return err
	}
	if len(returned) > 0 {
		return domain.InvalidOperation("Orders with returns cannot be cancelled")
	}
	return nil
}

func (s *Service) applyStatus(ctx context.Context, t domain.Tenant, orderID string, change StatusChange) (*entity.Order, error) {
	var o *entity.Order
	var prev string
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		o, err = r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NotFound("Order not found")
		}
		prev = o.Status
		next := change.Status
		now := s.now()

		if prev == entity.OrderCancelled && next != entity.OrderCancelled {
			return domain.InvalidOperation("Cancelled orders cannot be reopened")
		}
		if next == entity.OrderCancelled && prev != entity.OrderCancelled {
			if err := s.ensureNoReturns(ctx, r, o.ID); err != nil {
				return err
			}

			ref := inventory.Reference{TransactionID: o.ID, UserID: t.UserID}
			for _, l := range o.Lines {
				_, ok, err := s.inventory.RestoreInTx(ctx, r, l.ProductID, l.Quantity, ref)
				if err != nil {
					return err
				}
				if !ok {
					s.log.Warn().Str("order_id", o.ID).Str("product_id", l.ProductID).Msg("producto no encontrado al reponer inventario")
				}
			}
		}

		if err := r.Orders.UpdateStatus(ctx, o.ID, next, change.OrderStatus, now); err != nil {
			return fmt.Errorf("actualizar estado: %w", err)
		}
		if err := r.Orders.AddHistory(ctx, &entity.OrderHistory{
			ID:             uuid.New().String(),
			OrderID:        o.ID,
			PreviousStatus: prev,
			NewStatus:      next,
			Action:         actionFor(next),
			ActorID:        t.UserID,
			Note:           change.Note,
			CreatedAt:      now,
		}); err != nil {
			return fmt.Errorf("registrar historial: %w", err)
		}

		switch {
		case next == entity.OrderPaid && prev != entity.OrderPaid:
			if _, err := s.accounting.SaleForOrderInTx(ctx, r, o, t.UserID); err != nil {
				return err
			}
			if _, err := s.invoices.UpdateInvoiceStatusByOrderIDInTx(ctx, r, o.ID, entity.InvoicePaid); err != nil {
				return err
			}
		case next == entity.OrderCancelled && prev == entity.OrderPaid:
			if _, err := s.accounting.RefundForOrderInTx(ctx, r, o, t.UserID); err != nil {
				return err
			}
			if _, err := s.invoices.UpdateInvoiceStatusByOrderIDInTx(ctx, r, o.ID, entity.InvoiceCancelled); err != nil {
				return err
			}
		}
		o.Status, o.OrderStatus, o.UpdatedAt = next, change.OrderStatus, now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if prev != change.Status {
		s.metrics.OrderStatusChanged(change.Status)
	}
	return o, nil
}

// BulkUpdateOrderStatus aplica el mismo cambio a varios pedidos y devuelve cuántos se actualizaron.
// Los pedidos de otra sucursal o inexistentes se omiten sin error.
func (s *Service) BulkUpdateOrderStatus(ctx context.Context, t domain.Tenant, orderIDs []string, change StatusChange) (int, error) {
	if err := change.validate(); err != nil {
		return 0, err
	}
	if err := t.RequireBranch(); err != nil {
		return 0, err
	}
	updated := 0
	for _, id := range orderIDs {
		o, err := s.repos.Orders.GetByID(ctx, id)
		if err != nil {
			return updated, err
		}
		if o == nil || !t.Owns(o.CompanyID, o.BranchID) {
			continue
		}
		if _, err := s.applyStatus(ctx, t, id, change); err != nil {
			s.log.Warn().Err(err).Str("order_id", id).Msg("no se pudo actualizar el estado del pedido")
			continue
		}
		updated++
	}
	return updated, nil
}

// GetOrder obtiene un pedido con sus líneas.
func (s *Service) GetOrder(ctx context.Context, t domain.Tenant, id string) (*entity.Order, error) {
	o, err := s.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil || !t.Owns(o.CompanyID, o.BranchID) {
		return nil, domain.NotFound("Order not found")
	}
	return o, nil
}

// ListOrders lista pedidos de la sucursal. Sin sucursal devuelve vacío.
func (s *Service) ListOrders(ctx context.Context, t domain.Tenant, limit, offset int) ([]*entity.Order, error) {
	if !t.HasBranch() {
		return []*entity.Order{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Orders.ListByBranch(ctx, t.CompanyID, t.BranchID, limit, offset)
}

// History historial de estados del pedido.
func (s *Service) History(ctx context.Context, t domain.Tenant, id string) ([]*entity.OrderHistory, error) {
	if _, err := s.GetOrder(ctx, t, id); err != nil {
		return nil, err
	}
	return s.repos.Orders.ListHistory(ctx, id)
}

// DeleteOrder borra el pedido con sus líneas e historial. No repone inventario ni toca la factura.
func (s *Service) DeleteOrder(ctx context.Context, t domain.Tenant, id string) error {
	if err := t.RequireBranch(); err != nil {
		return err
	}
	if _, err := s.GetOrder(ctx, t, id); err != nil {
		return err
	}
	return s.tx.Run(ctx, func(r repository.Repositories) error {
		return r.Orders.Delete(ctx, id)
	})
}
