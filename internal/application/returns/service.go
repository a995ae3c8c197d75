// Package returns valida y ejecuta devoluciones totales y parciales contra una factura.
package returns

import (
	"context"
	"fmt"
	"strings"
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

// DefaultWindow plazo para devolver contado desde la fecha de la factura.
const DefaultWindow = 14 * 24 * time.Hour

const minReasonLength = 5

// Service orquestador de devoluciones.
type Service struct {
	tx         repository.TxRunner
	repos      repository.Repositories
	inventory  *inventory.Service
	invoices   *billing.InvoiceService
	ledger     *ledger.Service
	accounting *accounting.Service
	metrics    ports.Metrics
	window     time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// NewService construye el orquestador. window <= 0 usa DefaultWindow.
func NewService(
	tx repository.TxRunner,
	repos repository.Repositories,
	inventorySvc *inventory.Service,
	invoices *billing.InvoiceService,
	ledgerSvc *ledger.Service,
	accountingSvc *accounting.Service,
	metrics ports.Metrics,
	window time.Duration,
	log zerolog.Logger,
) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{
		tx:         tx,
		repos:      repos,
		inventory:  inventorySvc,
		invoices:   invoices,
		ledger:     ledgerSvc,
		accounting: accountingSvc,
		metrics:    metrics,
		window:     window,
		log:        log,
		now:        time.Now,
	}
}

// ItemInput producto a devolver en una devolución parcial.
type ItemInput struct {
	ProductID      string
	ReturnQuantity int
	ReturnAmount   decimal.Decimal
}

// CreateInput solicitud de devolución. Items solo aplica a devoluciones parciales.
type CreateInput struct {
	InvoiceID         string
	OrderID           string
	Reason            string
	RefundMethod      string
	TotalReturnAmount decimal.Decimal
	Items             []ItemInput
}

// CreateWholeReturn devuelve la factura completa.
func (s *Service) CreateWholeReturn(ctx context.Context, t domain.Tenant, in CreateInput) (*entity.Return, error) {
	return s.create(ctx, t, in, entity.ReturnWhole)
}

// CreatePartialReturn devuelve parte de los productos de la factura.
func (s *Service) CreatePartialReturn(ctx context.Context, t domain.Tenant, in CreateInput) (*entity.Return, error) {
	return s.create(ctx, t, in, entity.ReturnPartial)
}

// target factura y pedido contra los que se devuelve.
type target struct {
	invoice *entity.Invoice
	order   *entity.Order
}

// preconditions verifica, en este orden: factura existente, plazo de devolución, método de reembolso,
// sucursal del pedido y que el pedido no esté cancelado. Cada falla es InvalidOperation con el motivo.
func (s *Service) preconditions(ctx context.Context, r repository.Repositories, t domain.Tenant, in CreateInput, lock bool) (*target, error) {
	var inv *entity.Invoice
	var err error
	if lock {
		inv, err = r.Invoices.GetForUpdate(ctx, in.InvoiceID)
	} else {
		inv, err = r.Invoices.GetByID(ctx, in.InvoiceID)
	}
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.IsCreditNote() {
		return nil, domain.InvalidOperation("Invoice not found")
	}
	if s.now().Sub(inv.InvoiceDate) > s.window {
		return nil, domain.InvalidOperation(fmt.Sprintf("Return window of %d days has expired for this invoice", int(s.window.Hours()/24)))
	}
	if !entity.ValidRefundMethod(in.RefundMethod) {
		return nil, domain.InvalidOperation(fmt.Sprintf("Invalid refund method %q; use Cash, Card or Store Credit", in.RefundMethod))
	}
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	if inv.OrderID == "" || (in.OrderID != "" && in.OrderID != inv.OrderID) {
		return nil, domain.InvalidOperation("Order does not match the invoice")
	}
	o, err := r.Orders.GetByID(ctx, inv.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.InvalidOperation("Order does not match the invoice")
	}
	if !t.Owns(o.CompanyID, o.BranchID) {
		return nil, domain.InvalidOperation("Invoice does not belong to your branch")
	}
	if o.Status == entity.OrderCancelled || inv.Status == entity.InvoiceCancelled {
		return nil, domain.InvalidOperation("Cancelled orders cannot be returned")
	}
	return &target{invoice: inv, order: o}, nil
}

func (s *Service) create(ctx context.Context, t domain.Tenant, in CreateInput, kind string) (*entity.Return, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if len([]rune(in.Reason)) < minReasonLength {
		return nil, domain.Invalid(fmt.Sprintf("reason must be at least %d characters", minReasonLength))
	}
	if kind == entity.ReturnPartial && len(in.Items) == 0 {
		return nil, domain.Invalid("partial returns require at least one item")
	}

	// Lectura previa para obtener el cliente y tomar su lock antes de abrir la transacción.
	pre, err := s.preconditions(ctx, s.repos, t, in, false)
	if err != nil {
		return nil, err
	}

	var ret *entity.Return
	err = s.ledger.WithCustomerLock(ctx, pre.invoice.CustomerID, func() error {
		return s.tx.Run(ctx, func(r repository.Repositories) error {
			tg, err := s.preconditions(ctx, r, t, in, true)
			if err != nil {
				return err
			}
			var items []entity.ReturnItem
			if kind == entity.ReturnWhole {
				items, err = s.validateWhole(ctx, r, tg, in)
			} else {
				items, err = s.validatePartial(ctx, r, tg, in)
			}
			if err != nil {
				return err
			}
			ret, err = s.execute(ctx, r, t, tg, in, kind, items)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ReturnCreated(kind)
	s.issueCreditNote(ctx, ret, t.UserID)
	return ret, nil
}

func (s *Service) validateWhole(ctx context.Context, r repository.Repositories, tg *target, in CreateInput) ([]entity.ReturnItem, error) {
	if !money.Equal(in.TotalReturnAmount, tg.invoice.TotalAmount) {
		return nil, domain.InvalidOperation(fmt.Sprintf("Return amount must equal invoice total for whole returns (expected %s)",
			tg.invoice.TotalAmount.StringFixed(2)))
	}
	wholes, err := r.Returns.CountByInvoice(ctx, tg.invoice.ID, entity.ReturnWhole)
	if err != nil {
		return nil, err
	}
	if wholes > 0 {
		return nil, domain.InvalidOperation("Invoice has already been fully returned")
	}
	partials, err := r.Returns.CountByInvoice(ctx, tg.invoice.ID, entity.ReturnPartial)
	if err != nil {
		return nil, err
	}
	if partials > 0 {
		return nil, domain.InvalidOperation("Invoice already has partial returns; return the remaining items with a partial return")
	}

	var items []entity.ReturnItem
	idx := map[string]int{}
	for _, l := range tg.order.Lines {
		if i, ok := idx[l.ProductID]; ok {
			items[i].ReturnQuantity += l.Quantity
			items[i].ReturnAmount = items[i].ReturnAmount.Add(l.LineTotal)
			continue
		}
		idx[l.ProductID] = len(items)
		items = append(items, entity.ReturnItem{ProductID: l.ProductID, ReturnQuantity: l.Quantity, ReturnAmount: l.LineTotal})
	}
	return items, nil
}

// validatePartial agrupa los ítems por producto y valida cantidad acumulada y monto por línea.
// Las cantidades ya devueltas se leen dentro de la transacción, con la factura bloqueada.
func (s *Service) validatePartial(ctx context.Context, r repository.Repositories, tg *target, in CreateInput) ([]entity.ReturnItem, error) {
	wholes, err := r.Returns.CountByInvoice(ctx, tg.invoice.ID, entity.ReturnWhole)
	if err != nil {
		return nil, err
	}
	if wholes > 0 {
		return nil, domain.InvalidOperation("Invoice has already been fully returned")
	}
	returned, err := r.Returns.ReturnedQuantities(ctx, tg.invoice.ID)
	if err != nil {
		return nil, err
	}

	var items []entity.ReturnItem
	idx := map[string]int{}
	for _, it := range in.Items {
		if it.ReturnQuantity <= 0 {
			return nil, domain.Invalid(fmt.Sprintf("return quantity for product %s must be greater than zero", it.ProductID))
		}
		if i, ok := idx[it.ProductID]; ok {
			items[i].ReturnQuantity += it.ReturnQuantity
			items[i].ReturnAmount = items[i].ReturnAmount.Add(it.ReturnAmount)
			continue
		}
		idx[it.ProductID] = len(items)
		items = append(items, entity.ReturnItem{ProductID: it.ProductID, ReturnQuantity: it.ReturnQuantity, ReturnAmount: it.ReturnAmount})
	}

	sum := decimal.Zero
	for _, it := range items {
		line := tg.order.Line(it.ProductID)
		if line == nil {
			return nil, domain.InvalidOperation(fmt.Sprintf("Product %s is not part of the order", it.ProductID))
		}
		ordered := tg.order.OrderedQuantity(it.ProductID)
		already := returned[it.ProductID]
		if already+it.ReturnQuantity > ordered {
			return nil, domain.InvalidOperation(fmt.Sprintf(
				"Return quantity for product %s exceeds ordered quantity (ordered %d, already returned %d, requested %d)",
				it.ProductID, ordered, already, it.ReturnQuantity))
		}
		expected := money.LineTotal(it.ReturnQuantity, line.UnitPrice)
		if !money.Equal(it.ReturnAmount, expected) {
			return nil, domain.InvalidOperation(fmt.Sprintf(
				"Return amount for product %s must equal unit price × quantity (expected %s)", it.ProductID, expected.StringFixed(2)))
		}
		sum = sum.Add(it.ReturnAmount)
	}
	if !money.Equal(sum, in.TotalReturnAmount) {
		return nil, domain.InvalidOperation(fmt.Sprintf(
			"Total return amount must equal the sum of item amounts (expected %s)", sum.StringFixed(2)))
	}
	return items, nil
}

// execute inserta la devolución, repone inventario y registra el reembolso contable y en el libro del cliente.
func (s *Service) execute(ctx context.Context, r repository.Repositories, t domain.Tenant, tg *target, in CreateInput, kind string, items []entity.ReturnItem) (*entity.Return, error) {
	now := s.now()
	ret := &entity.Return{
		ID:           uuid.New().String(),
		CompanyID:    tg.order.CompanyID,
		BranchID:     tg.order.BranchID,
		CustomerID:   tg.invoice.CustomerID,
		InvoiceID:    tg.invoice.ID,
		OrderID:      tg.order.ID,
		Type:         kind,
		Status:       entity.ReturnPending,
		Reason:       in.Reason,
		RefundMethod: in.RefundMethod,
		CreatedBy:    t.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].ReturnID = ret.ID
		ret.TotalReturnAmount = ret.TotalReturnAmount.Add(items[i].ReturnAmount)
	}
	if kind == entity.ReturnWhole {
		ret.TotalReturnAmount = tg.invoice.TotalAmount
	}
	ret.Items = items
	if err := r.Returns.Create(ctx, ret); err != nil {
		return nil, fmt.Errorf("insertar devolución: %w", err)
	}

	ref := inventory.Reference{TransactionID: ret.ID, UserID: t.UserID}
	for _, it := range items {
		_, ok, err := s.inventory.RestoreInTx(ctx, r, it.ProductID, it.ReturnQuantity, ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Warn().Str("return_id", ret.ID).Str("product_id", it.ProductID).Msg("producto no encontrado al reponer inventario")
		}
	}

	if kind == entity.ReturnWhole {
		if _, err := s.accounting.ReturnRefundInTx(ctx, r, ret, "", ret.TotalReturnAmount, t.UserID); err != nil {
			return nil, err
		}
	} else {
		for _, it := range items {
			if _, err := s.accounting.ReturnRefundInTx(ctx, r, ret, it.ProductID, it.ReturnAmount, t.UserID); err != nil {
				return nil, err
			}
		}
	}

	if ret.CustomerID != "" && ret.TotalReturnAmount.IsPositive() {
		if _, err := s.ledger.RefundEntryInTx(ctx, r, ret, t.UserID); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// issueCreditNote emite la nota crédito en su propia transacción. Una falla se registra y no se propaga.
func (s *Service) issueCreditNote(ctx context.Context, ret *entity.Return, actor string) {
	var cn *entity.Invoice
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		cn, err = s.invoices.CreateCreditNoteInvoiceInTx(ctx, r, ret.ID, actor)
		return err
	})
	if err != nil {
		s.metrics.SideEffectFailed("credit_note")
		s.log.Error().Err(err).Str("return_id", ret.ID).Str("invoice_id", ret.InvoiceID).Msg("no se pudo emitir la nota crédito")
		return
	}
	ret.CreditNoteInvoiceID = cn.ID
}

// UpdateReturnStatus cambia el estado de la devolución. Al pasar a Completed emite la nota crédito si aún no existe;
// si eso falla el cambio de estado se mantiene.
func (s *Service) UpdateReturnStatus(ctx context.Context, t domain.Tenant, returnID, status string) (*entity.Return, error) {
	if !entity.ValidReturnStatus(status) {
		return nil, domain.Invalid(fmt.Sprintf("invalid return status %q", status))
	}
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	if _, err := s.GetReturn(ctx, t, returnID); err != nil {
		return nil, err
	}

	var ret *entity.Return
	var prev string
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		ret, err = r.Returns.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret == nil {
			return domain.NotFound("Return not found")
		}
		prev = ret.Status
		now := s.now()
		if err := r.Returns.UpdateStatus(ctx, ret.ID, status, now); err != nil {
			return fmt.Errorf("actualizar estado de devolución: %w", err)
		}
		ret.Status, ret.UpdatedAt = status, now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status == entity.ReturnCompleted && prev != entity.ReturnCompleted && ret.CreditNoteInvoiceID == "" {
		s.issueCreditNote(ctx, ret, t.UserID)
	}
	return ret, nil
}

// GetReturn obtiene una devolución con sus ítems.
func (s *Service) GetReturn(ctx context.Context, t domain.Tenant, id string) (*entity.Return, error) {
	ret, err := s.repos.Returns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil || !t.Owns(ret.CompanyID, ret.BranchID) {
		return nil, domain.NotFound("Return not found")
	}
	return ret, nil
}

// ListReturns lista devoluciones de la sucursal. Sin sucursal devuelve vacío.
func (s *Service) ListReturns(ctx context.Context, t domain.Tenant, limit, offset int) ([]*entity.Return, error) {
	if !t.HasBranch() {
		return []*entity.Return{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Returns.ListByBranch(ctx, t.CompanyID, t.BranchID, limit, offset)
}
