package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// Categorías usadas por la cadena de ventas.
const (
	CategorySales   = "Sales"
	CategoryReturns = "Returns"
	CategoryPayment = "Invoice Payment"
)

// OrderToken marca estable incluida en la descripción de los asientos de un pedido.
func OrderToken(orderID string) string { return "Order #" + orderID }

// ReturnToken marca estable de los asientos de una devolución.
func ReturnToken(returnID string) string { return "Return #" + returnID }

// PaymentToken marca estable del asiento de un pago de factura.
func PaymentToken(paymentID string) string { return "Payment #" + paymentID }

// Service diario contable por sucursal.
type Service struct {
	repos repository.Repositories
	log   zerolog.Logger
	now   func() time.Time
}

// NewService construye el servicio; repos se usa para las lecturas fuera de transacción.
func NewService(repos repository.Repositories, log zerolog.Logger) *Service {
	return &Service{repos: repos, log: log, now: time.Now}
}

// Posting datos de un asiento a registrar.
type Posting struct {
	CompanyID     string
	BranchID      string
	EntryType     string
	Amount        decimal.Decimal
	Description   string
	PaymentMethod string
	Category      string
	CreatedBy     string
}

// RecordInTx agrega un asiento. Si token no es vacío y la sucursal ya tiene un asiento del mismo tipo
// con ese token en la descripción, no hace nada y devuelve (nil, nil).
func (s *Service) RecordInTx(ctx context.Context, r repository.Repositories, p Posting, token string) (*entity.AccountingEntry, error) {
	if p.BranchID == "" {
		return nil, domain.ErrNoBranchContext
	}
	if token != "" {
		exists, err := r.Accounting.ExistsByToken(ctx, p.BranchID, p.EntryType, token)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, nil
		}
	}
	now := s.now()
	e := &entity.AccountingEntry{
		ID:            uuid.New().String(),
		CompanyID:     p.CompanyID,
		BranchID:      p.BranchID,
		EntryType:     p.EntryType,
		Amount:        p.Amount,
		Description:   p.Description,
		PaymentMethod: p.PaymentMethod,
		Category:      p.Category,
		EntryDate:     now,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     now,
	}
	if err := r.Accounting.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("registrar asiento: %w", err)
	}
	return e, nil
}

// SaleForOrderInTx registra la venta de un pedido pagado. Idempotente por pedido y sucursal.
func (s *Service) SaleForOrderInTx(ctx context.Context, r repository.Repositories, o *entity.Order, actor string) (*entity.AccountingEntry, error) {
	token := OrderToken(o.ID)
	return s.RecordInTx(ctx, r, Posting{
		CompanyID:     o.CompanyID,
		BranchID:      o.BranchID,
		EntryType:     entity.EntrySale,
		Amount:        o.TotalAmount,
		Description:   "Sale - " + token,
		PaymentMethod: o.PaymentMethod,
		Category:      CategorySales,
		CreatedBy:     actor,
	}, token)
}

// RefundForOrderInTx registra el reembolso de un pedido pagado que se cancela. Idempotente por pedido y sucursal.
func (s *Service) RefundForOrderInTx(ctx context.Context, r repository.Repositories, o *entity.Order, actor string) (*entity.AccountingEntry, error) {
	token := OrderToken(o.ID)
	return s.RecordInTx(ctx, r, Posting{
		CompanyID:     o.CompanyID,
		BranchID:      o.BranchID,
		EntryType:     entity.EntryRefund,
		Amount:        o.TotalAmount,
		Description:   "Refund for cancelled " + token,
		PaymentMethod: o.PaymentMethod,
		Category:      CategorySales,
		CreatedBy:     actor,
	}, token)
}

// ReturnRefundInTx registra el reembolso de una devolución. productID vacío indica devolución total;
// en las parciales se registra un asiento por producto.
func (s *Service) ReturnRefundInTx(ctx context.Context, r repository.Repositories, ret *entity.Return, productID string, amount decimal.Decimal, actor string) (*entity.AccountingEntry, error) {
	token := ReturnToken(ret.ID)
	// La descripción no incluye OrderToken: ese token marca el reembolso por cancelación del pedido.
	desc := fmt.Sprintf("Refund for %s (%s return, order %s)", token, ret.Type, ret.OrderID)
	if productID != "" {
		token += " Product #" + productID
		desc = fmt.Sprintf("Refund for %s (order %s)", token, ret.OrderID)
	}
	return s.RecordInTx(ctx, r, Posting{
		CompanyID:     ret.CompanyID,
		BranchID:      ret.BranchID,
		EntryType:     entity.EntryRefund,
		Amount:        amount,
		Description:   desc,
		PaymentMethod: ret.RefundMethod,
		Category:      CategoryReturns,
		CreatedBy:     actor,
	}, token)
}

// PaymentIncomeInTx registra como ingreso un pago aplicado a una factura.
func (s *Service) PaymentIncomeInTx(ctx context.Context, r repository.Repositories, inv *entity.Invoice, p *entity.InvoicePayment) (*entity.AccountingEntry, error) {
	token := PaymentToken(p.ID)
	return s.RecordInTx(ctx, r, Posting{
		CompanyID:     inv.CompanyID,
		BranchID:      inv.BranchID,
		EntryType:     entity.EntryIncome,
		Amount:        p.Amount,
		Description:   fmt.Sprintf("%s for invoice %s", token, inv.InvoiceNumber),
		PaymentMethod: p.Method,
		Category:      CategoryPayment,
		CreatedBy:     p.ReceivedBy,
	}, token)
}

// ListEntries lista los asientos de la sucursal del tenant en [from, to). Sin sucursal devuelve vacío.
func (s *Service) ListEntries(ctx context.Context, t domain.Tenant, from, to time.Time) ([]*entity.AccountingEntry, error) {
	if !t.HasBranch() {
		return []*entity.AccountingEntry{}, nil
	}
	if !to.After(from) {
		return nil, domain.Invalid("to must be after from")
	}
	return s.repos.Accounting.ListByBranch(ctx, t.CompanyID, t.BranchID, from, to)
}

// Summary totales por tipo de asiento.
type Summary struct {
	Totals map[string]decimal.Decimal
	Net    decimal.Decimal // ingresos y ventas menos reembolsos y gastos
}

// Summarize agrega los asientos de la sucursal en [from, to).
func (s *Service) Summarize(ctx context.Context, t domain.Tenant, from, to time.Time) (*Summary, error) {
	entries, err := s.ListEntries(ctx, t, from, to)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Totals: map[string]decimal.Decimal{}}
	for _, e := range entries {
		sum.Totals[e.EntryType] = sum.Totals[e.EntryType].Add(e.Amount)
		switch e.EntryType {
		case entity.EntryIncome, entity.EntrySale:
			sum.Net = sum.Net.Add(e.Amount)
		case entity.EntryRefund, entity.EntryExpense, entity.EntryPurchase:
			sum.Net = sum.Net.Sub(e.Amount)
		}
	}
	return sum, nil
}
