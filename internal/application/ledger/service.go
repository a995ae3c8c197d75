package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// Service libro de saldos por cliente.
type Service struct {
	tx       repository.TxRunner
	repos    repository.Repositories
	locker   ports.CustomerLocker
	exporter StatementExporter
	log      zerolog.Logger
	now      func() time.Time
}

// NewService construye el servicio. locker y exporter pueden ser nil.
func NewService(tx repository.TxRunner, repos repository.Repositories, locker ports.CustomerLocker, exporter StatementExporter, log zerolog.Logger) *Service {
	if locker == nil {
		locker = ports.NopLocker{}
	}
	return &Service{tx: tx, repos: repos, locker: locker, exporter: exporter, log: log, now: time.Now}
}

// EntryInput datos de un movimiento a registrar. TransactionDate vacío usa la hora actual.
type EntryInput struct {
	CompanyID       string
	BranchID        string
	CustomerID      string
	TransactionType string
	TransactionDate time.Time
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	Description     string
	Reference       string
	InvoiceID       string
	OrderID         string
	ReturnID        string
}

func (in EntryInput) validate() error {
	if in.CustomerID == "" {
		return domain.Invalid("customer is required")
	}
	if !entity.ValidLedgerType(in.TransactionType) {
		return domain.Invalid(fmt.Sprintf("invalid transaction type %q", in.TransactionType))
	}
	if in.Debit.IsNegative() || in.Credit.IsNegative() {
		return domain.Invalid("debit and credit amounts cannot be negative")
	}
	if in.Debit.IsZero() == in.Credit.IsZero() {
		return domain.Invalid("exactly one of debit or credit must be non-zero")
	}
	if in.BranchID == "" {
		return domain.ErrNoBranchContext
	}
	return nil
}

// WithCustomerLock ejecuta fn con el lock distribuido del cliente si se obtiene.
// Si no se obtiene se continúa: la transacción toma su propio lock en la base de datos.
func (s *Service) WithCustomerLock(ctx context.Context, customerID string, fn func() error) error {
	release, err := s.locker.Acquire(ctx, customerID)
	if err != nil {
		s.log.Warn().Err(err).Str("customer_id", customerID).Msg("lock distribuido no obtenido; se continúa con el lock de la transacción")
	} else {
		defer release()
	}
	return fn()
}

// PostInTx registra el movimiento calculando el saldo acumulado a partir del último movimiento del cliente.
// Bloquea al cliente hasta el fin de la transacción para que dos escrituras no lean el mismo saldo.
func (s *Service) PostInTx(ctx context.Context, r repository.Repositories, in EntryInput, createdBy string) (*entity.CustomerLedgerEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := r.Ledger.LockCustomer(ctx, in.CustomerID); err != nil {
		return nil, fmt.Errorf("bloquear libro del cliente: %w", err)
	}
	last, err := r.Ledger.Last(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	date := in.TransactionDate
	if date.IsZero() {
		date = now
		if last != nil && date.Before(last.TransactionDate) {
			date = last.TransactionDate
		}
	} else if last != nil && date.Before(last.TransactionDate) {
		return nil, domain.InvalidOperation("Ledger entries cannot be dated before the customer's last entry")
	}
	prev := decimal.Zero
	if last != nil {
		prev = last.Balance
	}
	e := &entity.CustomerLedgerEntry{
		ID:              uuid.New().String(),
		CompanyID:       in.CompanyID,
		BranchID:        in.BranchID,
		CustomerID:      in.CustomerID,
		TransactionDate: date,
		TransactionType: in.TransactionType,
		DebitAmount:     in.Debit,
		CreditAmount:    in.Credit,
		Balance:         prev.Add(in.Debit).Sub(in.Credit),
		Description:     in.Description,
		Reference:       in.Reference,
		InvoiceID:       in.InvoiceID,
		OrderID:         in.OrderID,
		ReturnID:        in.ReturnID,
		CreatedBy:       createdBy,
		CreatedAt:       now,
	}
	if err := r.Ledger.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("insertar movimiento: %w", err)
	}
	return e, nil
}

// CreateLedgerEntry registra un movimiento manual en la sucursal del tenant.
func (s *Service) CreateLedgerEntry(ctx context.Context, t domain.Tenant, in EntryInput, createdBy string) (*entity.CustomerLedgerEntry, error) {
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	if _, err := s.customer(ctx, t, in.CustomerID); err != nil {
		return nil, err
	}
	in.CompanyID, in.BranchID = t.CompanyID, t.BranchID
	var out *entity.CustomerLedgerEntry
	err := s.WithCustomerLock(ctx, in.CustomerID, func() error {
		return s.tx.Run(ctx, func(r repository.Repositories) error {
			var err error
			out, err = s.PostInTx(ctx, r, in, createdBy)
			return err
		})
	})
	return out, err
}

// SaleEntryInTx carga al cliente el total del pedido. Idempotente por (pedido, factura): devuelve nil si ya existe.
func (s *Service) SaleEntryInTx(ctx context.Context, r repository.Repositories, o *entity.Order, inv *entity.Invoice, createdBy string) (*entity.CustomerLedgerEntry, error) {
	if err := r.Ledger.LockCustomer(ctx, o.CustomerID); err != nil {
		return nil, fmt.Errorf("bloquear libro del cliente: %w", err)
	}
	exists, err := r.Ledger.ExistsForOrderInvoice(ctx, o.ID, inv.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	return s.PostInTx(ctx, r, EntryInput{
		CompanyID:       o.CompanyID,
		BranchID:        o.BranchID,
		CustomerID:      o.CustomerID,
		TransactionType: entity.LedgerSale,
		Debit:           o.TotalAmount,
		Description:     fmt.Sprintf("Sale - Order #%s / %s", o.ID, inv.InvoiceNumber),
		Reference:       inv.InvoiceNumber,
		InvoiceID:       inv.ID,
		OrderID:         o.ID,
	}, createdBy)
}

// CreateSaleLedgerEntry registra la venta del pedido contra su factura.
func (s *Service) CreateSaleLedgerEntry(ctx context.Context, t domain.Tenant, orderID, invoiceID, createdBy string) (*entity.CustomerLedgerEntry, error) {
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
	inv, err := s.repos.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.NotFound("Invoice not found")
	}
	if inv.OrderID != o.ID {
		return nil, domain.InvalidOperation("Invoice does not belong to the order")
	}
	var out *entity.CustomerLedgerEntry
	err = s.WithCustomerLock(ctx, o.CustomerID, func() error {
		return s.tx.Run(ctx, func(r repository.Repositories) error {
			var err error
			out, err = s.SaleEntryInTx(ctx, r, o, inv, createdBy)
			return err
		})
	})
	return out, err
}

// PaymentPosting datos de un abono del cliente.
type PaymentPosting struct {
	CompanyID  string
	BranchID   string
	CustomerID string
	Amount     decimal.Decimal
	Method     string
	Reference  string
	InvoiceID  string
}

// PaymentEntryInTx abona al cliente el monto del pago. No verifica duplicados.
func (s *Service) PaymentEntryInTx(ctx context.Context, r repository.Repositories, p PaymentPosting, createdBy string) (*entity.CustomerLedgerEntry, error) {
	if !p.Amount.IsPositive() {
		return nil, domain.InvalidOperation("Payment amount must be greater than zero")
	}
	desc := "Payment (" + p.Method + ")"
	if p.Reference != "" {
		desc += " ref " + p.Reference
	}
	return s.PostInTx(ctx, r, EntryInput{
		CompanyID:       p.CompanyID,
		BranchID:        p.BranchID,
		CustomerID:      p.CustomerID,
		TransactionType: entity.LedgerPayment,
		Credit:          p.Amount,
		Description:     desc,
		Reference:       p.Reference,
		InvoiceID:       p.InvoiceID,
	}, createdBy)
}

// CreatePaymentLedgerEntry registra un abono en la sucursal del tenant.
func (s *Service) CreatePaymentLedgerEntry(ctx context.Context, t domain.Tenant, p PaymentPosting, createdBy string) (*entity.CustomerLedgerEntry, error) {
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	if _, err := s.customer(ctx, t, p.CustomerID); err != nil {
		return nil, err
	}
	p.CompanyID, p.BranchID = t.CompanyID, t.BranchID
	var out *entity.CustomerLedgerEntry
	err := s.WithCustomerLock(ctx, p.CustomerID, func() error {
		return s.tx.Run(ctx, func(r repository.Repositories) error {
			var err error
			out, err = s.PaymentEntryInTx(ctx, r, p, createdBy)
			return err
		})
	})
	return out, err
}

// RefundEntryInTx abona al cliente el total de la devolución. Idempotente por devolución.
func (s *Service) RefundEntryInTx(ctx context.Context, r repository.Repositories, ret *entity.Return, createdBy string) (*entity.CustomerLedgerEntry, error) {
	if err := r.Ledger.LockCustomer(ctx, ret.CustomerID); err != nil {
		return nil, fmt.Errorf("bloquear libro del cliente: %w", err)
	}
	exists, err := r.Ledger.ExistsForReturn(ctx, ret.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	return s.PostInTx(ctx, r, EntryInput{
		CompanyID:       ret.CompanyID,
		BranchID:        ret.BranchID,
		CustomerID:      ret.CustomerID,
		TransactionType: entity.LedgerRefund,
		Credit:          ret.TotalReturnAmount,
		Description:     fmt.Sprintf("Refund - Return #%s (%s)", ret.ID, ret.RefundMethod),
		InvoiceID:       ret.InvoiceID,
		OrderID:         ret.OrderID,
		ReturnID:        ret.ID,
	}, createdBy)
}

// CreateRefundLedgerEntry registra el abono de una devolución existente.
func (s *Service) CreateRefundLedgerEntry(ctx context.Context, t domain.Tenant, returnID, createdBy string) (*entity.CustomerLedgerEntry, error) {
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	ret, err := s.repos.Returns.GetByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret == nil || !t.Owns(ret.CompanyID, ret.BranchID) {
		return nil, domain.NotFound("Return not found")
	}
	var out *entity.CustomerLedgerEntry
	err = s.WithCustomerLock(ctx, ret.CustomerID, func() error {
		return s.tx.Run(ctx, func(r repository.Repositories) error {
			var err error
			out, err = s.RefundEntryInTx(ctx, r, ret, createdBy)
			return err
		})
	})
	return out, err
}

// GetCustomerBalance devuelve el saldo del último movimiento del cliente, o cero.
func (s *Service) GetCustomerBalance(ctx context.Context, t domain.Tenant, customerID string) (decimal.Decimal, error) {
	if _, err := s.customer(ctx, t, customerID); err != nil {
		return decimal.Zero, err
	}
	last, err := s.repos.Ledger.Last(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	if last == nil {
		return decimal.Zero, nil
	}
	return last.Balance, nil
}

func (s *Service) customer(ctx context.Context, t domain.Tenant, customerID string) (*entity.Customer, error) {
	if customerID == "" {
		return nil, domain.Invalid("customer is required")
	}
	c, err := s.repos.Customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil || (t.CompanyID != "" && c.CompanyID != t.CompanyID) {
		return nil, domain.NotFound("Customer not found")
	}
	return c, nil
}
