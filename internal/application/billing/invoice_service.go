package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// Prefijos de numeración. El número completo es PREFIJO-YYYYMM-NNNN.
const (
	InvoicePrefix    = "INV"
	CreditNotePrefix = "CN"

	numberAttempts = 5
)

// InvoiceService gestiona facturas, pagos y notas crédito.
type InvoiceService struct {
	tx         repository.TxRunner
	repos      repository.Repositories
	ledger     *ledger.Service
	accounting *accounting.Service
	renderer   InvoiceRenderer
	metrics    ports.Metrics
	dueDays    int
	log        zerolog.Logger
	now        func() time.Time
}

// NewInvoiceService construye el servicio. dueDays define el vencimiento por defecto.
func NewInvoiceService(
	tx repository.TxRunner,
	repos repository.Repositories,
	ledgerSvc *ledger.Service,
	accountingSvc *accounting.Service,
	renderer InvoiceRenderer,
	metrics ports.Metrics,
	dueDays int,
	log zerolog.Logger,
) *InvoiceService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &InvoiceService{
		tx:         tx,
		repos:      repos,
		ledger:     ledgerSvc,
		accounting: accountingSvc,
		renderer:   renderer,
		metrics:    metrics,
		dueDays:    dueDays,
		log:        log,
		now:        time.Now,
	}
}

// numberPrefix devuelve "INV-202610-" para el mes de t.
func numberPrefix(kind string, t time.Time) string {
	return kind + "-" + t.Format("200601") + "-"
}

// nextNumber busca el mayor número con el prefijo y suma uno.
func nextNumber(ctx context.Context, r repository.Repositories, companyID, prefix string) (string, error) {
	max, err := r.Invoices.MaxNumber(ctx, companyID, prefix)
	if err != nil {
		return "", err
	}
	seq := 0
	if max != "" {
		seq, err = strconv.Atoi(strings.TrimPrefix(max, prefix))
		if err != nil {
			return "", fmt.Errorf("número de factura inválido %q: %w", max, err)
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

// insertNumbered asigna el siguiente número y crea la factura, reintentando si otro lo tomó primero.
// retry se consulta después de cada conflicto; si devuelve una factura, se usa esa.
func insertNumbered(ctx context.Context, r repository.Repositories, inv *entity.Invoice, kind string, retry func() (*entity.Invoice, error)) (*entity.Invoice, error) {
	prefix := numberPrefix(kind, inv.InvoiceDate)
	for attempt := 0; attempt < numberAttempts; attempt++ {
		number, err := nextNumber(ctx, r, inv.CompanyID, prefix)
		if err != nil {
			return nil, err
		}
		inv.InvoiceNumber = number
		err = r.Invoices.Create(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("crear factura: %w", err)
		}
		if retry != nil {
			existing, err := retry()
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return existing, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no se pudo asignar número de factura con prefijo %s", domain.ErrConflict, prefix)
}

// CreateInvoiceInTx devuelve la factura del pedido, creándola si no existe. Bloquea el pedido
// para que dos llamadas concurrentes no creen dos facturas. created indica si se insertó.
func (s *InvoiceService) CreateInvoiceInTx(ctx context.Context, r repository.Repositories, orderID string, dueDate *time.Time, createdBy string) (inv *entity.Invoice, created bool, err error) {
	o, err := r.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if o == nil {
		return nil, false, domain.NotFound("Order not found")
	}
	existing, err := r.Invoices.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := s.now()
	due := now.AddDate(0, 0, s.dueDays)
	if dueDate != nil && !dueDate.IsZero() {
		due = *dueDate
	}
	inv = &entity.Invoice{
		ID:          uuid.New().String(),
		CompanyID:   o.CompanyID,
		BranchID:    o.BranchID,
		CustomerID:  o.CustomerID,
		OrderID:     o.ID,
		Type:        entity.InvoiceTypeInvoice,
		InvoiceDate: now,
		DueDate:     due,
		TotalAmount: o.TotalAmount,
		AmountPaid:  decimal.Zero,
		Balance:     o.TotalAmount,
		Status:      entity.InvoicePending,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	out, err := insertNumbered(ctx, r, inv, InvoicePrefix, func() (*entity.Invoice, error) {
		return r.Invoices.GetByOrderID(ctx, orderID)
	})
	if err != nil {
		return nil, false, err
	}
	return out, out == inv, nil
}

// CreateInvoice crea (o devuelve) la factura de un pedido de la sucursal del tenant.
func (s *InvoiceService) CreateInvoice(ctx context.Context, t domain.Tenant, orderID string, dueDate *time.Time) (*entity.Invoice, error) {
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
	var inv *entity.Invoice
	err = s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		inv, _, err = s.CreateInvoiceInTx(ctx, r, orderID, dueDate, t.UserID)
		return err
	})
	return inv, err
}

// PaymentInput datos de un pago a una factura.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
}

// AddPayment aplica un pago a la factura. En la misma transacción guarda el pago, recalcula el saldo,
// abona al cliente en su libro y registra el ingreso contable, de modo que los tres no diverjan.
func (s *InvoiceService) AddPayment(ctx context.Context, t domain.Tenant, invoiceID string, in PaymentInput) (*entity.Invoice, *entity.InvoicePayment, error) {
	if err := t.RequireBranch(); err != nil {
		return nil, nil, err
	}
	current, err := s.repos.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if current == nil || !t.Owns(current.CompanyID, current.BranchID) {
		return nil, nil, domain.NotFound("Invoice not found")
	}
	if !in.Amount.IsPositive() {
		return nil, nil, domain.InvalidOperation("Payment amount must be greater than zero")
	}
	if strings.TrimSpace(in.Method) == "" {
		return nil, nil, domain.Invalid("payment method is required")
	}

	var inv *entity.Invoice
	var payment *entity.InvoicePayment
	err = s.ledger.WithCustomerLock(ctx, current.CustomerID, func() error {
		return s.tx.Run(ctx, func(r repository.Repositories) error {
			var err error
			inv, err = r.Invoices.GetForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			if inv == nil {
				return domain.NotFound("Invoice not found")
			}
			switch {
			case inv.IsCreditNote():
				return domain.InvalidOperation("Payments cannot be applied to a credit note")
			case inv.Status == entity.InvoiceCancelled:
				return domain.InvalidOperation("Payments cannot be applied to a cancelled invoice")
			case in.Amount.GreaterThan(inv.Balance):
				return domain.InvalidOperation(fmt.Sprintf("Payment amount %s exceeds invoice balance %s",
					in.Amount.StringFixed(2), inv.Balance.StringFixed(2)))
			}

			now := s.now()
			payment = &entity.InvoicePayment{
				ID:         uuid.New().String(),
				InvoiceID:  inv.ID,
				Amount:     in.Amount,
				Method:     in.Method,
				Reference:  in.Reference,
				ReceivedBy: t.UserID,
				PaidAt:     now,
			}
			if err := r.Invoices.AddPayment(ctx, payment); err != nil {
				return fmt.Errorf("registrar pago: %w", err)
			}
			inv.ApplyPayment(in.Amount, now)
			if err := r.Invoices.UpdateBalance(ctx, inv); err != nil {
				return fmt.Errorf("actualizar saldo: %w", err)
			}
			if inv.CustomerID != "" {
				if _, err := s.ledger.PaymentEntryInTx(ctx, r, ledger.PaymentPosting{
					CompanyID:  inv.CompanyID,
					BranchID:   inv.BranchID,
					CustomerID: inv.CustomerID,
					Amount:     in.Amount,
					Method:     in.Method,
					Reference:  in.Reference,
					InvoiceID:  inv.ID,
				}, t.UserID); err != nil {
					return err
				}
			}
			_, err = s.accounting.PaymentIncomeInTx(ctx, r, inv, payment)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}
	s.metrics.PaymentRecorded()
	return inv, payment, nil
}

// CreateCreditNoteInvoiceInTx emite la nota crédito de una devolución: total negativo,
// ligada a la factura original y a la devolución.
func (s *InvoiceService) CreateCreditNoteInvoiceInTx(ctx context.Context, r repository.Repositories, returnID, createdBy string) (*entity.Invoice, error) {
	ret, err := r.Returns.GetForUpdate(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.NotFound("Return not found")
	}
	if ret.CreditNoteInvoiceID != "" {
		return nil, domain.InvalidOperation("A credit note already exists for this return")
	}
	orig, err := r.Invoices.GetByID(ctx, ret.InvoiceID)
	if err != nil {
		return nil, err
	}
	if orig == nil {
		return nil, domain.NotFound("Original invoice not found")
	}

	now := s.now()
	total := ret.TotalReturnAmount.Neg()
	cn := &entity.Invoice{
		ID:                uuid.New().String(),
		CompanyID:         orig.CompanyID,
		BranchID:          orig.BranchID,
		CustomerID:        orig.CustomerID,
		OrderID:           ret.OrderID,
		Type:              entity.InvoiceTypeCreditNote,
		InvoiceDate:       now,
		DueDate:           now,
		TotalAmount:       total,
		AmountPaid:        decimal.Zero,
		Balance:           total,
		Status:            entity.InvoicePending,
		OriginalInvoiceID: orig.ID,
		ReturnID:          ret.ID,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := insertNumbered(ctx, r, cn, CreditNotePrefix, nil); err != nil {
		return nil, err
	}
	if err := r.Returns.SetCreditNote(ctx, ret.ID, cn.ID, now); err != nil {
		return nil, fmt.Errorf("ligar nota crédito: %w", err)
	}
	return cn, nil
}

// CreateCreditNoteInvoice emite la nota crédito de una devolución de la sucursal del tenant.
func (s *InvoiceService) CreateCreditNoteInvoice(ctx context.Context, t domain.Tenant, returnID string) (*entity.Invoice, error) {
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
	var cn *entity.Invoice
	err = s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		cn, err = s.CreateCreditNoteInvoiceInTx(ctx, r, returnID, t.UserID)
		return err
	})
	return cn, err
}

// UpdateInvoiceStatusByOrderIDInTx cambia el estado de la factura del pedido; si no hay factura no hace nada.
func (s *InvoiceService) UpdateInvoiceStatusByOrderIDInTx(ctx context.Context, r repository.Repositories, orderID, status string) (bool, error) {
	inv, err := r.Invoices.GetByOrderID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if inv == nil || inv.Status == status {
		return false, nil
	}
	if err := r.Invoices.UpdateStatus(ctx, inv.ID, status, s.now()); err != nil {
		return false, fmt.Errorf("actualizar estado de factura: %w", err)
	}
	return true, nil
}

// UpdateInvoiceStatusByOrderID versión independiente de UpdateInvoiceStatusByOrderIDInTx.
func (s *InvoiceService) UpdateInvoiceStatusByOrderID(ctx context.Context, orderID, status string) error {
	return s.tx.Run(ctx, func(r repository.Repositories) error {
		_, err := s.UpdateInvoiceStatusByOrderIDInTx(ctx, r, orderID, status)
		return err
	})
}

// GetInvoice obtiene una factura de la empresa/sucursal del tenant.
func (s *InvoiceService) GetInvoice(ctx context.Context, t domain.Tenant, id string) (*entity.Invoice, error) {
	inv, err := s.repos.Invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil || !t.Owns(inv.CompanyID, inv.BranchID) {
		return nil, domain.NotFound("Invoice not found")
	}
	return inv, nil
}

// ListInvoices lista facturas de la sucursal. Sin sucursal devuelve vacío.
func (s *InvoiceService) ListInvoices(ctx context.Context, t domain.Tenant, limit, offset int) ([]*entity.Invoice, error) {
	if !t.HasBranch() {
		return []*entity.Invoice{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Invoices.ListByBranch(ctx, t.CompanyID, t.BranchID, limit, offset)
}

// ListPayments pagos de una factura en orden de registro.
func (s *InvoiceService) ListPayments(ctx context.Context, t domain.Tenant, invoiceID string) ([]*entity.InvoicePayment, error) {
	if _, err := s.GetInvoice(ctx, t, invoiceID); err != nil {
		return nil, err
	}
	return s.repos.Invoices.ListPayments(ctx, invoiceID)
}

// RenderInvoicePDF genera el PDF de la factura o nota crédito.
func (s *InvoiceService) RenderInvoicePDF(ctx context.Context, t domain.Tenant, invoiceID string) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", fmt.Errorf("renderizador de facturas no configurado")
	}
	inv, err := s.GetInvoice(ctx, t, invoiceID)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.document(ctx, inv)
	if err != nil {
		return nil, "", err
	}
	data, err := s.renderer.RenderInvoice(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return data, inv.InvoiceNumber + ".pdf", nil
}

// document reúne cliente y líneas: de la orden para facturas, de la devolución para notas crédito.
func (s *InvoiceService) document(ctx context.Context, inv *entity.Invoice) (*InvoiceDocument, error) {
	doc := &InvoiceDocument{Invoice: inv}
	if inv.CustomerID != "" {
		c, err := s.repos.Customers.GetByID(ctx, inv.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("pdf: obtener cliente: %w", err)
		}
		doc.Customer = c
	}

	if inv.IsCreditNote() {
		if inv.OriginalInvoiceID != "" {
			orig, err := s.repos.Invoices.GetByID(ctx, inv.OriginalInvoiceID)
			if err != nil {
				return nil, fmt.Errorf("pdf: obtener factura original: %w", err)
			}
			doc.Original = orig
		}
		ret, err := s.repos.Returns.GetByID(ctx, inv.ReturnID)
		if err != nil {
			return nil, fmt.Errorf("pdf: obtener devolución: %w", err)
		}
		if ret != nil {
			for _, it := range ret.Items {
				doc.Lines = append(doc.Lines, DocumentLine{
					ProductID:   it.ProductID,
					ProductName: s.productName(ctx, it.ProductID),
					Quantity:    it.ReturnQuantity,
					UnitPrice:   it.ReturnAmount.Div(decimal.NewFromInt(int64(it.ReturnQuantity))).Round(2),
					LineTotal:   it.ReturnAmount,
				})
			}
		}
		return doc, nil
	}

	if inv.OrderID == "" {
		return doc, nil
	}
	o, err := s.repos.Orders.GetByID(ctx, inv.OrderID)
	if err != nil {
		return nil, fmt.Errorf("pdf: obtener pedido: %w", err)
	}
	if o != nil {
		for _, l := range o.Lines {
			doc.Lines = append(doc.Lines, DocumentLine{
				ProductID:   l.ProductID,
				ProductName: s.productName(ctx, l.ProductID),
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				LineTotal:   l.LineTotal,
			})
		}
	}
	return doc, nil
}

func (s *InvoiceService) productName(ctx context.Context, productID string) string {
	if p, err := s.repos.Products.GetByID(ctx, productID); err == nil && p != nil {
		return p.Name
	}
	return "Producto " + productID
}
