package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, company_id, branch_id, customer_id, order_id, type, invoice_number, invoice_date, due_date,
	total_amount, amount_paid, balance, status, original_invoice_id, return_id, created_by, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var orderID, original, returnID *string
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.BranchID, &inv.CustomerID, &orderID, &inv.Type,
		&inv.InvoiceNumber, &inv.InvoiceDate, &inv.DueDate, &inv.TotalAmount, &inv.AmountPaid, &inv.Balance,
		&inv.Status, &original, &returnID, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.OrderID, inv.OriginalInvoiceID, inv.ReturnID = deref(orderID), deref(original), deref(returnID)
	return &inv, nil
}

func (r *InvoiceRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// Create inserta la factura. ON CONFLICT DO NOTHING evita abortar la transacción cuando el
// número o el pedido ya tienen factura; en ese caso devuelve domain.ErrDuplicate.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT DO NOTHING`,
		inv.ID, inv.CompanyID, inv.BranchID, inv.CustomerID, nullIfEmpty(inv.OrderID), inv.Type,
		inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate, inv.TotalAmount, inv.AmountPaid, inv.Balance,
		inv.Status, nullIfEmpty(inv.OriginalInvoiceID), nullIfEmpty(inv.ReturnID), inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicate
	}
	return nil
}

func (r *InvoiceRepo) one(ctx context.Context, query string, args ...any) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetByID obtiene una factura o nota crédito.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.one(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la factura (usar dentro de una tx).
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.one(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

// GetByOrderID devuelve la factura tipo Invoice del pedido.
func (r *InvoiceRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.Invoice, error) {
	if !validID(orderID) {
		return nil, nil
	}
	return r.one(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE order_id = $1 AND type = 'Invoice'`, orderID)
}

// MaxNumber devuelve el mayor número con el prefijo. Ordena por longitud para que 10000 supere a 9999.
func (r *InvoiceRepo) MaxNumber(ctx context.Context, companyID, prefix string) (string, error) {
	var n string
	err := r.q.QueryRow(ctx, `
		SELECT invoice_number FROM invoices
		WHERE company_id = $1 AND starts_with(invoice_number, $2)
		ORDER BY length(invoice_number) DESC, invoice_number DESC LIMIT 1`, companyID, prefix).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("max invoice number: %w", err)
	}
	return n, nil
}

// UpdateBalance persiste el pago acumulado, saldo y estado.
func (r *InvoiceRepo) UpdateBalance(ctx context.Context, inv *entity.Invoice) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices SET amount_paid = $2, balance = $3, status = $4, updated_at = $5 WHERE id = $1`,
		inv.ID, inv.AmountPaid, inv.Balance, inv.Status, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update invoice balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus cambia solo el estado.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = $3 WHERE id = $1`, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddPayment inserta un pago.
func (r *InvoiceRepo) AddPayment(ctx context.Context, p *entity.InvoicePayment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoice_payments (id, invoice_id, amount, method, reference, received_by, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.ReceivedBy, p.PaidAt)
	if err != nil {
		return fmt.Errorf("insert invoice payment: %w", err)
	}
	return nil
}

// ListPayments lista los pagos de la factura en orden cronológico.
func (r *InvoiceRepo) ListPayments(ctx context.Context, invoiceID string) ([]*entity.InvoicePayment, error) {
	if !validID(invoiceID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, amount, method, reference, received_by, paid_at
		FROM invoice_payments WHERE invoice_id = $1 ORDER BY paid_at`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoicePayment
	for rows.Next() {
		var p entity.InvoicePayment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.ReceivedBy, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan invoice payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// ListByBranch lista facturas y notas crédito de la sucursal, las más recientes primero.
func (r *InvoiceRepo) ListByBranch(ctx context.Context, companyID, branchID string, limit, offset int) ([]*entity.Invoice, error) {
	return r.list(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE company_id = $1 AND branch_id = $2
		ORDER BY invoice_date DESC LIMIT $3 OFFSET $4`, companyID, branchID, limit, offset)
}

// ListOutstanding facturas vencidas a asOf con saldo pendiente.
func (r *InvoiceRepo) ListOutstanding(ctx context.Context, companyID, branchID string, asOf time.Time) ([]*entity.Invoice, error) {
	return r.list(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE company_id = $1 AND branch_id = $2 AND type = 'Invoice'
		  AND status <> 'Cancelled' AND balance > 0 AND due_date <= $3
		ORDER BY due_date`, companyID, branchID, asOf)
}
