package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, seq, company_id, branch_id, customer_id, transaction_date, transaction_type,
	debit_amount, credit_amount, balance, description, reference, invoice_id, order_id, return_id, created_by, created_at`

// LedgerRepo implementación de LedgerRepository (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

func scanLedgerEntry(row pgx.Row) (*entity.CustomerLedgerEntry, error) {
	var e entity.CustomerLedgerEntry
	err := row.Scan(&e.ID, &e.Seq, &e.CompanyID, &e.BranchID, &e.CustomerID, &e.TransactionDate, &e.TransactionType,
		&e.DebitAmount, &e.CreditAmount, &e.Balance, &e.Description, &e.Reference,
		&e.InvoiceID, &e.OrderID, &e.ReturnID, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// LockCustomer toma un advisory lock transaccional por cliente; se libera en commit o rollback.
func (r *LedgerRepo) LockCustomer(ctx context.Context, customerID string) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('ledger:' || $1::text, 0))`, customerID); err != nil {
		return fmt.Errorf("lock customer ledger: %w", err)
	}
	return nil
}

func (r *LedgerRepo) one(ctx context.Context, query string, args ...any) (*entity.CustomerLedgerEntry, error) {
	e, err := scanLedgerEntry(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// Last devuelve el último movimiento del cliente.
func (r *LedgerRepo) Last(ctx context.Context, customerID string) (*entity.CustomerLedgerEntry, error) {
	if !validID(customerID) {
		return nil, nil
	}
	return r.one(ctx, `
		SELECT `+ledgerColumns+` FROM customer_ledger
		WHERE customer_id = $1
		ORDER BY transaction_date DESC, seq DESC LIMIT 1`, customerID)
}

// LastBefore devuelve el último movimiento con fecha anterior a t.
func (r *LedgerRepo) LastBefore(ctx context.Context, customerID string, t time.Time) (*entity.CustomerLedgerEntry, error) {
	if !validID(customerID) {
		return nil, nil
	}
	return r.one(ctx, `
		SELECT `+ledgerColumns+` FROM customer_ledger
		WHERE customer_id = $1 AND transaction_date < $2
		ORDER BY transaction_date DESC, seq DESC LIMIT 1`, customerID, t)
}

// Insert persiste el movimiento y asigna Seq.
func (r *LedgerRepo) Insert(ctx context.Context, e *entity.CustomerLedgerEntry) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO customer_ledger (id, company_id, branch_id, customer_id, transaction_date, transaction_type,
			debit_amount, credit_amount, balance, description, reference, invoice_id, order_id, return_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING seq`,
		e.ID, e.CompanyID, e.BranchID, e.CustomerID, e.TransactionDate, e.TransactionType,
		e.DebitAmount, e.CreditAmount, e.Balance, e.Description, e.Reference,
		e.InvoiceID, e.OrderID, e.ReturnID, e.CreatedBy, e.CreatedAt).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("ledger exists: %w", err)
	}
	return ok, nil
}

// ExistsForOrderInvoice indica si ya hay una venta registrada para el par pedido/factura.
func (r *LedgerRepo) ExistsForOrderInvoice(ctx context.Context, orderID, invoiceID string) (bool, error) {
	return r.exists(ctx, `
		SELECT EXISTS (SELECT 1 FROM customer_ledger
		WHERE transaction_type = 'Sale' AND order_id = $1 AND invoice_id = $2)`, orderID, invoiceID)
}

// ExistsForReturn indica si la devolución ya tiene su reembolso en el libro.
func (r *LedgerRepo) ExistsForReturn(ctx context.Context, returnID string) (bool, error) {
	return r.exists(ctx, `
		SELECT EXISTS (SELECT 1 FROM customer_ledger
		WHERE transaction_type = 'Refund' AND return_id = $1)`, returnID)
}

// ListByCustomer lista en orden (fecha, seq). from inclusivo, to exclusivo; nil sin límite.
func (r *LedgerRepo) ListByCustomer(ctx context.Context, customerID string, from, to *time.Time) ([]*entity.CustomerLedgerEntry, error) {
	if !validID(customerID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+ledgerColumns+` FROM customer_ledger
		WHERE customer_id = $1
		  AND ($2::timestamptz IS NULL OR transaction_date >= $2)
		  AND ($3::timestamptz IS NULL OR transaction_date < $3)
		ORDER BY transaction_date, seq`, customerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.CustomerLedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// ListCustomers devuelve los clientes con movimientos; companyID vacío abarca todas las empresas.
func (r *LedgerRepo) ListCustomers(ctx context.Context, companyID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT customer_id::text FROM customer_ledger
		WHERE $1::text = '' OR company_id = $1
		ORDER BY 1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list ledger customers: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ledger customer: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
