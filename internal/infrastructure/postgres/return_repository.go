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

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

const returnColumns = `id, company_id, branch_id, customer_id, invoice_id, order_id, type, status, reason,
	refund_method, total_return_amount, credit_note_invoice_id, created_by, created_at, updated_at`

// ReturnRepo implementación de ReturnRepository (usable con pool o tx).
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

func scanReturn(row pgx.Row) (*entity.Return, error) {
	var ret entity.Return
	var creditNote *string
	err := row.Scan(&ret.ID, &ret.CompanyID, &ret.BranchID, &ret.CustomerID, &ret.InvoiceID, &ret.OrderID,
		&ret.Type, &ret.Status, &ret.Reason, &ret.RefundMethod, &ret.TotalReturnAmount, &creditNote,
		&ret.CreatedBy, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ret.CreditNoteInvoiceID = deref(creditNote)
	return &ret, nil
}

// Create inserta la devolución y sus ítems.
func (r *ReturnRepo) Create(ctx context.Context, ret *entity.Return) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO returns (`+returnColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		ret.ID, ret.CompanyID, ret.BranchID, ret.CustomerID, ret.InvoiceID, ret.OrderID,
		ret.Type, ret.Status, ret.Reason, ret.RefundMethod, ret.TotalReturnAmount, nullIfEmpty(ret.CreditNoteInvoiceID),
		ret.CreatedBy, ret.CreatedAt, ret.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert return: %w", err)
	}
	for _, it := range ret.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO return_items (id, return_id, product_id, return_quantity, return_amount)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, ret.ID, it.ProductID, it.ReturnQuantity, it.ReturnAmount)
		if err != nil {
			return fmt.Errorf("insert return item: %w", err)
		}
	}
	return nil
}

func (r *ReturnRepo) items(ctx context.Context, returnID string) ([]entity.ReturnItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, return_id, product_id, return_quantity, return_amount
		FROM return_items WHERE return_id = $1 ORDER BY id`, returnID)
	if err != nil {
		return nil, fmt.Errorf("list return items: %w", err)
	}
	defer rows.Close()
	var out []entity.ReturnItem
	for rows.Next() {
		var it entity.ReturnItem
		if err := rows.Scan(&it.ID, &it.ReturnID, &it.ProductID, &it.ReturnQuantity, &it.ReturnAmount); err != nil {
			return nil, fmt.Errorf("scan return item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *ReturnRepo) get(ctx context.Context, id, suffix string) (*entity.Return, error) {
	if !validID(id) {
		return nil, nil
	}
	ret, err := scanReturn(r.q.QueryRow(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = $1`+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get return: %w", err)
	}
	if ret.Items, err = r.items(ctx, ret.ID); err != nil {
		return nil, err
	}
	return ret, nil
}

// GetByID devuelve la devolución con sus ítems.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.Return, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la devolución hasta el fin de la transacción.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

// CountByInvoice cuenta devoluciones del tipo contra la factura.
func (r *ReturnRepo) CountByInvoice(ctx context.Context, invoiceID, returnType string) (int, error) {
	if !validID(invoiceID) {
		return 0, nil
	}
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM returns WHERE invoice_id = $1 AND type = $2`, invoiceID, returnType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count returns: %w", err)
	}
	return n, nil
}

// ReturnedQuantities suma por producto lo ya devuelto contra la factura.
func (r *ReturnRepo) ReturnedQuantities(ctx context.Context, invoiceID string) (map[string]int, error) {
	out := map[string]int{}
	if !validID(invoiceID) {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT ri.product_id::text, COALESCE(SUM(ri.return_quantity), 0)
		FROM return_items ri JOIN returns rt ON rt.id = ri.return_id
		WHERE rt.invoice_id = $1
		GROUP BY ri.product_id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("returned quantities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID string
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("scan returned quantity: %w", err)
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

// UpdateStatus cambia el estado de la devolución.
func (r *ReturnRepo) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE returns SET status = $2, updated_at = $3 WHERE id = $1`, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update return status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetCreditNote enlaza la nota crédito emitida.
func (r *ReturnRepo) SetCreditNote(ctx context.Context, id, creditNoteInvoiceID string, updatedAt time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE returns SET credit_note_invoice_id = $2, updated_at = $3 WHERE id = $1`,
		id, creditNoteInvoiceID, updatedAt)
	if err != nil {
		return fmt.Errorf("link credit note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByBranch lista devoluciones de la sucursal, las más recientes primero.
func (r *ReturnRepo) ListByBranch(ctx context.Context, companyID, branchID string, limit, offset int) ([]*entity.Return, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+returnColumns+` FROM returns
		WHERE company_id = $1 AND branch_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, companyID, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	var list []*entity.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan return: %w", err)
		}
		list = append(list, ret)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, ret := range list {
		if ret.Items, err = r.items(ctx, ret.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}
