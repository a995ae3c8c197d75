package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.AccountingRepository = (*AccountingRepo)(nil)

// AccountingRepo implementación de AccountingRepository (usable con pool o tx).
type AccountingRepo struct {
	q Querier
}

// NewAccountingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccountingRepository(q Querier) *AccountingRepo {
	return &AccountingRepo{q: q}
}

// Create inserta un asiento.
func (r *AccountingRepo) Create(ctx context.Context, e *entity.AccountingEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO accounting_entries (id, company_id, branch_id, entry_type, amount, description,
			payment_method, category, entry_date, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.CompanyID, e.BranchID, e.EntryType, e.Amount, e.Description,
		e.PaymentMethod, e.Category, e.EntryDate, e.CreatedBy, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert accounting entry: %w", err)
	}
	return nil
}

// ExistsByToken busca el token como subcadena literal de la descripción (strpos no interpreta comodines).
func (r *AccountingRepo) ExistsByToken(ctx context.Context, branchID, entryType, token string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounting_entries
		WHERE branch_id = $1 AND entry_type = $2 AND strpos(description, $3) > 0)`,
		branchID, entryType, token).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("accounting exists: %w", err)
	}
	return ok, nil
}

// ListByBranch lista asientos de la sucursal en [from, to) en orden cronológico.
func (r *AccountingRepo) ListByBranch(ctx context.Context, companyID, branchID string, from, to time.Time) ([]*entity.AccountingEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, branch_id, entry_type, amount, description, payment_method, category,
			entry_date, created_by, created_at
		FROM accounting_entries
		WHERE company_id = $1 AND branch_id = $2 AND entry_date >= $3 AND entry_date < $4
		ORDER BY entry_date`, companyID, branchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list accounting entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.AccountingEntry
	for rows.Next() {
		var e entity.AccountingEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.BranchID, &e.EntryType, &e.Amount, &e.Description,
			&e.PaymentMethod, &e.Category, &e.EntryDate, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan accounting entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
