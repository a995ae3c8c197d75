package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación de InventoryMovementRepository (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_movements (id, product_id, transaction_id, type, quantity, stock_after, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.ProductID, m.TransactionID, m.Type, m.Quantity, m.StockAfter, m.CreatedBy, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory movement: %w", err)
	}
	return nil
}

// ListByProduct lista movimientos del producto, el más reciente primero.
func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.InventoryMovement, error) {
	if !validID(productID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, transaction_id, type, quantity, stock_after, created_by, created_at
		FROM inventory_movements WHERE product_id = $1
		ORDER BY created_at DESC LIMIT NULLIF($2::int, 0)`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.TransactionID, &m.Type, &m.Quantity, &m.StockAfter, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
