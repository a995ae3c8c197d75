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

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, company_id, branch_id, customer_id, date, total_amount, status, order_status, payment_method, created_by, created_at, updated_at`

// OrderRepo implementación de OrderRepository (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.CompanyID, &o.BranchID, &o.CustomerID, &o.Date, &o.TotalAmount,
		&o.Status, &o.OrderStatus, &o.PaymentMethod, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserta la cabecera del pedido.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `INSERT INTO orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.CompanyID, o.BranchID, o.CustomerID, o.Date, o.TotalAmount,
		o.Status, o.OrderStatus, o.PaymentMethod, o.CreatedBy, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// AddLine inserta una línea del pedido.
func (r *OrderRepo) AddLine(ctx context.Context, l *entity.OrderLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice, l.LineTotal)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

func (r *OrderRepo) lines(ctx context.Context, orderID string) ([]entity.OrderLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, line_total
		FROM order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	var out []entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *OrderRepo) get(ctx context.Context, id, suffix string) (*entity.Order, error) {
	if !validID(id) {
		return nil, nil
	}
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByID devuelve el pedido con sus líneas.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la cabecera del pedido hasta el fin de la transacción.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

// UpdateStatus actualiza los dos campos de estado.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status, orderStatus string, updatedAt time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE orders SET status = $2, order_status = $3, updated_at = $4 WHERE id = $1`,
		id, status, orderStatus, updatedAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el pedido; líneas e historial caen en cascada y la factura queda sin pedido.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// ListByBranch lista pedidos de la sucursal, los más recientes primero, con sus líneas.
func (r *OrderRepo) ListByBranch(ctx context.Context, companyID, branchID string, limit, offset int) ([]*entity.Order, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE company_id = $1 AND branch_id = $2
		ORDER BY date DESC LIMIT $3 OFFSET $4`, companyID, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var list []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Las líneas se leen después de cerrar rows: una tx no admite dos consultas abiertas.
	for _, o := range list {
		if o.Lines, err = r.lines(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// AddHistory inserta una fila de auditoría.
func (r *OrderRepo) AddHistory(ctx context.Context, h *entity.OrderHistory) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO order_history (id, order_id, previous_status, new_status, action, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		h.ID, h.OrderID, h.PreviousStatus, h.NewStatus, h.Action, h.ActorID, h.Note, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order history: %w", err)
	}
	return nil
}

// ListHistory devuelve el historial en orden cronológico.
func (r *OrderRepo) ListHistory(ctx context.Context, orderID string) ([]*entity.OrderHistory, error) {
	if !validID(orderID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, previous_status, new_status, action, actor_id, note, created_at
		FROM order_history WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	defer rows.Close()
	var list []*entity.OrderHistory
	for rows.Next() {
		var h entity.OrderHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.PreviousStatus, &h.NewStatus, &h.Action, &h.ActorID, &h.Note, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}
