package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para pedidos, sus líneas e historial.
type OrderRepository interface {
	// Create inserta la cabecera del pedido (sin líneas).
	Create(ctx context.Context, order *entity.Order) error
	AddLine(ctx context.Context, line *entity.OrderLine) error
	// GetByID devuelve el pedido con sus líneas, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate como GetByID pero bloquea la fila del pedido.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id, status, orderStatus string, updatedAt time.Time) error
	// Delete borra el pedido con sus líneas e historial.
	Delete(ctx context.Context, id string) error
	ListByBranch(ctx context.Context, companyID, branchID string, limit, offset int) ([]*entity.Order, error)
	AddHistory(ctx context.Context, h *entity.OrderHistory) error
	ListHistory(ctx context.Context, orderID string) ([]*entity.OrderHistory, error)
}
