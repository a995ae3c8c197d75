package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para InventoryMovement.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.InventoryMovement, error)
}
