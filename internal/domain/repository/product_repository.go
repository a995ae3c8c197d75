package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// UpdateStock persiste UnitStock, Status y UpdatedAt del producto.
	UpdateStock(ctx context.Context, product *entity.Product) error
	ListByBranch(ctx context.Context, companyID, branchID string, limit, offset int) ([]*entity.Product, error)
}
