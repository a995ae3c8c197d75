package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	FindByPhone(ctx context.Context, companyID, phone string) (*entity.Customer, error)
	FindByEmail(ctx context.Context, companyID, email string) (*entity.Customer, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error)
}
