package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// AccountingRepository define el puerto de persistencia del diario contable.
type AccountingRepository interface {
	Create(ctx context.Context, entry *entity.AccountingEntry) error
	// ExistsByToken indica si la sucursal ya tiene un asiento del tipo cuya descripción contiene token.
	ExistsByToken(ctx context.Context, branchID, entryType, token string) (bool, error)
	ListByBranch(ctx context.Context, companyID, branchID string, from, to time.Time) ([]*entity.AccountingEntry, error)
}
