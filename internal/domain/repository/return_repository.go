package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ReturnRepository define el puerto de persistencia para devoluciones y sus ítems.
type ReturnRepository interface {
	// Create inserta la devolución y sus ítems.
	Create(ctx context.Context, ret *entity.Return) error
	GetByID(ctx context.Context, id string) (*entity.Return, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Return, error)
	// CountByInvoice cuenta las devoluciones de un tipo registradas contra la factura.
	CountByInvoice(ctx context.Context, invoiceID, returnType string) (int, error)
	// ReturnedQuantities suma por producto las cantidades ya devueltas contra la factura.
	ReturnedQuantities(ctx context.Context, invoiceID string) (map[string]int, error)
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	SetCreditNote(ctx context.Context, id, creditNoteInvoiceID string, updatedAt time.Time) error
	ListByBranch(ctx context.Context, companyID, branchID string, limit, offset int) ([]*entity.Return, error)
}
