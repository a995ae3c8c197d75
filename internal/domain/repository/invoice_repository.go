package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas, notas crédito y pagos.
type InvoiceRepository interface {
	// Create inserta la factura. Devuelve domain.ErrDuplicate si el número ya existe
	// o si ya hay una factura (no nota crédito) para el pedido, sin abortar la transacción.
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	// GetByOrderID devuelve la factura de tipo Invoice del pedido, o nil.
	GetByOrderID(ctx context.Context, orderID string) (*entity.Invoice, error)
	// MaxNumber devuelve el mayor número con el prefijo dado en la empresa, o "" si no hay.
	MaxNumber(ctx context.Context, companyID, prefix string) (string, error)
	// UpdateBalance persiste AmountPaid, Balance, Status y UpdatedAt.
	UpdateBalance(ctx context.Context, invoice *entity.Invoice) error
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	AddPayment(ctx context.Context, payment *entity.InvoicePayment) error
	ListPayments(ctx context.Context, invoiceID string) ([]*entity.InvoicePayment, error)
	ListByBranch(ctx context.Context, companyID, branchID string, limit, offset int) ([]*entity.Invoice, error)
	// ListOutstanding devuelve facturas tipo Invoice no canceladas con saldo > 0 y vencimiento <= asOf.
	ListOutstanding(ctx context.Context, companyID, branchID string, asOf time.Time) ([]*entity.Invoice, error)
}
