package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// LedgerRepository define el puerto de persistencia del libro de clientes.
type LedgerRepository interface {
	// LockCustomer serializa las escrituras del cliente hasta el fin de la transacción.
	LockCustomer(ctx context.Context, customerID string) error
	// Last devuelve el último movimiento del cliente por (fecha, secuencia), o nil.
	Last(ctx context.Context, customerID string) (*entity.CustomerLedgerEntry, error)
	// LastBefore devuelve el último movimiento con fecha estrictamente anterior a t, o nil.
	LastBefore(ctx context.Context, customerID string, t time.Time) (*entity.CustomerLedgerEntry, error)
	// Insert persiste el movimiento y asigna Seq.
	Insert(ctx context.Context, entry *entity.CustomerLedgerEntry) error
	ExistsForOrderInvoice(ctx context.Context, orderID, invoiceID string) (bool, error)
	ExistsForReturn(ctx context.Context, returnID string) (bool, error)
	// ListByCustomer lista en orden (fecha, secuencia); from/to nil significan sin límite, to es exclusivo.
	ListByCustomer(ctx context.Context, customerID string, from, to *time.Time) ([]*entity.CustomerLedgerEntry, error)
	// ListCustomers devuelve los clientes con movimientos.
	ListCustomers(ctx context.Context, companyID string) ([]string, error)
}
