package repository

import "context"

// Repositories agrupa los repositorios atados a una misma conexión o transacción.
type Repositories struct {
	Products   ProductRepository
	Customers  CustomerRepository
	Orders     OrderRepository
	Invoices   InvoiceRepository
	Returns    ReturnRepository
	Ledger     LedgerRepository
	Accounting AccountingRepository
	Movements  InventoryMovementRepository
}

// TxRunner ejecuta fn dentro de una transacción; si fn devuelve error se hace rollback.
// fn no debe invocar Run de nuevo.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repositories) error) error
}
