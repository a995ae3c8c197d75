// Package memory implementa todos los repositorios en memoria, con transacciones serializadas
// que restauran una copia del estado si la función falla. Se usa en desarrollo (STORE_DRIVER=memory)
// y en las pruebas de la capa de aplicación.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type state struct {
	products   map[string]entity.Product
	customers  map[string]entity.Customer
	orders     map[string]entity.Order
	history    []entity.OrderHistory
	invoices   map[string]entity.Invoice
	payments   []entity.InvoicePayment
	returns    map[string]entity.Return
	ledger     []entity.CustomerLedgerEntry
	ledgerSeq  int64
	accounting []entity.AccountingEntry
	movements  []entity.InventoryMovement
}

func newState() *state {
	return &state{
		products:  map[string]entity.Product{},
		customers: map[string]entity.Customer{},
		orders:    map[string]entity.Order{},
		invoices:  map[string]entity.Invoice{},
		returns:   map[string]entity.Return{},
	}
}

func (s *state) clone() *state {
	return &state{
		products:   maps.Clone(s.products),
		customers:  maps.Clone(s.customers),
		orders:     maps.Clone(s.orders),
		history:    slices.Clone(s.history),
		invoices:   maps.Clone(s.invoices),
		payments:   slices.Clone(s.payments),
		returns:    maps.Clone(s.returns),
		ledger:     slices.Clone(s.ledger),
		ledgerSeq:  s.ledgerSeq,
		accounting: slices.Clone(s.accounting),
		movements:  slices.Clone(s.movements),
	}
}

// Store almacén en memoria. Las transacciones se ejecutan de a una.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Repositories devuelve repositorios fuera de transacción; cada llamada toma el lock del almacén.
func (s *Store) Repositories() repository.Repositories {
	return s.bind(false)
}

// Run ejecuta fn con el almacén bloqueado; si fn falla o el contexto se cancela se restaura el estado previo.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.bind(true)); err != nil {
		s.data = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) bind(inTx bool) repository.Repositories {
	b := &binding{s: s, inTx: inTx}
	return repository.Repositories{
		Products:   &productRepo{b},
		Customers:  &customerRepo{b},
		Orders:     &orderRepo{b},
		Invoices:   &invoiceRepo{b},
		Returns:    &returnRepo{b},
		Ledger:     &ledgerRepo{b},
		Accounting: &accountingRepo{b},
		Movements:  &movementRepo{b},
	}
}

type binding struct {
	s    *Store
	inTx bool
}

// lock toma el mutex salvo dentro de Run, donde ya está tomado.
func (b *binding) lock() func() {
	if b.inTx {
		return func() {}
	}
	b.s.mu.Lock()
	return b.s.mu.Unlock
}

func (b *binding) data() *state { return b.s.data }
