package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository           = (*productRepo)(nil)
	_ repository.CustomerRepository          = (*customerRepo)(nil)
	_ repository.OrderRepository             = (*orderRepo)(nil)
	_ repository.InvoiceRepository           = (*invoiceRepo)(nil)
	_ repository.ReturnRepository            = (*returnRepo)(nil)
	_ repository.LedgerRepository            = (*ledgerRepo)(nil)
	_ repository.AccountingRepository        = (*accountingRepo)(nil)
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
)

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// ── productos ────────────────────────────────────────────────────────────────

type productRepo struct{ b *binding }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.b.lock()()
	d := r.b.data()
	if _, ok := d.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range d.products {
		if p.SKU != "" && other.CompanyID == p.CompanyID && other.BranchID == p.BranchID && other.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	d.products[p.ID] = *p
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.b.lock()()
	p, ok := r.b.data().products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) UpdateStock(_ context.Context, p *entity.Product) error {
	defer r.b.lock()()
	d := r.b.data()
	cur, ok := d.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.UnitStock = p.UnitStock
	cur.Status = p.Status
	cur.UpdatedAt = p.UpdatedAt
	d.products[p.ID] = cur
	return nil
}

func (r *productRepo) ListByBranch(_ context.Context, companyID, branchID string, limit, offset int) ([]*entity.Product, error) {
	defer r.b.lock()()
	var list []*entity.Product
	for _, p := range r.b.data().products {
		if p.CompanyID == companyID && p.BranchID == branchID {
			list = append(list, &p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}

// ── clientes ─────────────────────────────────────────────────────────────────

type customerRepo struct{ b *binding }

func (r *customerRepo) Create(_ context.Context, c *entity.Customer) error {
	defer r.b.lock()()
	d := r.b.data()
	if _, ok := d.customers[c.ID]; ok {
		return domain.ErrDuplicate
	}
	d.customers[c.ID] = *c
	return nil
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	defer r.b.lock()()
	c, ok := r.b.data().customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *customerRepo) find(companyID string, match func(c entity.Customer) bool) *entity.Customer {
	var found *entity.Customer
	for _, c := range r.b.data().customers {
		if c.CompanyID != companyID || !match(c) {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			found = &c
		}
	}
	return found
}

func (r *customerRepo) FindByPhone(_ context.Context, companyID, phone string) (*entity.Customer, error) {
	defer r.b.lock()()
	return r.find(companyID, func(c entity.Customer) bool { return c.Phone == phone }), nil
}

func (r *customerRepo) FindByEmail(_ context.Context, companyID, email string) (*entity.Customer, error) {
	defer r.b.lock()()
	return r.find(companyID, func(c entity.Customer) bool { return strings.EqualFold(c.Email, email) }), nil
}

func (r *customerRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	defer r.b.lock()()
	var list []*entity.Customer
	for _, c := range r.b.data().customers {
		if c.CompanyID == companyID {
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), nil
}

// ── pedidos ──────────────────────────────────────────────────────────────────

type orderRepo struct{ b *binding }

func copyOrder(o entity.Order) *entity.Order {
	o.Lines = slices.Clone(o.Lines)
	return &o
}

func (r *orderRepo) Create(_ context.Context, o *entity.Order) error {
	defer r.b.lock()()
	d := r.b.data()
	if _, ok := d.orders[o.ID]; ok {
		return domain.ErrDuplicate
	}
	head := *o
	head.Lines = nil
	d.orders[o.ID] = head
	return nil
}

func (r *orderRepo) AddLine(_ context.Context, l *entity.OrderLine) error {
	defer r.b.lock()()
	d := r.b.data()
	o, ok := d.orders[l.OrderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Lines = append(slices.Clone(o.Lines), *l)
	d.orders[o.ID] = o
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	defer r.b.lock()()
	o, ok := r.b.data().orders[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) UpdateStatus(_ context.Context, id, status, orderStatus string, updatedAt time.Time) error {
	defer r.b.lock()()
	d := r.b.data()
	o, ok := d.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status, o.OrderStatus, o.UpdatedAt = status, orderStatus, updatedAt
	d.orders[id] = o
	return nil
}

func (r *orderRepo) Delete(_ context.Context, id string) error {
	defer r.b.lock()()
	d := r.b.data()
	delete(d.orders, id)
	d.history = slices.DeleteFunc(slices.Clone(d.history), func(h entity.OrderHistory) bool { return h.OrderID == id })
	for k, inv := range d.invoices {
		if inv.OrderID == id {
			inv.OrderID = ""
			d.invoices[k] = inv
		}
	}
	return nil
}

func (r *orderRepo) ListByBranch(_ context.Context, companyID, branchID string, limit, offset int) ([]*entity.Order, error) {
	defer r.b.lock()()
	var list []*entity.Order
	for _, o := range r.b.data().orders {
		if o.CompanyID == companyID && o.BranchID == branchID {
			list = append(list, copyOrder(o))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return page(list, limit, offset), nil
}

func (r *orderRepo) AddHistory(_ context.Context, h *entity.OrderHistory) error {
	defer r.b.lock()()
	d := r.b.data()
	d.history = append(d.history, *h)
	return nil
}

func (r *orderRepo) ListHistory(_ context.Context, orderID string) ([]*entity.OrderHistory, error) {
	defer r.b.lock()()
	var list []*entity.OrderHistory
	for _, h := range r.b.data().history {
		if h.OrderID == orderID {
			list = append(list, &h)
		}
	}
	return list, nil
}

// ── facturas ─────────────────────────────────────────────────────────────────

type invoiceRepo struct{ b *binding }

func (r *invoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	defer r.b.lock()()
	d := r.b.data()
	for _, other := range d.invoices {
		if other.CompanyID == inv.CompanyID && other.InvoiceNumber == inv.InvoiceNumber {
			return domain.ErrDuplicate
		}
		if inv.Type == entity.InvoiceTypeInvoice && other.Type == entity.InvoiceTypeInvoice &&
			inv.OrderID != "" && other.OrderID == inv.OrderID {
			return domain.ErrDuplicate
		}
	}
	d.invoices[inv.ID] = *inv
	return nil
}

func (r *invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	defer r.b.lock()()
	inv, ok := r.b.data().invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *invoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *invoiceRepo) GetByOrderID(_ context.Context, orderID string) (*entity.Invoice, error) {
	defer r.b.lock()()
	for _, inv := range r.b.data().invoices {
		if inv.OrderID == orderID && inv.Type == entity.InvoiceTypeInvoice {
			return &inv, nil
		}
	}
	return nil, nil
}

func (r *invoiceRepo) MaxNumber(_ context.Context, companyID, prefix string) (string, error) {
	defer r.b.lock()()
	max := ""
	for _, inv := range r.b.data().invoices {
		n := inv.InvoiceNumber
		if inv.CompanyID != companyID || !strings.HasPrefix(n, prefix) {
			continue
		}
		if len(n) > len(max) || (len(n) == len(max) && n > max) {
			max = n
		}
	}
	return max, nil
}

func (r *invoiceRepo) UpdateBalance(_ context.Context, inv *entity.Invoice) error {
	defer r.b.lock()()
	d := r.b.data()
	cur, ok := d.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.AmountPaid, cur.Balance, cur.Status, cur.UpdatedAt = inv.AmountPaid, inv.Balance, inv.Status, inv.UpdatedAt
	d.invoices[inv.ID] = cur
	return nil
}

func (r *invoiceRepo) UpdateStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	defer r.b.lock()()
	d := r.b.data()
	cur, ok := d.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status, cur.UpdatedAt = status, updatedAt
	d.invoices[id] = cur
	return nil
}

func (r *invoiceRepo) AddPayment(_ context.Context, p *entity.InvoicePayment) error {
	defer r.b.lock()()
	d := r.b.data()
	d.payments = append(d.payments, *p)
	return nil
}

func (r *invoiceRepo) ListPayments(_ context.Context, invoiceID string) ([]*entity.InvoicePayment, error) {
	defer r.b.lock()()
	var list []*entity.InvoicePayment
	for _, p := range r.b.data().payments {
		if p.InvoiceID == invoiceID {
			list = append(list, &p)
		}
	}
	return list, nil
}

func (r *invoiceRepo) ListByBranch(_ context.Context, companyID, branchID string, limit, offset int) ([]*entity.Invoice, error) {
	defer r.b.lock()()
	var list []*entity.Invoice
	for _, inv := range r.b.data().invoices {
		if inv.CompanyID == companyID && inv.BranchID == branchID {
			list = append(list, &inv)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].InvoiceDate.After(list[j].InvoiceDate) })
	return page(list, limit, offset), nil
}

func (r *invoiceRepo) ListOutstanding(_ context.Context, companyID, branchID string, asOf time.Time) ([]*entity.Invoice, error) {
	defer r.b.lock()()
	var list []*entity.Invoice
	for _, inv := range r.b.data().invoices {
		if inv.CompanyID != companyID || inv.BranchID != branchID || inv.Type != entity.InvoiceTypeInvoice {
			continue
		}
		if inv.Status == entity.InvoiceCancelled || !inv.Balance.IsPositive() || inv.DueDate.After(asOf) {
			continue
		}
		list = append(list, &inv)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DueDate.Before(list[j].DueDate) })
	return list, nil
}

// ── devoluciones ─────────────────────────────────────────────────────────────

type returnRepo struct{ b *binding }

func copyReturn(ret entity.Return) *entity.Return {
	ret.Items = slices.Clone(ret.Items)
	return &ret
}

func (r *returnRepo) Create(_ context.Context, ret *entity.Return) error {
	defer r.b.lock()()
	d := r.b.data()
	if _, ok := d.returns[ret.ID]; ok {
		return domain.ErrDuplicate
	}
	d.returns[ret.ID] = *copyReturn(*ret)
	return nil
}

func (r *returnRepo) GetByID(_ context.Context, id string) (*entity.Return, error) {
	defer r.b.lock()()
	ret, ok := r.b.data().returns[id]
	if !ok {
		return nil, nil
	}
	return copyReturn(ret), nil
}

func (r *returnRepo) GetForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	return r.GetByID(ctx, id)
}

func (r *returnRepo) CountByInvoice(_ context.Context, invoiceID, returnType string) (int, error) {
	defer r.b.lock()()
	n := 0
	for _, ret := range r.b.data().returns {
		if ret.InvoiceID == invoiceID && ret.Type == returnType {
			n++
		}
	}
	return n, nil
}

func (r *returnRepo) ReturnedQuantities(_ context.Context, invoiceID string) (map[string]int, error) {
	defer r.b.lock()()
	out := map[string]int{}
	for _, ret := range r.b.data().returns {
		if ret.InvoiceID != invoiceID {
			continue
		}
		for _, it := range ret.Items {
			out[it.ProductID] += it.ReturnQuantity
		}
	}
	return out, nil
}

func (r *returnRepo) UpdateStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	defer r.b.lock()()
	d := r.b.data()
	ret, ok := d.returns[id]
	if !ok {
		return domain.ErrNotFound
	}
	ret.Status, ret.UpdatedAt = status, updatedAt
	d.returns[id] = ret
	return nil
}

func (r *returnRepo) SetCreditNote(_ context.Context, id, creditNoteInvoiceID string, updatedAt time.Time) error {
	defer r.b.lock()()
	d := r.b.data()
	ret, ok := d.returns[id]
	if !ok {
		return domain.ErrNotFound
	}
	ret.CreditNoteInvoiceID, ret.UpdatedAt = creditNoteInvoiceID, updatedAt
	d.returns[id] = ret
	return nil
}

func (r *returnRepo) ListByBranch(_ context.Context, companyID, branchID string, limit, offset int) ([]*entity.Return, error) {
	defer r.b.lock()()
	var list []*entity.Return
	for _, ret := range r.b.data().returns {
		if ret.CompanyID == companyID && ret.BranchID == branchID {
			list = append(list, copyReturn(ret))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}

// ── libro de clientes ────────────────────────────────────────────────────────

type ledgerRepo struct{ b *binding }

// LockCustomer no hace nada: Run ya serializa todas las transacciones.
func (r *ledgerRepo) LockCustomer(context.Context, string) error { return nil }

func before(a, b entity.CustomerLedgerEntry) bool {
	if !a.TransactionDate.Equal(b.TransactionDate) {
		return a.TransactionDate.Before(b.TransactionDate)
	}
	return a.Seq < b.Seq
}

func (r *ledgerRepo) sorted(customerID string) []entity.CustomerLedgerEntry {
	var list []entity.CustomerLedgerEntry
	for _, e := range r.b.data().ledger {
		if e.CustomerID == customerID {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool { return before(list[i], list[j]) })
	return list
}

func (r *ledgerRepo) Last(_ context.Context, customerID string) (*entity.CustomerLedgerEntry, error) {
	defer r.b.lock()()
	list := r.sorted(customerID)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[len(list)-1], nil
}

func (r *ledgerRepo) LastBefore(_ context.Context, customerID string, t time.Time) (*entity.CustomerLedgerEntry, error) {
	defer r.b.lock()()
	var last *entity.CustomerLedgerEntry
	for _, e := range r.sorted(customerID) {
		if !e.TransactionDate.Before(t) {
			break
		}
		last = &e
	}
	return last, nil
}

func (r *ledgerRepo) Insert(_ context.Context, e *entity.CustomerLedgerEntry) error {
	defer r.b.lock()()
	d := r.b.data()
	d.ledgerSeq++
	e.Seq = d.ledgerSeq
	d.ledger = append(d.ledger, *e)
	return nil
}

func (r *ledgerRepo) ExistsForOrderInvoice(_ context.Context, orderID, invoiceID string) (bool, error) {
	defer r.b.lock()()
	for _, e := range r.b.data().ledger {
		if e.OrderID == orderID && e.InvoiceID == invoiceID && e.TransactionType == entity.LedgerSale {
			return true, nil
		}
	}
	return false, nil
}

func (r *ledgerRepo) ExistsForReturn(_ context.Context, returnID string) (bool, error) {
	defer r.b.lock()()
	for _, e := range r.b.data().ledger {
		if e.ReturnID == returnID && e.TransactionType == entity.LedgerRefund {
			return true, nil
		}
	}
	return false, nil
}

func (r *ledgerRepo) ListByCustomer(_ context.Context, customerID string, from, to *time.Time) ([]*entity.CustomerLedgerEntry, error) {
	defer r.b.lock()()
	var list []*entity.CustomerLedgerEntry
	for _, e := range r.sorted(customerID) {
		if from != nil && e.TransactionDate.Before(*from) {
			continue
		}
		if to != nil && !e.TransactionDate.Before(*to) {
			continue
		}
		list = append(list, &e)
	}
	return list, nil
}

func (r *ledgerRepo) ListCustomers(_ context.Context, companyID string) ([]string, error) {
	defer r.b.lock()()
	seen := map[string]bool{}
	var ids []string
	for _, e := range r.b.data().ledger {
		if (companyID == "" || e.CompanyID == companyID) && !seen[e.CustomerID] {
			seen[e.CustomerID] = true
			ids = append(ids, e.CustomerID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ── diario contable ──────────────────────────────────────────────────────────

type accountingRepo struct{ b *binding }

func (r *accountingRepo) Create(_ context.Context, e *entity.AccountingEntry) error {
	defer r.b.lock()()
	d := r.b.data()
	d.accounting = append(d.accounting, *e)
	return nil
}

func (r *accountingRepo) ExistsByToken(_ context.Context, branchID, entryType, token string) (bool, error) {
	defer r.b.lock()()
	for _, e := range r.b.data().accounting {
		if e.BranchID == branchID && e.EntryType == entryType && strings.Contains(e.Description, token) {
			return true, nil
		}
	}
	return false, nil
}

func (r *accountingRepo) ListByBranch(_ context.Context, companyID, branchID string, from, to time.Time) ([]*entity.AccountingEntry, error) {
	defer r.b.lock()()
	var list []*entity.AccountingEntry
	for _, e := range r.b.data().accounting {
		if e.CompanyID != companyID || e.BranchID != branchID {
			continue
		}
		if e.EntryDate.Before(from) || !e.EntryDate.Before(to) {
			continue
		}
		list = append(list, &e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EntryDate.Before(list[j].EntryDate) })
	return list, nil
}

// ── movimientos de inventario ────────────────────────────────────────────────

type movementRepo struct{ b *binding }

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	defer r.b.lock()()
	d := r.b.data()
	d.movements = append(d.movements, *m)
	return nil
}

func (r *movementRepo) ListByProduct(_ context.Context, productID string, limit int) ([]*entity.InventoryMovement, error) {
	defer r.b.lock()()
	var list []*entity.InventoryMovement
	for i := len(r.b.data().movements) - 1; i >= 0; i-- {
		m := r.b.data().movements[i]
		if m.ProductID == productID {
			list = append(list, &m)
		}
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}
