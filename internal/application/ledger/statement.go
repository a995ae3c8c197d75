package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// Statement estado de cuenta de un cliente en [Start, End).
type Statement struct {
	CustomerID     string
	CustomerName   string
	Start          time.Time
	End            time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	Entries        []*entity.CustomerLedgerEntry
}

// StatementExporter convierte un estado de cuenta a un archivo descargable.
type StatementExporter interface {
	ExportStatement(st *Statement) ([]byte, error)
}

// GetCustomerStatement arma el estado de cuenta. El saldo inicial es el del último movimiento
// anterior a start; el final, el del último movimiento del rango (o el inicial si no hay).
// Sin sucursal en el tenant devuelve un estado vacío.
func (s *Service) GetCustomerStatement(ctx context.Context, t domain.Tenant, customerID string, start, end time.Time) (*Statement, error) {
	if !end.After(start) {
		return nil, domain.Invalid("end must be after start")
	}
	st := &Statement{CustomerID: customerID, Start: start, End: end, Entries: []*entity.CustomerLedgerEntry{}}
	if !t.HasBranch() {
		return st, nil
	}
	c, err := s.customer(ctx, t, customerID)
	if err != nil {
		return nil, err
	}
	st.CustomerName = c.Name

	prev, err := s.repos.Ledger.LastBefore(ctx, customerID, start)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		st.OpeningBalance = prev.Balance
	}
	entries, err := s.repos.Ledger.ListByCustomer(ctx, customerID, &start, &end)
	if err != nil {
		return nil, err
	}
	st.ClosingBalance = st.OpeningBalance
	for _, e := range entries {
		st.TotalDebit = st.TotalDebit.Add(e.DebitAmount)
		st.TotalCredit = st.TotalCredit.Add(e.CreditAmount)
		st.ClosingBalance = e.Balance
	}
	st.Entries = append(st.Entries, entries...)
	return st, nil
}

// ExportStatementXLSX genera el estado de cuenta como hoja de cálculo.
func (s *Service) ExportStatementXLSX(ctx context.Context, t domain.Tenant, customerID string, start, end time.Time) ([]byte, string, error) {
	if s.exporter == nil {
		return nil, "", fmt.Errorf("exportador de estados de cuenta no configurado")
	}
	st, err := s.GetCustomerStatement(ctx, t, customerID, start, end)
	if err != nil {
		return nil, "", err
	}
	data, err := s.exporter.ExportStatement(st)
	if err != nil {
		return nil, "", fmt.Errorf("exportar estado de cuenta: %w", err)
	}
	name := fmt.Sprintf("statement_%s_%s_%s.xlsx", customerID, start.Format("20060102"), end.Format("20060102"))
	return data, name, nil
}

// AgingBuckets saldos vencidos por antigüedad.
type AgingBuckets struct {
	Days0To30  decimal.Decimal
	Days31To60 decimal.Decimal
	Days61To90 decimal.Decimal
	Over90     decimal.Decimal
}

// Total suma todos los tramos.
func (b AgingBuckets) Total() decimal.Decimal {
	return b.Days0To30.Add(b.Days31To60).Add(b.Days61To90).Add(b.Over90)
}

func (b *AgingBuckets) add(days int, amount decimal.Decimal) {
	switch {
	case days <= 30:
		b.Days0To30 = b.Days0To30.Add(amount)
	case days <= 60:
		b.Days31To60 = b.Days31To60.Add(amount)
	case days <= 90:
		b.Days61To90 = b.Days61To90.Add(amount)
	default:
		b.Over90 = b.Over90.Add(amount)
	}
}

// AgingRow antigüedad de saldos de un cliente.
type AgingRow struct {
	CustomerID string
	Buckets    AgingBuckets
	Invoices   int
}

// AgingReport antigüedad de cartera de una sucursal a una fecha.
type AgingReport struct {
	AsOf   time.Time
	Rows   []AgingRow
	Totals AgingBuckets
}

// DaysOverdue días completos entre el vencimiento y asOf.
func DaysOverdue(due, asOf time.Time) int {
	if !asOf.After(due) {
		return 0
	}
	return int(asOf.Sub(due).Hours() / 24)
}

// Aging clasifica el saldo de cada factura vencida (saldo > 0, vencimiento <= asOf) en tramos
// de 0-30, 31-60, 61-90 y más de 90 días, sumando por cliente. Sin sucursal devuelve vacío.
func (s *Service) Aging(ctx context.Context, t domain.Tenant, asOf time.Time) (*AgingReport, error) {
	rep := &AgingReport{AsOf: asOf, Rows: []AgingRow{}}
	if !t.HasBranch() {
		return rep, nil
	}
	invoices, err := s.repos.Invoices.ListOutstanding(ctx, t.CompanyID, t.BranchID, asOf)
	if err != nil {
		return nil, err
	}
	byCustomer := map[string]*AgingRow{}
	for _, inv := range invoices {
		if !inv.Balance.IsPositive() || inv.DueDate.After(asOf) {
			continue
		}
		row, ok := byCustomer[inv.CustomerID]
		if !ok {
			row = &AgingRow{CustomerID: inv.CustomerID}
			byCustomer[inv.CustomerID] = row
		}
		days := DaysOverdue(inv.DueDate, asOf)
		row.Buckets.add(days, inv.Balance)
		row.Invoices++
		rep.Totals.add(days, inv.Balance)
	}
	for _, row := range byCustomer {
		rep.Rows = append(rep.Rows, *row)
	}
	sort.Slice(rep.Rows, func(i, j int) bool { return rep.Rows[i].CustomerID < rep.Rows[j].CustomerID })
	return rep, nil
}

// Mismatch movimiento cuyo saldo guardado no coincide con el recalculado.
type Mismatch struct {
	EntryID  string
	Seq      int64
	Stored   decimal.Decimal
	Expected decimal.Decimal
}

// ReplayReport resultado de recalcular el libro de un cliente.
type ReplayReport struct {
	CustomerID string
	Entries    int
	Balance    decimal.Decimal
	Mismatches []Mismatch
}

// OK indica si todos los saldos coinciden.
func (r *ReplayReport) OK() bool { return len(r.Mismatches) == 0 }

// VerifyReplay recorre los movimientos del cliente en orden (fecha, secuencia) recalculando
// saldo = anterior + débito − crédito, y reporta cada diferencia con el saldo guardado.
func (s *Service) VerifyReplay(ctx context.Context, customerID string) (*ReplayReport, error) {
	entries, err := s.repos.Ledger.ListByCustomer(ctx, customerID, nil, nil)
	if err != nil {
		return nil, err
	}
	rep := &ReplayReport{CustomerID: customerID, Entries: len(entries)}
	running := decimal.Zero
	for _, e := range entries {
		running = running.Add(e.Net())
		if !running.Equal(e.Balance) {
			rep.Mismatches = append(rep.Mismatches, Mismatch{EntryID: e.ID, Seq: e.Seq, Stored: e.Balance, Expected: running})
		}
	}
	rep.Balance = running
	return rep, nil
}

// VerifyAll ejecuta VerifyReplay para cada cliente con movimientos en la empresa (vacío = todas).
func (s *Service) VerifyAll(ctx context.Context, companyID string) ([]*ReplayReport, error) {
	ids, err := s.repos.Ledger.ListCustomers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]*ReplayReport, 0, len(ids))
	for _, id := range ids {
		rep, err := s.VerifyReplay(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}
