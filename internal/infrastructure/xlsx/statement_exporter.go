// Package xlsx exporta reportes a hojas de cálculo con excelize.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/pos-api/internal/application/ledger"
)

const (
	statementSheet = "Estado de cuenta"
	dateLayout     = "2006-01-02 15:04"
)

var statementHeader = []any{"Fecha", "Tipo", "Descripción", "Referencia", "Débito", "Crédito", "Saldo"}

var _ ledger.StatementExporter = (*StatementExporter)(nil)

// StatementExporter genera el estado de cuenta de un cliente en formato .xlsx.
type StatementExporter struct{}

// NewStatementExporter construye el exportador.
func NewStatementExporter() *StatementExporter { return &StatementExporter{} }

// ExportStatement escribe encabezado del cliente, saldo inicial, una fila por movimiento y
// la fila de totales con el saldo final.
func (e *StatementExporter) ExportStatement(st *ledger.Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	rows := [][]any{
		{"Cliente", st.CustomerName},
		{"ID cliente", st.CustomerID},
		{"Desde", st.Start.Format(dateLayout), "Hasta", st.End.Format(dateLayout)},
		{},
		statementHeader,
		{"", "Saldo inicial", "", "", "", "", st.OpeningBalance.InexactFloat64()},
	}
	for _, en := range st.Entries {
		rows = append(rows, []any{
			en.TransactionDate.Format(dateLayout),
			en.TransactionType,
			en.Description,
			en.Reference,
			en.DebitAmount.InexactFloat64(),
			en.CreditAmount.InexactFloat64(),
			en.Balance.InexactFloat64(),
		})
	}
	rows = append(rows, []any{
		"", "Totales", "", "",
		st.TotalDebit.InexactFloat64(),
		st.TotalCredit.InexactFloat64(),
		st.ClosingBalance.InexactFloat64(),
	})

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(statementSheet, cell, &r); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", i+1, err)
		}
	}

	last := len(rows)
	for _, rng := range [][2]string{{"A5", "G5"}, {fmt.Sprintf("A%d", last), fmt.Sprintf("G%d", last)}} {
		if err := f.SetCellStyle(statementSheet, rng[0], rng[1], bold); err != nil {
			return nil, fmt.Errorf("xlsx: aplicar estilo: %w", err)
		}
	}
	_ = f.SetColWidth(statementSheet, "A", "A", 18)
	_ = f.SetColWidth(statementSheet, "C", "C", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}
