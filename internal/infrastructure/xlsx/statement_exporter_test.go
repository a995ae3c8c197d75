package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

func TestExportStatement_FilasYTotales(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := &ledger.Statement{
		CustomerID:     "c-1",
		CustomerName:   "Ana",
		Start:          start,
		End:            start.AddDate(0, 1, 0),
		OpeningBalance: decimal.NewFromInt(10),
		ClosingBalance: decimal.NewFromInt(40),
		TotalDebit:     decimal.NewFromInt(50),
		TotalCredit:    decimal.NewFromInt(20),
		Entries: []*entity.CustomerLedgerEntry{
			{TransactionDate: start.Add(time.Hour), TransactionType: entity.LedgerSale, Description: "Venta", DebitAmount: decimal.NewFromInt(50), Balance: decimal.NewFromInt(60)},
			{TransactionDate: start.Add(2 * time.Hour), TransactionType: entity.LedgerPayment, Description: "Pago", CreditAmount: decimal.NewFromInt(20), Balance: decimal.NewFromInt(40)},
		},
	}

	data, err := NewStatementExporter().ExportStatement(st)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(statementSheet)
	require.NoError(t, err)
	require.Len(t, rows, 9)
	assert.Equal(t, "Ana", rows[0][1])
	assert.Equal(t, "Fecha", rows[4][0])
	assert.Equal(t, "10", rows[5][6])
	assert.Equal(t, "Sale", rows[6][1])
	assert.Equal(t, "60", rows[6][6])
	assert.Equal(t, "Payment", rows[7][1])
	assert.Equal(t, "Totales", rows[8][1])
	assert.Equal(t, "50", rows[8][4])
	assert.Equal(t, "40", rows[8][6])
}

func TestExportStatement_SinMovimientos(t *testing.T) {
	st := &ledger.Statement{CustomerID: "c-2", Start: time.Now().Add(-time.Hour), End: time.Now()}

	data, err := NewStatementExporter().ExportStatement(st)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(statementSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 7)
}
