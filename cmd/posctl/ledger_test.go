package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-api/internal/application/ledger"
)

func TestPrintReports_MarcaDiferencias(t *testing.T) {
	var buf bytes.Buffer
	bad := printReports(&buf, []*ledger.ReplayReport{
		{CustomerID: "c1", Entries: 2, Balance: decimal.NewFromInt(30)},
		{CustomerID: "c2", Entries: 1, Balance: decimal.NewFromInt(5), Mismatches: []ledger.Mismatch{
			{EntryID: "e9", Seq: 9, Stored: decimal.NewFromInt(4), Expected: decimal.NewFromInt(5)},
		}},
	})

	assert.Equal(t, 1, bad)
	out := buf.String()
	assert.Contains(t, out, "c1\tentries=2\tbalance=30.00\tOK")
	assert.Contains(t, out, "c2\tentries=1\tbalance=5.00\tMISMATCH")
	assert.Contains(t, out, "seq=9 entry=e9 stored=4.00 expected=5.00")
}
