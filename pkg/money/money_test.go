package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEqual_Tolerancia(t *testing.T) {
	d := decimal.RequireFromString
	assert.True(t, Equal(d("100.00"), d("100.01")))
	assert.True(t, Equal(d("100.01"), d("100.00")))
	assert.False(t, Equal(d("100.00"), d("100.02")))
	assert.False(t, Equal(d("20.00"), d("30.00")))
}

func TestLineTotal(t *testing.T) {
	assert.True(t, LineTotal(5, decimal.RequireFromString("2.00")).Equal(decimal.RequireFromString("10")))
	assert.True(t, LineTotal(3, decimal.RequireFromString("0.333")).Equal(decimal.RequireFromString("1.00")))
}
