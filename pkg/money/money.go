// Package money agrupa utilidades de montos sobre shopspring/decimal.
package money

import "github.com/shopspring/decimal"

// Tolerance diferencia máxima aceptada al comparar montos declarados contra calculados.
var Tolerance = decimal.RequireFromString("0.01")

// Equal indica si a y b difieren a lo sumo en Tolerance.
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// Round redondea a dos decimales (centavos).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal devuelve quantity × unitPrice redondeado a centavos.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}
