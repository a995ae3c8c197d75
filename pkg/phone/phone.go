// Package phone normaliza teléfonos de clientes para poder buscarlos sin importar el formato de captura.
package phone

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// Normalize devuelve el teléfono en formato E.164 usando region como país por defecto.
// Si no se puede interpretar como número válido, devuelve el texto sin espacios ni separadores.
func Normalize(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p, err := libphonenumber.Parse(raw, region)
	if err == nil && libphonenumber.IsValidNumber(p) {
		return libphonenumber.Format(p, libphonenumber.E164)
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, raw)
}

// Valid indica si raw es un número válido para region.
func Valid(raw, region string) bool {
	p, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(p)
}
