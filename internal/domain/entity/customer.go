package entity

import "time"

// Customer representa un cliente de la empresa. Nunca se elimina desde la cadena de ventas.
type Customer struct {
	ID        string
	CompanyID string
	Name      string
	Email     string
	Phone     string // normalizado E.164 cuando es posible
	CreatedAt time.Time
	UpdatedAt time.Time
}
