package dto

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PageRequest paginación de listados por sucursal.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize aplica el límite por defecto, el máximo de 100 y descarta offsets negativos.
func (p *PageRequest) Normalize() {
	switch {
	case p.Limit <= 0:
		p.Limit = defaultPageLimit
	case p.Limit > maxPageLimit:
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// Response arma los metadatos de la página con la cantidad de ítems devueltos.
func (p PageRequest) Response(count int) PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset, Count: count}
}

// PageResponse metadatos de página. Count es la cantidad de ítems de esta página.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
