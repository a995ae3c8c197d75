package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidOperation  = errors.New("operación inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = &BusinessError{Kind: ErrInvalidOperation, Message: "Insufficient stock"}
)

// ErrNoBranchContext se devuelve cuando una escritura llega sin sucursal en el contexto del tenant.
var ErrNoBranchContext = &BusinessError{Kind: ErrInvalidOperation, Message: "no branch context"}

// BusinessError lleva el motivo legible de una regla de negocio violada.
// Unwrap devuelve Kind, de modo que errors.Is(err, ErrInvalidOperation) funciona.
type BusinessError struct {
	Kind    error
	Message string
}

func (e *BusinessError) Error() string { return e.Message }

func (e *BusinessError) Unwrap() error { return e.Kind }

// InvalidOperation construye un error de regla de negocio con mensaje.
func InvalidOperation(msg string) error {
	return &BusinessError{Kind: ErrInvalidOperation, Message: msg}
}

// Invalid construye un error de validación de entrada con mensaje.
func Invalid(msg string) error {
	return &BusinessError{Kind: ErrInvalidInput, Message: msg}
}

// NotFound construye un error de recurso inexistente con mensaje.
func NotFound(msg string) error {
	return &BusinessError{Kind: ErrNotFound, Message: msg}
}

// Message devuelve el mensaje legible de err si es un BusinessError, o fallback.
func Message(err error, fallback string) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return fallback
}
