package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrUserNotFound         = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists   = errors.New("el email ya está registrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrStaleStock           = fmt.Errorf("%w: el stock cambió desde la última lectura", ErrConflict)
	ErrAlreadyReversed      = fmt.Errorf("%w: el movimiento ya fue revertido", ErrConflict)
	ErrOperationInProgress  = fmt.Errorf("%w: ya hay una operación en curso para este producto", ErrConflict)
	ErrConfirmationRequired = errors.New("la operación requiere confirmación")
)

// ValidationError describe un campo inválido. Es ErrInvalidInput para errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid construye un ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError detalla el stock disponible y el solicitado.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", e.Available, e.Requested)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransportError envuelve un fallo del backend (red, validación de la BD).
// El mensaje se propaga tal cual lo devolvió el backend.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport envuelve err como TransportError; nil si err es nil.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// IsTransport indica si err proviene del backend.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
