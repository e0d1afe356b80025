package vaccines

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("vaccine not found")
	ErrDuplicateName = errors.New("vaccine name already exists")

	// ErrSubmissionInFlight: ya hay un envío pendiente para el mismo formulario.
	ErrSubmissionInFlight = errors.New("submission in flight")
	// ErrSubmissionAbandoned: el llamador canceló (ctx) antes de confirmar la escritura.
	ErrSubmissionAbandoned = errors.New("submission abandoned")
)

// ValidationError es un problema estructural de un campo del formulario.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// ValidationErrors junta todos los problemas encontrados en una pasada.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has indica si hay un error para field.
func (es ValidationErrors) Has(field string) bool {
	for _, e := range es {
		if e.Field == field {
			return true
		}
	}
	return false
}

func (es *ValidationErrors) add(field, reason string) {
	*es = append(*es, ValidationError{Field: field, Reason: reason})
}

// DuplicateError: otro registro ya usa el nombre (comparación trim + minúsculas).
type DuplicateError struct {
	Name       string
	ConflictID string
}

func (e *DuplicateError) Error() string {
	if e.ConflictID == "" {
		return fmt.Sprintf("vaccine %q already exists", e.Name)
	}
	return fmt.Sprintf("vaccine %q already exists (id=%s)", e.Name, e.ConflictID)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateName }

// TransportError envuelve una falla de persistencia o de lookup. Es recuperable:
// el formulario vuelve a edición con el input intacto.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InconsistentStateWarning: la reconstrucción no pudo resolver una referencia.
// No es fatal; el campo queda vacío para que el usuario vuelva a elegir.
type InconsistentStateWarning struct {
	Field     string `json:"field"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

func (w InconsistentStateWarning) Error() string {
	return fmt.Sprintf("%s: %s (ref=%s)", w.Field, w.Reason, w.Reference)
}
