package vaccines

import (
	"context"
	"fmt"
	"sync"
)

// State es un estado del flujo de envío del formulario.
type State string

const (
	StateEditing             State = "editing"
	StateValidatingStructure State = "validating_structure"
	StateRejectedStructure   State = "rejected_structure"
	StateValidatingDuplicate State = "validating_duplicate"
	StateRejectedDuplicate   State = "rejected_duplicate"
	StateConfirming          State = "confirming"
	StateCancelled           State = "cancelled"
	StatePersisting          State = "persisting"
	StateCommitted           State = "committed"
	StateFailedTransport     State = "failed_transport"
)

// Terminal indica si el flujo termina en s.
func (s State) Terminal() bool {
	switch s {
	case StateRejectedStructure, StateRejectedDuplicate, StateCancelled, StateCommitted, StateFailedTransport:
		return true
	default:
		return false
	}
}

var transitions = map[State][]State{
	StateEditing:             {StateValidatingStructure},
	StateValidatingStructure: {StateRejectedStructure, StateValidatingDuplicate, StateFailedTransport},
	StateValidatingDuplicate: {StateRejectedDuplicate, StateConfirming, StateFailedTransport},
	StateConfirming:          {StateCancelled, StatePersisting},
	// el índice único puede rechazar un nombre que la lista todavía no mostraba
	StatePersisting: {StateCommitted, StateFailedTransport, StateRejectedDuplicate, StateCancelled},
	// failed_transport vuelve a edición con el input intacto
	StateFailedTransport: {StateEditing},
}

// CanTransition reporta si from -> to es un paso válido.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Submission sigue el recorrido de un envío. No es segura para uso concurrente:
// cada envío tiene la suya y el guard evita dos envíos del mismo formulario.
type Submission struct {
	state State
	trail []State
}

func NewSubmission() *Submission {
	return &Submission{state: StateEditing, trail: []State{StateEditing}}
}

func (s *Submission) State() State { return s.state }

// Trail devuelve una copia de los estados recorridos.
func (s *Submission) Trail() []State {
	out := make([]State, len(s.trail))
	copy(out, s.trail)
	return out
}

func (s *Submission) advance(to State) error {
	if !CanTransition(s.state, to) {
		return fmt.Errorf("submission: invalid transition %s -> %s", s.state, to)
	}
	s.state = to
	s.trail = append(s.trail, to)
	return nil
}

// Confirmer es el paso de confirmación del usuario.
type Confirmer interface {
	Confirm(ctx context.Context, n NormalizedSchedule) (bool, error)
}

type ConfirmFunc func(ctx context.Context, n NormalizedSchedule) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, n NormalizedSchedule) (bool, error) {
	return f(ctx, n)
}

// AutoConfirm confirma siempre; lo usa la API cuando el cliente ya mandó confirm=true.
var AutoConfirm Confirmer = ConfirmFunc(func(context.Context, NormalizedSchedule) (bool, error) {
	return true, nil
})

// SubmitInput es un envío del formulario. VaccineID vacío = alta.
type SubmitInput struct {
	FormKey   string
	VaccineID string
	Form      Form
	Actor     string
}

// SubmitResult siempre devuelve el Form recibido, también cuando falla.
type SubmitResult struct {
	State       State               `json:"state"`
	Trail       []State             `json:"trail"`
	Vaccine     *VaccineDefinition  `json:"-"`
	Normalized  *NormalizedSchedule `json:"normalized,omitempty"`
	Form        Form                `json:"form"`
	ResumeState State               `json:"resume_state,omitempty"`
	Err         error               `json:"-"`
}

// inflightGuard: como mucho un envío pendiente por clave de formulario.
type inflightGuard struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{pending: make(map[string]struct{})}
}

// acquire devuelve la función que libera la clave, o false si ya estaba tomada.
func (g *inflightGuard) acquire(key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.pending[key]; busy {
		return nil, false
	}
	g.pending[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.pending, key)
		g.mu.Unlock()
	}, true
}
