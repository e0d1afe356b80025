package vaccines

import (
	"context"
	"errors"
	"strings"
	"time"

	"health-inventory/internal/domain/agegroups"
	"health-inventory/internal/platform/logger"

	"github.com/google/uuid"
)

// SubmissionObserver recibe el estado final de cada envío (métricas).
type SubmissionObserver interface {
	ObserveSubmission(state string)
}

type Service struct {
	repo      Repository
	ageGroups agegroups.Source
	log       logger.Logger
	observer  SubmissionObserver
	guard     *inflightGuard
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o SubmissionObserver) Option {
	return func(s *Service) { s.observer = o }
}

func NewService(repo Repository, ageGroups agegroups.Source, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		ageGroups: ageGroups,
		log:       logger.NewNop(),
		guard:     newInflightGuard(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(map[string]any{"module": "vaccines"})
	return s
}

func (s *Service) List(ctx context.Context) ([]VaccineDefinition, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (VaccineDefinition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return VaccineDefinition{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Records lista en la forma REST. Si el directorio de grupos etarios no responde,
// los registros salen sin nombre de grupo.
func (s *Service) Records(ctx context.Context) ([]PersistedRecord, error) {
	defs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	lookup := s.bestEffortLookup(ctx)

	out := make([]PersistedRecord, 0, len(defs))
	for _, d := range defs {
		out = append(out, Persist(d, lookup))
	}
	return out, nil
}

func (s *Service) Record(ctx context.Context, id string) (PersistedRecord, error) {
	def, err := s.Get(ctx, id)
	if err != nil {
		return PersistedRecord{}, err
	}
	return Persist(def, s.bestEffortLookup(ctx)), nil
}

// EditForm carga la definición y reconstruye el formulario de edición.
func (s *Service) EditForm(ctx context.Context, id string) (EditableForm, []InconsistentStateWarning, error) {
	def, err := s.Get(ctx, id)
	if err != nil {
		return EditableForm{}, nil, err
	}
	lookup, err := s.lookup(ctx)
	if err != nil {
		return EditableForm{}, nil, err
	}
	form, warnings := Reconstruct(Persist(def, lookup), lookup)
	s.logWarnings(def.ID, warnings)
	return form, warnings, nil
}

// ReconstructRecord arma el formulario desde un registro en formato REST (importaciones viejas).
func (s *Service) ReconstructRecord(ctx context.Context, rec PersistedRecord) (EditableForm, []InconsistentStateWarning, error) {
	lookup, err := s.lookup(ctx)
	if err != nil {
		return EditableForm{}, nil, err
	}
	form, warnings := Reconstruct(rec, lookup)
	s.logWarnings(rec.ID, warnings)
	return form, warnings, nil
}

// Preview corre la validación estructural y la de duplicados sin escribir.
// Si pasa, el resultado queda en confirming.
func (s *Service) Preview(ctx context.Context, in SubmitInput) SubmitResult {
	sub := NewSubmission()
	res := SubmitResult{Form: in.Form}
	s.validate(ctx, sub, in, &res)
	res.Trail = sub.Trail()
	return res
}

// Submit recorre el flujo completo: estructura, duplicados, confirmación y escritura.
// Nunca pierde el input: res.Form es siempre el formulario recibido.
func (s *Service) Submit(ctx context.Context, in SubmitInput, confirm Confirmer) (res SubmitResult) {
	res = SubmitResult{Form: in.Form}

	key := formKey(in)
	release, ok := s.guard.acquire(key)
	if !ok {
		res.State = StateEditing
		res.Trail = []State{StateEditing}
		res.Err = ErrSubmissionInFlight
		return res
	}
	defer release()

	sub := NewSubmission()
	defer func() {
		res.Trail = sub.Trail()
		s.finish(key, in, &res)
	}()

	prev, ok := s.validate(ctx, sub, in, &res)
	if !ok {
		return res
	}
	n := *res.Normalized

	if confirm == nil {
		confirm = AutoConfirm
	}
	accepted, err := confirm.Confirm(ctx, n)
	if err == nil && ctx.Err() != nil {
		err = ErrSubmissionAbandoned
	}
	if err != nil || !accepted {
		s.move(sub, &res, StateCancelled)
		if err != nil {
			res.Err = abandoned(err)
		}
		return res
	}

	s.move(sub, &res, StatePersisting)
	now := s.now()

	var saved VaccineDefinition
	if prev == nil {
		saved, err = s.repo.Create(ctx, VaccineDefinition{
			ID:         s.newID(),
			Name:       n.Name,
			AgeGroupID: n.AgeGroupID,
			Schedule:   n.Schedule,
			CreatedBy:  strings.TrimSpace(in.Actor),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	} else {
		next := *prev
		next.Name = n.Name
		next.AgeGroupID = n.AgeGroupID
		next.Schedule = n.Schedule
		next.UpdatedAt = now
		saved, err = s.repo.Update(ctx, next, prev.Type())
	}

	switch {
	case err == nil:
		s.move(sub, &res, StateCommitted)
		res.Vaccine = &saved
	case errors.Is(err, ErrDuplicateName):
		s.move(sub, &res, StateRejectedDuplicate)
		res.Err = &DuplicateError{Name: n.Name}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.move(sub, &res, StateCancelled)
		res.Err = abandoned(err)
	default:
		s.failTransport(sub, &res, "persist vaccine", err)
	}
	return res
}

// validate cubre editing -> validating_structure -> validating_duplicate -> confirming.
// Devuelve la definición previa (nil en alta) y si se llegó a confirming.
func (s *Service) validate(ctx context.Context, sub *Submission, in SubmitInput, res *SubmitResult) (*VaccineDefinition, bool) {
	s.move(sub, res, StateValidatingStructure)

	var prev *VaccineDefinition
	var prevType *Type
	if id := strings.TrimSpace(in.VaccineID); id != "" {
		def, err := s.repo.GetByID(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			s.move(sub, res, StateRejectedStructure)
			res.Err = ErrNotFound
			return nil, false
		case err != nil:
			s.failTransport(sub, res, "load vaccine", err)
			return nil, false
		}
		prev = &def
		t := def.Type()
		prevType = &t
	}

	n, err := CheckStructure(in.Form, prevType)
	if err != nil {
		s.move(sub, res, StateRejectedStructure)
		res.Err = err
		return nil, false
	}
	res.Normalized = &n

	s.move(sub, res, StateValidatingDuplicate)
	existing, err := s.repo.List(ctx)
	if err != nil {
		s.failTransport(sub, res, "list vaccines", err)
		return nil, false
	}
	excludeID := ""
	if prev != nil {
		excludeID = prev.ID
	}
	if dup := findDuplicate(n.Name, existing, excludeID); dup != nil {
		s.move(sub, res, StateRejectedDuplicate)
		res.Err = &DuplicateError{Name: n.Name, ConflictID: dup.ID}
		return nil, false
	}

	s.move(sub, res, StateConfirming)
	return prev, true
}

func (s *Service) move(sub *Submission, res *SubmitResult, to State) {
	if err := sub.advance(to); err != nil {
		// no debería pasar: las transiciones están fijas en este archivo
		s.log.Error("submission state", map[string]any{"error": err})
	}
	res.State = sub.State()
}

func (s *Service) failTransport(sub *Submission, res *SubmitResult, op string, err error) {
	s.move(sub, res, StateFailedTransport)
	res.Err = &TransportError{Op: op, Err: err}
	res.ResumeState = StateEditing
}

func (s *Service) finish(key string, in SubmitInput, res *SubmitResult) {
	if s.observer != nil && res.State.Terminal() {
		s.observer.ObserveSubmission(string(res.State))
	}

	fields := map[string]any{
		"form_key": key,
		"state":    string(res.State),
		"actor":    in.Actor,
	}
	if res.Vaccine != nil {
		fields["vaccine_id"] = res.Vaccine.ID
	}
	if res.Err != nil {
		fields["error"] = res.Err
	}

	switch res.State {
	case StateFailedTransport:
		s.log.Warn("vaccine submission failed", fields)
	case StateCommitted:
		s.log.Info("vaccine submission committed", fields)
	default:
		s.log.Debug("vaccine submission finished", fields)
	}
}

// Delete borra la definición y todas sus filas de esquema.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("vaccine deleted", map[string]any{"vaccine_id": id})
	return nil
}

func (s *Service) lookup(ctx context.Context) (agegroups.Lookup, error) {
	if s.ageGroups == nil {
		return agegroups.Lookup{}, nil
	}
	dir, err := s.ageGroups.FetchAgeGroups(ctx)
	if err != nil {
		return nil, &TransportError{Op: "fetch age groups", Err: err}
	}
	return dir.Lookup(), nil
}

func (s *Service) bestEffortLookup(ctx context.Context) agegroups.Lookup {
	lookup, err := s.lookup(ctx)
	if err != nil {
		s.log.Warn("age group directory unavailable", map[string]any{"error": err})
		return nil
	}
	return lookup
}

func (s *Service) logWarnings(id string, warnings []InconsistentStateWarning) {
	for _, w := range warnings {
		s.log.Warn("inconsistent vaccine record", map[string]any{
			"vaccine_id": id,
			"field":      w.Field,
			"reference":  w.Reference,
			"reason":     w.Reason,
		})
	}
}

func formKey(in SubmitInput) string {
	if k := strings.TrimSpace(in.FormKey); k != "" {
		return k
	}
	if id := strings.TrimSpace(in.VaccineID); id != "" {
		return "update:" + id
	}
	return "create:" + strings.TrimSpace(in.Actor)
}

func abandoned(err error) error {
	if errors.Is(err, ErrSubmissionAbandoned) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrSubmissionAbandoned, err)
	}
	return err
}
