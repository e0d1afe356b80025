package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"health-inventory/internal/domain/vaccines"
)

// vaccineRepo guarda el esquema en mapas separados, igual que las tablas SQL,
// para que un cambio de tipo tenga que borrar las filas del tipo anterior.
type vaccineRepo struct {
	mu   sync.RWMutex
	byID map[string]vaccines.VaccineDefinition

	intervals   map[string][]vaccines.DoseInterval
	routine     map[string]vaccines.RoutineFrequency
	conditional map[string]vaccines.ConditionalMarker
}

func NewVaccineRepo() vaccines.Repository {
	return newVaccineRepo()
}

func newVaccineRepo() *vaccineRepo {
	return &vaccineRepo{
		byID:        make(map[string]vaccines.VaccineDefinition),
		intervals:   make(map[string][]vaccines.DoseInterval),
		routine:     make(map[string]vaccines.RoutineFrequency),
		conditional: make(map[string]vaccines.ConditionalMarker),
	}
}

func (r *vaccineRepo) List(ctx context.Context) ([]vaccines.VaccineDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vaccines.VaccineDefinition, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, r.load(id))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (r *vaccineRepo) GetByID(ctx context.Context, id string) (vaccines.VaccineDefinition, error) {
	if err := ctx.Err(); err != nil {
		return vaccines.VaccineDefinition{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.byID[id]; !ok {
		return vaccines.VaccineDefinition{}, vaccines.ErrNotFound
	}
	return r.load(id), nil
}

func (r *vaccineRepo) Create(ctx context.Context, v vaccines.VaccineDefinition) (vaccines.VaccineDefinition, error) {
	if err := ctx.Err(); err != nil {
		return vaccines.VaccineDefinition{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID == "" {
		return vaccines.VaccineDefinition{}, errors.New("vaccine id required")
	}
	if _, exists := r.byID[v.ID]; exists {
		return vaccines.VaccineDefinition{}, errors.New("vaccine already exists")
	}
	if r.nameTaken(v.Name, v.ID) {
		return vaccines.VaccineDefinition{}, vaccines.ErrDuplicateName
	}

	r.store(v)
	return r.load(v.ID), nil
}

func (r *vaccineRepo) Update(ctx context.Context, v vaccines.VaccineDefinition, previous vaccines.Type) (vaccines.VaccineDefinition, error) {
	if err := ctx.Err(); err != nil {
		return vaccines.VaccineDefinition{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[v.ID]; !ok {
		return vaccines.VaccineDefinition{}, vaccines.ErrNotFound
	}
	if r.nameTaken(v.Name, v.ID) {
		return vaccines.VaccineDefinition{}, vaccines.ErrDuplicateName
	}

	// filas del tipo anterior primero; después cualquier resto de otro tipo
	r.dropSchedule(v.ID, previous)
	for _, t := range []vaccines.Type{vaccines.TypeRoutine, vaccines.TypePrimary, vaccines.TypeConditional} {
		r.dropSchedule(v.ID, t)
	}

	r.store(v)
	return r.load(v.ID), nil
}

func (r *vaccineRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return vaccines.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.intervals, id)
	delete(r.routine, id)
	delete(r.conditional, id)
	return nil
}

func (r *vaccineRepo) nameTaken(name, exceptID string) bool {
	key := vaccines.NormalizeName(name)
	for id, v := range r.byID {
		if id != exceptID && vaccines.NormalizeName(v.Name) == key {
			return true
		}
	}
	return false
}

func (r *vaccineRepo) dropSchedule(id string, t vaccines.Type) {
	switch t {
	case vaccines.TypeRoutine:
		delete(r.routine, id)
	case vaccines.TypePrimary:
		delete(r.intervals, id)
	case vaccines.TypeConditional:
		delete(r.conditional, id)
	}
}

func (r *vaccineRepo) store(v vaccines.VaccineDefinition) {
	row := v
	row.Schedule = nil
	r.byID[v.ID] = row

	switch s := v.Schedule.(type) {
	case vaccines.RoutineSchedule:
		r.routine[v.ID] = s.Frequency
	case vaccines.PrimarySchedule:
		r.intervals[v.ID] = append([]vaccines.DoseInterval{}, s.Intervals...)
		// la cantidad de dosis vive en la fila principal
		row.Schedule = vaccines.PrimarySchedule{Doses: s.Doses}
		r.byID[v.ID] = row
	case vaccines.ConditionalSchedule:
		r.conditional[v.ID] = s.Marker
	}
}

// load arma la definición desde las filas guardadas.
func (r *vaccineRepo) load(id string) vaccines.VaccineDefinition {
	v := r.byID[id]

	if p, ok := v.Schedule.(vaccines.PrimarySchedule); ok {
		p.Intervals = append([]vaccines.DoseInterval{}, r.intervals[id]...)
		v.Schedule = p
		return v
	}
	if f, ok := r.routine[id]; ok {
		v.Schedule = vaccines.RoutineSchedule{Frequency: f}
		return v
	}
	if m, ok := r.conditional[id]; ok {
		v.Schedule = vaccines.ConditionalSchedule{Marker: m}
		return v
	}
	return v
}
