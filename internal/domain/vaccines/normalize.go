package vaccines

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Form es el input del formulario tal como llega del cliente.
type Form struct {
	Name       string `json:"vaccine_name"`
	Type       string `json:"type"`
	DoseCount  *int   `json:"no_of_doses,omitempty"`
	AgeGroupID string `json:"age_group_id"`

	// Intervals[i] es la espera antes de la dosis i+2. nil = todavía sin completar.
	Intervals []*float64 `json:"intervals"`
	// TimeUnits[i] acompaña a Intervals[i]; vacío = months.
	TimeUnits []TimeUnit `json:"time_units"`

	RoutineFrequency *Interval `json:"routine_frequency,omitempty"`
}

// Normalize valida el formulario y lo convierte al esquema de su tipo.
// Devuelve ValidationErrors con todos los problemas encontrados.
//
// Para primary las listas de intervalos y unidades deben traer exactamente
// doseCount-1 entradas: nunca se inventan intervalos. El recorte tras un cambio
// de tipo o de dosis lo hace Form.Reconcile.
func Normalize(f Form) (NormalizedSchedule, error) {
	var errs ValidationErrors

	name := strings.TrimSpace(f.Name)
	if name == "" {
		errs.add("vaccine_name", "required")
	}
	ageGroupID := strings.TrimSpace(f.AgeGroupID)

	typ, ok := ParseType(f.Type)
	if !ok {
		if strings.TrimSpace(f.Type) == "" {
			errs.add("type", "required")
		} else {
			errs.add("type", "must be one of routine, primary, conditional")
		}
		return NormalizedSchedule{}, errs
	}

	var sched Schedule
	switch typ {
	case TypeRoutine:
		sched = normalizeRoutine(f.RoutineFrequency, &errs)
	case TypePrimary:
		requireAgeGroup(ageGroupID, &errs)
		sched = normalizePrimary(f, &errs)
	case TypeConditional:
		requireAgeGroup(ageGroupID, &errs)
		sched = ConditionalSchedule{}
	default:
		errs.add("type", "unsupported type")
	}

	if len(errs) > 0 {
		return NormalizedSchedule{}, errs
	}
	return NormalizedSchedule{
		Name:       name,
		AgeGroupID: ageGroupID,
		Schedule:   sched,
	}, nil
}

func requireAgeGroup(id string, errs *ValidationErrors) {
	if id == "" {
		errs.add("age_group_id", "required")
	}
}

// normalizeRoutine: la cantidad de dosis se fuerza a 1 y las listas de intervalos se descartan.
func normalizeRoutine(in *Interval, errs *ValidationErrors) Schedule {
	freq := Interval{Value: 1, Unit: UnitYears}
	if in != nil {
		if !isFinite(in.Value) || in.Value <= 0 {
			errs.add("routine_frequency.interval", "must be a positive number")
		}
		unit, ok := unitOrDefault(in.Unit, UnitYears)
		if !ok {
			errs.add("routine_frequency.unit", "must be one of days, weeks, months, years")
		}
		freq = Interval{Value: in.Value, Unit: unit}
	}
	return RoutineSchedule{Frequency: RoutineFrequency{Interval: freq}}
}

func normalizePrimary(f Form, errs *ValidationErrors) Schedule {
	if f.DoseCount == nil {
		errs.add("no_of_doses", "required")
		return nil
	}
	n := *f.DoseCount
	if n < 1 {
		errs.add("no_of_doses", "must be a positive integer")
		return nil
	}

	want := n - 1
	mismatch := false
	if len(f.Intervals) != want {
		errs.add("intervals", fmt.Sprintf("expected %d entries for %d doses, got %d", want, n, len(f.Intervals)))
		mismatch = true
	}
	if len(f.TimeUnits) != want {
		errs.add("time_units", fmt.Sprintf("expected %d entries for %d doses, got %d", want, n, len(f.TimeUnits)))
		mismatch = true
	}
	if mismatch {
		return nil
	}

	out := make([]DoseInterval, 0, want)
	for i := 0; i < want; i++ {
		v := f.Intervals[i]
		field := fmt.Sprintf("intervals[%d]", i)
		switch {
		case v == nil:
			errs.add(field, "required")
		case !isFinite(*v):
			errs.add(field, "must be a finite number")
		case *v < 0:
			errs.add(field, "must be non-negative")
		}

		unit, ok := unitOrDefault(f.TimeUnits[i], UnitMonths)
		if !ok {
			errs.add(fmt.Sprintf("time_units[%d]", i), "must be one of days, weeks, months, years")
		}

		var value float64
		if v != nil {
			value = *v
		}
		out = append(out, DoseInterval{
			DoseNumber: i + 2,
			Interval:   Interval{Value: value, Unit: unit},
		})
	}
	return PrimarySchedule{Doses: n, Intervals: out}
}

func unitOrDefault(u TimeUnit, def TimeUnit) (TimeUnit, bool) {
	if strings.TrimSpace(string(u)) == "" {
		return def, true
	}
	return ParseTimeUnit(string(u))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormStatus es el estado derivado del formulario; se recalcula explícitamente
// en cada cambio (Reconcile), no hay suscripciones.
type FormStatus struct {
	Type              Type             `json:"type,omitempty"`
	DoseCount         int              `json:"no_of_doses"`
	RequiredIntervals int              `json:"required_intervals"`
	MissingIntervals  []int            `json:"missing_intervals"` // números de dosis sin intervalo
	CanSubmit         bool             `json:"can_submit"`
	Errors            ValidationErrors `json:"errors,omitempty"`
}

// Reconcile aplica un cambio del formulario: recorta intervalos/unidades al largo que exige
// el tipo y la cantidad de dosis actuales (nunca agrega valores) y recalcula el estado.
func (f Form) Reconcile() (Form, FormStatus) {
	out := f
	typ, typeOK := ParseType(f.Type)

	required := 0
	doses := 0
	// sin tipo, o primary sin cantidad de dosis válida (p.ej. mientras se corrige): no se recorta nada
	keep := !typeOK
	if typeOK {
		switch typ {
		case TypeRoutine:
			doses = 1
		case TypeConditional:
			doses = 0
		case TypePrimary:
			if f.DoseCount != nil && *f.DoseCount > 0 {
				doses = *f.DoseCount
				required = doses - 1
			} else {
				keep = true
			}
		}
	}

	if keep {
		out.Intervals = slices.Clone(f.Intervals)
		out.TimeUnits = slices.Clone(f.TimeUnits)
	} else {
		out.Intervals = truncate(f.Intervals, required)
		out.TimeUnits = truncate(f.TimeUnits, required)
	}
	if typeOK && typ != TypePrimary {
		n := doses
		out.DoseCount = &n
	}

	st := FormStatus{
		Type:              typ,
		DoseCount:         doses,
		RequiredIntervals: required,
		MissingIntervals:  []int{},
	}
	for i := 0; i < required; i++ {
		if i >= len(out.Intervals) || out.Intervals[i] == nil {
			st.MissingIntervals = append(st.MissingIntervals, i+2)
		}
	}

	if _, err := Normalize(out); err != nil {
		if verrs, ok := err.(ValidationErrors); ok {
			st.Errors = verrs
		}
	} else {
		st.CanSubmit = true
	}
	return out, st
}

func truncate[T any](s []T, n int) []T {
	if len(s) <= n {
		return slices.Clone(s)
	}
	return slices.Clone(s[:n])
}
