package vaccines

import (
	"encoding/json"
	"strings"
	"time"
)

// Type define cómo se agenda la vacuna.
// @Enum routine, primary, conditional
type Type string

const (
	TypeRoutine     Type = "routine"
	TypePrimary     Type = "primary"
	TypeConditional Type = "conditional"
)

func ParseType(s string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeRoutine:
		return TypeRoutine, true
	case TypePrimary:
		return TypePrimary, true
	case TypeConditional:
		return TypeConditional, true
	default:
		return "", false
	}
}

// Label es el valor que se guarda en vac_type.
func (t Type) Label() string {
	switch t {
	case TypeRoutine:
		return "Routine"
	case TypeConditional:
		return "Conditional"
	default:
		return "Primary"
	}
}

// TimeUnit es la unidad de un intervalo. El valor vacío significa "omitido".
// @Enum days, weeks, months, years
type TimeUnit string

const (
	UnitDays   TimeUnit = "days"
	UnitWeeks  TimeUnit = "weeks"
	UnitMonths TimeUnit = "months"
	UnitYears  TimeUnit = "years"
)

func ParseTimeUnit(s string) (TimeUnit, bool) {
	switch TimeUnit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitDays:
		return UnitDays, true
	case UnitWeeks:
		return UnitWeeks, true
	case UnitMonths:
		return UnitMonths, true
	case UnitYears:
		return UnitYears, true
	default:
		return "", false
	}
}

type Interval struct {
	Value float64  `json:"interval"`
	Unit  TimeUnit `json:"unit"`
}

// DoseInterval es la espera antes de la dosis DoseNumber (>= 2) en una serie primaria.
type DoseInterval struct {
	DoseNumber int `json:"dose_number"`
	Interval
}

// RoutineFrequency: "repetir cada N unidades". La dosis 1 es implícita.
type RoutineFrequency struct {
	Interval
}

// ConditionalMarker solo marca presencia: la vacuna se aplica por evento, no por calendario.
type ConditionalMarker struct{}

// Schedule es la unión etiquetada de los tres esquemas posibles.
// El método schedule() la cierra: no hay implementaciones fuera del paquete.
type Schedule interface {
	Type() Type
	DoseCount() int
	schedule()
}

type RoutineSchedule struct {
	Frequency RoutineFrequency
}

func (RoutineSchedule) Type() Type     { return TypeRoutine }
func (RoutineSchedule) DoseCount() int { return 1 }
func (RoutineSchedule) schedule()      {}

type PrimarySchedule struct {
	Doses     int
	Intervals []DoseInterval // dosis 2..Doses, ordenadas
}

func (PrimarySchedule) Type() Type       { return TypePrimary }
func (p PrimarySchedule) DoseCount() int { return p.Doses }
func (PrimarySchedule) schedule()        {}

type ConditionalSchedule struct {
	Marker ConditionalMarker
}

func (ConditionalSchedule) Type() Type     { return TypeConditional }
func (ConditionalSchedule) DoseCount() int { return 0 }
func (ConditionalSchedule) schedule()      {}

// NormalizedSchedule es la salida del normalizador, lista para persistir.
type NormalizedSchedule struct {
	Name       string
	AgeGroupID string
	Schedule   Schedule
}

func (n NormalizedSchedule) Type() Type {
	if n.Schedule == nil {
		return ""
	}
	return n.Schedule.Type()
}

func (n NormalizedSchedule) DoseCount() int {
	if n.Schedule == nil {
		return 0
	}
	return n.Schedule.DoseCount()
}

// MarshalJSON emite solo los campos de la variante activa.
func (n NormalizedSchedule) MarshalJSON() ([]byte, error) {
	v := scheduleView{
		Name:       n.Name,
		AgeGroupID: n.AgeGroupID,
		Type:       n.Type(),
		DoseCount:  n.DoseCount(),
	}
	switch s := n.Schedule.(type) {
	case RoutineSchedule:
		f := s.Frequency.Interval
		v.RoutineFrequency = &f
	case PrimarySchedule:
		ivs := s.Intervals
		if ivs == nil {
			ivs = []DoseInterval{}
		}
		// puntero: primary con una sola dosis igual emite "dose_intervals": []
		v.DoseIntervals = &ivs
	case ConditionalSchedule:
		m := s.Marker
		v.Conditional = &m
	}
	return json.Marshal(v)
}

type scheduleView struct {
	Name             string             `json:"vaccine_name"`
	AgeGroupID       string             `json:"age_group_id,omitempty"`
	Type             Type               `json:"type"`
	DoseCount        int                `json:"no_of_doses"`
	RoutineFrequency *Interval          `json:"routine_frequency,omitempty"`
	DoseIntervals    *[]DoseInterval    `json:"dose_intervals,omitempty"`
	Conditional      *ConditionalMarker `json:"conditional,omitempty"`
}

// VaccineDefinition es la entidad persistida.
type VaccineDefinition struct {
	ID         string
	Name       string
	AgeGroupID string

	Schedule Schedule

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v VaccineDefinition) Type() Type {
	if v.Schedule == nil {
		return ""
	}
	return v.Schedule.Type()
}

func (v VaccineDefinition) DoseCount() int {
	if v.Schedule == nil {
		return 0
	}
	return v.Schedule.DoseCount()
}
