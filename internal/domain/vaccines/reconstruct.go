package vaccines

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"health-inventory/internal/domain/agegroups"
)

// DoseCount es un entero opcional. Reemplaza al "N/A" que usaban los registros
// viejos: al leer se acepta número, string numérico, "N/A" o null; al escribir,
// "no aplica" sale como null.
// maxDoseCount acota lo que se acepta al leer registros; ningún esquema real se acerca.
const maxDoseCount = 1000

type DoseCount struct {
	Value int
	Valid bool
}

func Doses(n int) DoseCount { return DoseCount{Value: n, Valid: true} }

func NotApplicable() DoseCount { return DoseCount{} }

func (d DoseCount) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(d.Value)), nil
}

func (d *DoseCount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = NotApplicable()
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "N/A") {
			*d = NotApplicable()
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > maxDoseCount {
			return fmt.Errorf("no_of_doses: invalid value %q", s)
		}
		*d = Doses(n)
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("no_of_doses: %w", err)
	}
	if f != math.Trunc(f) || f < 0 || f > maxDoseCount {
		return fmt.Errorf("no_of_doses: invalid value %s", b)
	}
	*d = Doses(int(f))
	return nil
}

// LegacyID acepta ids como string o número (agegrp_id llegaba de las dos formas).
type LegacyID = agegroups.FlexID

type AgeGroupRef struct {
	ID   LegacyID `json:"id"`
	Name string   `json:"name,omitempty"`
}

type DoseDetail struct {
	DoseNumber int      `json:"dose_number"`
	Interval   *float64 `json:"interval"`
	Unit       TimeUnit `json:"time_unit,omitempty"`
}

// PersistedRecord es la forma que expone (y aceptaba históricamente) la API REST.
// Puede traer la relación age_group o el id plano agegrp_id.
type PersistedRecord struct {
	ID          string       `json:"id"`
	VaccineName string       `json:"vac_name"`
	VacType     string       `json:"vac_type"`
	NoOfDoses   DoseCount    `json:"no_of_doses"`
	AgeGroupID  LegacyID     `json:"agegrp_id,omitempty"`
	AgeGroup    *AgeGroupRef `json:"age_group,omitempty"`
	DoseDetails []DoseDetail `json:"dose_details"`
	CreatedAt   *time.Time   `json:"created_at,omitempty"`
	UpdatedAt   *time.Time   `json:"updated_at,omitempty"`
}

// AgeGroupRefID prioriza la relación sobre el id plano.
func (r PersistedRecord) AgeGroupRefID() string {
	if r.AgeGroup != nil && strings.TrimSpace(string(r.AgeGroup.ID)) != "" {
		return strings.TrimSpace(string(r.AgeGroup.ID))
	}
	return strings.TrimSpace(string(r.AgeGroupID))
}

// EditableForm es el formulario reconstruido para modo edición.
type EditableForm struct {
	VaccineName      string            `json:"vaccine_name"`
	NoOfDoses        int               `json:"no_of_doses"`
	Type             Type              `json:"type"`
	Intervals        []float64         `json:"intervals"`
	TimeUnits        []TimeUnit        `json:"time_units"`
	RoutineFrequency *Interval         `json:"routine_frequency,omitempty"`
	AgeGroup         *agegroups.Option `json:"age_group"`
}

// Form convierte el formulario reconstruido al input que acepta Normalize.
func (e EditableForm) Form() Form {
	doses := e.NoOfDoses
	f := Form{
		Name:      e.VaccineName,
		Type:      string(e.Type),
		DoseCount: &doses,
		TimeUnits: slices.Clone(e.TimeUnits),
	}
	if e.AgeGroup != nil {
		f.AgeGroupID = e.AgeGroup.ID
	}
	f.Intervals = make([]*float64, 0, len(e.Intervals))
	for _, v := range e.Intervals {
		f.Intervals = append(f.Intervals, &v)
	}
	if e.RoutineFrequency != nil {
		rf := *e.RoutineFrequency
		f.RoutineFrequency = &rf
	}
	return f
}

// typeFromLabel: "Routine" y "Conditional" se reconocen; cualquier otro valor es primary.
func typeFromLabel(label string) Type {
	switch {
	case strings.EqualFold(strings.TrimSpace(label), TypeRoutine.Label()):
		return TypeRoutine
	case strings.EqualFold(strings.TrimSpace(label), TypeConditional.Label()):
		return TypeConditional
	default:
		return TypePrimary
	}
}

// Reconstruct arma el formulario editable desde un registro persistido.
// Es pura: solo usa el registro y la tabla de grupos etarios que recibe.
// Si el grupo etario no se puede resolver, AgeGroup queda nil y se devuelve un warning;
// nunca se conserva la referencia colgada.
func Reconstruct(rec PersistedRecord, lookup agegroups.Lookup) (EditableForm, []InconsistentStateWarning) {
	var warnings []InconsistentStateWarning

	typ := typeFromLabel(rec.VacType)

	doses := rec.NoOfDoses.Value
	if !rec.NoOfDoses.Valid {
		doses = 1
		if typ == TypeConditional {
			doses = 0
		}
	}

	later := make([]DoseDetail, 0, len(rec.DoseDetails))
	for _, d := range rec.DoseDetails {
		if d.DoseNumber > 1 {
			later = append(later, d)
		}
	}
	sort.SliceStable(later, func(i, j int) bool {
		return later[i].DoseNumber < later[j].DoseNumber
	})

	form := EditableForm{
		VaccineName: rec.VaccineName,
		NoOfDoses:   doses,
		Type:        typ,
		Intervals:   make([]float64, 0, len(later)),
		TimeUnits:   make([]TimeUnit, 0, len(later)),
	}
	for i, d := range later {
		var v float64
		if d.Interval != nil {
			v = *d.Interval
		}
		unit, ok := unitOrDefault(d.Unit, UnitMonths)
		if !ok {
			warnings = append(warnings, InconsistentStateWarning{
				Field:     fmt.Sprintf("time_units[%d]", i),
				Reference: string(d.Unit),
				Reason:    "unknown time unit, using months",
			})
			unit = UnitMonths
		}
		form.Intervals = append(form.Intervals, v)
		form.TimeUnits = append(form.TimeUnits, unit)
	}

	if typ == TypeRoutine {
		freq := Interval{Value: 1, Unit: UnitYears}
		if len(rec.DoseDetails) > 0 {
			first := rec.DoseDetails[0]
			if first.Interval != nil {
				freq.Value = *first.Interval
			}
			if unit, ok := unitOrDefault(first.Unit, UnitYears); ok {
				freq.Unit = unit
			}
		}
		form.RoutineFrequency = &freq
	}

	if ref := rec.AgeGroupRefID(); ref != "" {
		if opt, ok := lookup.Find(ref); ok {
			form.AgeGroup = &opt
		} else {
			warnings = append(warnings, InconsistentStateWarning{
				Field:     "age_group",
				Reference: ref,
				Reason:    "age group not resolvable",
			})
		}
	}

	return form, warnings
}

// Persist proyecta una definición a la forma REST. Es la inversa de Reconstruct:
// primary -> dose_details 2..n, routine -> dose_details[0] con la frecuencia,
// conditional -> sin detalles y no_of_doses "no aplica".
func Persist(def VaccineDefinition, lookup agegroups.Lookup) PersistedRecord {
	rec := PersistedRecord{
		ID:          def.ID,
		VaccineName: def.Name,
		VacType:     def.Type().Label(),
		AgeGroupID:  LegacyID(def.AgeGroupID),
		DoseDetails: []DoseDetail{},
	}
	if !def.CreatedAt.IsZero() {
		t := def.CreatedAt
		rec.CreatedAt = &t
	}
	if !def.UpdatedAt.IsZero() {
		t := def.UpdatedAt
		rec.UpdatedAt = &t
	}
	if def.AgeGroupID != "" {
		ref := &AgeGroupRef{ID: LegacyID(def.AgeGroupID)}
		if opt, ok := lookup.Find(def.AgeGroupID); ok {
			ref.Name = opt.Name
		}
		rec.AgeGroup = ref
	}

	switch s := def.Schedule.(type) {
	case RoutineSchedule:
		rec.NoOfDoses = Doses(1)
		v := s.Frequency.Value
		rec.DoseDetails = append(rec.DoseDetails, DoseDetail{
			DoseNumber: 1,
			Interval:   &v,
			Unit:       s.Frequency.Unit,
		})
	case PrimarySchedule:
		rec.NoOfDoses = Doses(s.Doses)
		for _, di := range s.Intervals {
			v := di.Value
			rec.DoseDetails = append(rec.DoseDetails, DoseDetail{
				DoseNumber: di.DoseNumber,
				Interval:   &v,
				Unit:       di.Unit,
			})
		}
	case ConditionalSchedule:
		rec.NoOfDoses = NotApplicable()
	}
	return rec
}
