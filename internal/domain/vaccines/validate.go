package vaccines

import (
	"strings"
)

// NormalizeName es la clave de comparación de nombres: trim + minúsculas.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsDuplicate indica si candidate choca con algún registro existente.
// excludeID es el registro que se está editando (vacío en alta).
func IsDuplicate(candidate string, existing []VaccineDefinition, excludeID string) bool {
	return findDuplicate(candidate, existing, excludeID) != nil
}

func findDuplicate(candidate string, existing []VaccineDefinition, excludeID string) *VaccineDefinition {
	key := NormalizeName(candidate)
	if key == "" {
		return nil
	}
	for i := range existing {
		if excludeID != "" && existing[i].ID == excludeID {
			continue
		}
		if NormalizeName(existing[i].Name) == key {
			return &existing[i]
		}
	}
	return nil
}

// CheckStructure revisa el formulario contra el tipo nuevo antes de normalizar.
// previous es el tipo guardado (nil en alta). Cuando el tipo cambia, se exigen
// los campos del tipo nuevo; los del anterior se ignoran.
func CheckStructure(f Form, previous *Type) (NormalizedSchedule, error) {
	typ, ok := ParseType(f.Type)
	if !ok {
		return Normalize(f)
	}

	if previous != nil && *previous != typ {
		var errs ValidationErrors
		switch typ {
		case TypePrimary, TypeConditional:
			if strings.TrimSpace(f.AgeGroupID) == "" {
				errs.add("age_group_id", "required when changing type to "+string(typ))
			}
		case TypeRoutine:
			if f.RoutineFrequency == nil {
				errs.add("routine_frequency", "required when changing type to routine")
			}
		default:
			errs.add("type", "unsupported type")
		}
		if len(errs) > 0 {
			return NormalizedSchedule{}, errs
		}
	}

	return Normalize(f)
}
