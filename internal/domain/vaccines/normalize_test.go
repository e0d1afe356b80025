package vaccines

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func floats(vs ...float64) []*float64 {
	out := make([]*float64, 0, len(vs))
	for _, v := range vs {
		out = append(out, &v)
	}
	return out
}

func TestNormalize_PrimaryBuildsOrderedIntervals(t *testing.T) {
	n, err := Normalize(Form{
		Name:       "  Hepatitis B ",
		Type:       "Primary",
		DoseCount:  intPtr(3),
		AgeGroupID: "2",
		Intervals:  floats(1, 6),
		TimeUnits:  []TimeUnit{"", UnitMonths},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hepatitis B", n.Name)
	assert.Equal(t, TypePrimary, n.Type())
	assert.Equal(t, 3, n.DoseCount())

	p, ok := n.Schedule.(PrimarySchedule)
	require.True(t, ok)
	assert.Equal(t, []DoseInterval{
		{DoseNumber: 2, Interval: Interval{Value: 1, Unit: UnitMonths}},
		{DoseNumber: 3, Interval: Interval{Value: 6, Unit: UnitMonths}},
	}, p.Intervals)
}

func TestNormalize_PrimarySingleDoseHasNoIntervals(t *testing.T) {
	n, err := Normalize(Form{Name: "BCG", Type: "primary", DoseCount: intPtr(1), AgeGroupID: "1"})
	require.NoError(t, err)

	p := n.Schedule.(PrimarySchedule)
	assert.Empty(t, p.Intervals)
}

func TestNormalize_PrimaryRejectsWrongArrayLength(t *testing.T) {
	cases := []struct {
		name      string
		intervals []*float64
		units     []TimeUnit
		field     string
	}{
		{"too few intervals", floats(1), []TimeUnit{UnitMonths, UnitMonths}, "intervals"},
		{"too many intervals", floats(1, 2, 3), []TimeUnit{UnitMonths, UnitMonths}, "intervals"},
		{"too few units", floats(1, 2), []TimeUnit{UnitMonths}, "time_units"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(Form{
				Name:       "DTaP",
				Type:       "primary",
				DoseCount:  intPtr(3),
				AgeGroupID: "2",
				Intervals:  tc.intervals,
				TimeUnits:  tc.units,
			})
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.True(t, verrs.Has(tc.field), "errors: %v", verrs)
		})
	}
}

func TestNormalize_PrimaryFieldErrors(t *testing.T) {
	_, err := Normalize(Form{
		Name:      "DTaP",
		Type:      "primary",
		DoseCount: intPtr(3),
		Intervals: []*float64{nil, ptr(math.Inf(1))},
		TimeUnits: []TimeUnit{"fortnights", UnitDays},
	})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	assert.True(t, verrs.Has("age_group_id"))
	assert.True(t, verrs.Has("intervals[0]"))
	assert.True(t, verrs.Has("intervals[1]"))
	assert.True(t, verrs.Has("time_units[0]"))
	assert.False(t, verrs.Has("time_units[1]"))
}

func TestNormalize_PrimaryRequiresPositiveDoseCount(t *testing.T) {
	for _, dc := range []*int{nil, intPtr(0), intPtr(-2)} {
		_, err := Normalize(Form{Name: "X", Type: "primary", DoseCount: dc, AgeGroupID: "1"})
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.Has("no_of_doses"))
	}
}

func TestNormalize_RoutineForcesSingleDoseAndDropsArrays(t *testing.T) {
	n, err := Normalize(Form{
		Name:      "Influenza",
		Type:      "routine",
		DoseCount: intPtr(4),
		Intervals: floats(1, 2, 3),
		TimeUnits: []TimeUnit{UnitDays},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, n.DoseCount())
	r, ok := n.Schedule.(RoutineSchedule)
	require.True(t, ok)
	assert.Equal(t, Interval{Value: 1, Unit: UnitYears}, r.Frequency.Interval)
}

func TestNormalize_RoutineFrequency(t *testing.T) {
	n, err := Normalize(Form{Name: "Tetanus booster", Type: "routine", RoutineFrequency: &Interval{Value: 10}})
	require.NoError(t, err)
	assert.Equal(t, Interval{Value: 10, Unit: UnitYears}, n.Schedule.(RoutineSchedule).Frequency.Interval)

	_, err = Normalize(Form{Name: "Tetanus booster", Type: "routine", RoutineFrequency: &Interval{Value: 0, Unit: "decades"}})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("routine_frequency.interval"))
	assert.True(t, verrs.Has("routine_frequency.unit"))
}

func TestNormalize_ConditionalHasZeroDoses(t *testing.T) {
	n, err := Normalize(Form{Name: "Rabies", Type: "conditional", AgeGroupID: "4", DoseCount: intPtr(5)})
	require.NoError(t, err)

	assert.Equal(t, 0, n.DoseCount())
	_, ok := n.Schedule.(ConditionalSchedule)
	assert.True(t, ok)
}

func TestNormalize_RejectsMissingNameAndType(t *testing.T) {
	_, err := Normalize(Form{Name: "  "})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("vaccine_name"))
	assert.True(t, verrs.Has("type"))

	_, err = Normalize(Form{Name: "X", Type: "weekly"})
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("type"))
}

// Cada variante serializa solo sus propios campos.
func TestNormalizedSchedule_MarshalOnlyActiveVariant(t *testing.T) {
	cases := []struct {
		form    Form
		present string
		absent  []string
	}{
		{Form{Name: "A", Type: "routine"}, "routine_frequency", []string{"dose_intervals", "conditional"}},
		{Form{Name: "B", Type: "primary", DoseCount: intPtr(1), AgeGroupID: "1"}, "dose_intervals", []string{"routine_frequency", "conditional"}},
		{Form{Name: "C", Type: "conditional", AgeGroupID: "1"}, "conditional", []string{"routine_frequency", "dose_intervals"}},
	}
	for _, tc := range cases {
		n, err := Normalize(tc.form)
		require.NoError(t, err)

		b, err := json.Marshal(n)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		assert.Contains(t, m, tc.present)
		for _, k := range tc.absent {
			assert.NotContains(t, m, k)
		}
	}
}

func TestForm_ReconcileTruncatesWithoutInventing(t *testing.T) {
	f := Form{
		Name:       "DTaP",
		Type:       "primary",
		DoseCount:  intPtr(2),
		AgeGroupID: "2",
		Intervals:  floats(1, 2, 3),
		TimeUnits:  []TimeUnit{UnitMonths, UnitWeeks, UnitDays},
	}

	out, st := f.Reconcile()
	require.Len(t, out.Intervals, 1)
	assert.Equal(t, 1.0, *out.Intervals[0])
	assert.Equal(t, []TimeUnit{UnitMonths}, out.TimeUnits)
	assert.True(t, st.CanSubmit)
	assert.Empty(t, st.MissingIntervals)

	// el input no se modifica
	assert.Len(t, f.Intervals, 3)

	// subir la cantidad de dosis no agrega intervalos
	out.DoseCount = intPtr(4)
	out2, st2 := out.Reconcile()
	assert.Len(t, out2.Intervals, 1)
	assert.Equal(t, 3, st2.RequiredIntervals)
	assert.Equal(t, []int{3, 4}, st2.MissingIntervals)
	assert.False(t, st2.CanSubmit)
}

func TestForm_ReconcileTypeChangeClearsIntervals(t *testing.T) {
	f := Form{
		Name:      "Influenza",
		Type:      "routine",
		DoseCount: intPtr(3),
		Intervals: floats(1, 2),
		TimeUnits: []TimeUnit{UnitMonths, UnitMonths},
	}

	out, st := f.Reconcile()
	assert.Empty(t, out.Intervals)
	assert.Empty(t, out.TimeUnits)
	require.NotNil(t, out.DoseCount)
	assert.Equal(t, 1, *out.DoseCount)
	assert.Equal(t, 0, st.RequiredIntervals)
	assert.True(t, st.CanSubmit)
}

func ptr(v float64) *float64 { return &v }

// Bajar de 4 a 2 dosis: Reconcile recorta y el resultado normaliza con un solo intervalo.
func TestNormalize_AfterDoseCountDrop(t *testing.T) {
	f := Form{
		Name:       "IPV",
		Type:       "primary",
		DoseCount:  intPtr(4),
		AgeGroupID: "2",
		Intervals:  floats(4, 2, 1),
		TimeUnits:  []TimeUnit{UnitWeeks, UnitMonths, UnitMonths},
	}
	f.DoseCount = intPtr(2)

	_, err := Normalize(f)
	require.Error(t, err, "stale intervals are not accepted as-is")

	out, _ := f.Reconcile()
	n, err := Normalize(out)
	require.NoError(t, err)
	assert.Equal(t, []DoseInterval{
		{DoseNumber: 2, Interval: Interval{Value: 4, Unit: UnitWeeks}},
	}, n.Schedule.(PrimarySchedule).Intervals)
}

func TestNormalize_ConditionalWithoutDoseCount(t *testing.T) {
	n, err := Normalize(Form{Name: "OPV Booster", Type: "conditional", AgeGroupID: "3"})
	require.NoError(t, err)

	assert.Equal(t, NormalizedSchedule{
		Name:       "OPV Booster",
		AgeGroupID: "3",
		Schedule:   ConditionalSchedule{},
	}, n)
	assert.Equal(t, 0, n.DoseCount())
}

func TestForm_ReconcileKeepsIntervalsWhileDoseCountInvalid(t *testing.T) {
	for _, dc := range []*int{nil, intPtr(0), intPtr(-1)} {
		f := Form{
			Name:       "IPV",
			Type:       "primary",
			DoseCount:  dc,
			AgeGroupID: "2",
			Intervals:  floats(4, 2),
			TimeUnits:  []TimeUnit{UnitWeeks, UnitMonths},
		}

		out, st := f.Reconcile()
		require.Len(t, out.Intervals, 2)
		assert.Equal(t, 4.0, *out.Intervals[0])
		assert.Equal(t, 2.0, *out.Intervals[1])
		assert.Equal(t, []TimeUnit{UnitWeeks, UnitMonths}, out.TimeUnits)
		assert.False(t, st.CanSubmit)
		assert.True(t, st.Errors.Has("no_of_doses"))

		// al volver a cargar 3 dosis no hay nada que reingresar
		out.DoseCount = intPtr(3)
		again, st := out.Reconcile()
		assert.Len(t, again.Intervals, 2)
		assert.True(t, st.CanSubmit)
	}
}

func TestForm_ReconcileWithoutTypeKeepsIntervals(t *testing.T) {
	f := Form{Name: "IPV", Intervals: floats(4), TimeUnits: []TimeUnit{UnitWeeks}}

	out, st := f.Reconcile()
	assert.Len(t, out.Intervals, 1)
	assert.Len(t, out.TimeUnits, 1)
	assert.False(t, st.CanSubmit)
}

func TestNormalizedSchedule_SingleDosePrimaryKeepsIntervalsField(t *testing.T) {
	n, err := Normalize(Form{Name: "BCG", Type: "primary", DoseCount: intPtr(1), AgeGroupID: "1"})
	require.NoError(t, err)

	b, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"vaccine_name": "BCG",
		"age_group_id": "1",
		"type": "primary",
		"no_of_doses": 1,
		"dose_intervals": []
	}`, string(b))
}
