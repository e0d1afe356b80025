package memory

import (
	"context"
	"testing"

	"health-inventory/internal/domain/vaccines"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func primaryDef(id, name string) vaccines.VaccineDefinition {
	return vaccines.VaccineDefinition{
		ID:         id,
		Name:       name,
		AgeGroupID: "2",
		Schedule: vaccines.PrimarySchedule{Doses: 3, Intervals: []vaccines.DoseInterval{
			{DoseNumber: 2, Interval: vaccines.Interval{Value: 1, Unit: vaccines.UnitMonths}},
			{DoseNumber: 3, Interval: vaccines.Interval{Value: 6, Unit: vaccines.UnitMonths}},
		}},
	}
}

func TestVaccineRepo_CreateAndGet(t *testing.T) {
	r := newVaccineRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, primaryDef("v1", "Hepatitis B"))
	require.NoError(t, err)

	got, err := r.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, primaryDef("v1", "Hepatitis B"), got)

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, vaccines.ErrNotFound)
}

func TestVaccineRepo_UniqueName(t *testing.T) {
	r := newVaccineRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, primaryDef("v1", "Hepatitis B"))
	require.NoError(t, err)

	_, err = r.Create(ctx, primaryDef("v2", " HEPATITIS b"))
	assert.ErrorIs(t, err, vaccines.ErrDuplicateName)

	_, err = r.Create(ctx, primaryDef("v2", "MMR"))
	require.NoError(t, err)
	_, err = r.Update(ctx, primaryDef("v2", "hepatitis b"), vaccines.TypePrimary)
	assert.ErrorIs(t, err, vaccines.ErrDuplicateName)
}

func TestVaccineRepo_TypeChangeDropsOldRows(t *testing.T) {
	r := newVaccineRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, primaryDef("v1", "Influenza"))
	require.NoError(t, err)
	require.Len(t, r.intervals["v1"], 2)

	routine := vaccines.VaccineDefinition{
		ID:   "v1",
		Name: "Influenza",
		Schedule: vaccines.RoutineSchedule{Frequency: vaccines.RoutineFrequency{
			Interval: vaccines.Interval{Value: 1, Unit: vaccines.UnitYears},
		}},
	}
	got, err := r.Update(ctx, routine, vaccines.TypePrimary)
	require.NoError(t, err)

	assert.Equal(t, vaccines.TypeRoutine, got.Type())
	assert.NotContains(t, r.intervals, "v1")
	assert.Contains(t, r.routine, "v1")

	cond := vaccines.VaccineDefinition{ID: "v1", Name: "Influenza", AgeGroupID: "5", Schedule: vaccines.ConditionalSchedule{}}
	got, err = r.Update(ctx, cond, vaccines.TypeRoutine)
	require.NoError(t, err)
	assert.Equal(t, vaccines.TypeConditional, got.Type())
	assert.NotContains(t, r.routine, "v1")
	assert.Equal(t, 0, got.DoseCount())
}

func TestVaccineRepo_DeleteIsHard(t *testing.T) {
	r := newVaccineRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, primaryDef("v1", "Hepatitis B"))
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, "v1"))

	assert.Empty(t, r.intervals)
	assert.ErrorIs(t, r.Delete(ctx, "v1"), vaccines.ErrNotFound)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVaccineRepo_RespectsCancelledContext(t *testing.T) {
	r := newVaccineRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Create(ctx, primaryDef("v1", "Hepatitis B"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.byID)
}

func TestAgeGroupRepo_Defaults(t *testing.T) {
	items, err := NewAgeGroupRepo().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, len(DefaultAgeGroups))
}
