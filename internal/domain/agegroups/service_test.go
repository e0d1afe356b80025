package agegroups

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	items []AgeGroup
	err   error
}

func (r *testRepo) List(ctx context.Context) ([]AgeGroup, error) {
	return r.items, r.err
}

func TestService_FetchAgeGroups_SortsAndFormats(t *testing.T) {
	svc := NewService(&testRepo{items: []AgeGroup{
		{ID: "3", Name: "Children", MinAge: 1, MaxAge: 5, Unit: "years"},
		{ID: "1", Name: "Newborn", MinAge: 0, MaxAge: 28, Unit: "days"},
		{ID: "2", Name: "Infants", MinAge: 0, MaxAge: 12, Unit: "months"},
		{ID: "", Name: "orphan"},
	}})

	dir, err := svc.FetchAgeGroups(context.Background())
	require.NoError(t, err)

	require.Len(t, dir.Default, 3)
	assert.Equal(t, []Option{
		{ID: "1", Name: "Newborn (0-28 days)"},
		{ID: "2", Name: "Infants (0-12 months)"},
		{ID: "3", Name: "Children (1-5 years)"},
	}, dir.Formatted)
}

func TestService_FetchAgeGroups_PropagatesError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&testRepo{err: boom})

	_, err := svc.FetchAgeGroups(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestLookup_Find(t *testing.T) {
	dir := BuildDirectory([]AgeGroup{{ID: "7", Name: "Adults"}})
	lk := dir.Lookup()

	o, ok := lk.Find(" 7 ")
	require.True(t, ok)
	assert.Equal(t, "Adults", o.Name)

	_, ok = lk.Find("8")
	assert.False(t, ok)

	var empty Lookup
	_, ok = empty.Find("7")
	assert.False(t, ok)
}
