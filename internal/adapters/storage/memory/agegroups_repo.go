package memory

import (
	"context"
	"sync"

	"health-inventory/internal/domain/agegroups"
)

// DefaultAgeGroups es el catálogo inicial; coincide con la migración 00002 de sqlstore.
var DefaultAgeGroups = []agegroups.AgeGroup{
	{ID: "1", Name: "Newborn", MinAge: 0, MaxAge: 28, Unit: "days"},
	{ID: "2", Name: "Infants", MinAge: 1, MaxAge: 12, Unit: "months"},
	{ID: "3", Name: "Children", MinAge: 1, MaxAge: 9, Unit: "years"},
	{ID: "4", Name: "Adolescents", MinAge: 10, MaxAge: 19, Unit: "years"},
	{ID: "5", Name: "Adults", MinAge: 20, MaxAge: 59, Unit: "years"},
	{ID: "6", Name: "Older adults", MinAge: 60, MaxAge: 120, Unit: "years"},
}

type ageGroupRepo struct {
	mu    sync.RWMutex
	items []agegroups.AgeGroup
}

// NewAgeGroupRepo usa DefaultAgeGroups si no se pasa nada.
func NewAgeGroupRepo(items ...agegroups.AgeGroup) agegroups.Repository {
	if len(items) == 0 {
		items = DefaultAgeGroups
	}
	return &ageGroupRepo{items: append([]agegroups.AgeGroup{}, items...)}
}

func (r *ageGroupRepo) List(ctx context.Context) ([]agegroups.AgeGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]agegroups.AgeGroup{}, r.items...), nil
}
