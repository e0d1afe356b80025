package sqlstore

import (
	"context"
	"fmt"

	"health-inventory/internal/domain/agegroups"
)

type AgeGroupRepo struct {
	s *Store
}

func NewAgeGroupRepo(s *Store) *AgeGroupRepo {
	return &AgeGroupRepo{s: s}
}

var _ agegroups.Repository = (*AgeGroupRepo)(nil)

func (r *AgeGroupRepo) List(ctx context.Context) ([]agegroups.AgeGroup, error) {
	query, args, err := r.s.sb.
		Select("id", "name", "min_age", "max_age", "time_unit").
		From("age_groups").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build query: %w", err)
	}

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]agegroups.AgeGroup, 0)
	for rows.Next() {
		var g agegroups.AgeGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.MinAge, &g.MaxAge, &g.Unit); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
