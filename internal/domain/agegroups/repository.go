package agegroups

import "context"

type Repository interface {
	List(ctx context.Context) ([]AgeGroup, error)
}
