package agegroups

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Source es lo que necesitan los consumidores (vaccines): el directorio completo.
// Lo implementan Service (tabla local) y el adapter remoto.
type Source interface {
	FetchAgeGroups(ctx context.Context) (Directory, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) FetchAgeGroups(ctx context.Context) (Directory, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Directory{}, err
	}
	return BuildDirectory(items), nil
}

// BuildDirectory ordena por unidad (días antes que años) y edad mínima, y arma las etiquetas.
func BuildDirectory(items []AgeGroup) Directory {
	sorted := make([]AgeGroup, 0, len(items))
	for _, g := range items {
		if strings.TrimSpace(g.ID) == "" {
			continue
		}
		sorted = append(sorted, g)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := unitRank(sorted[i].Unit), unitRank(sorted[j].Unit)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].MinAge < sorted[j].MinAge
	})

	formatted := make([]Option, 0, len(sorted))
	for _, g := range sorted {
		formatted = append(formatted, Option{ID: g.ID, Name: FormatName(g)})
	}
	return Directory{Default: sorted, Formatted: formatted}
}

// FormatName: "Infants (0-12 months)". Sin unidad se muestra solo el nombre.
func FormatName(g AgeGroup) string {
	name := strings.TrimSpace(g.Name)
	unit := strings.TrimSpace(g.Unit)
	if unit == "" {
		return name
	}
	return fmt.Sprintf("%s (%d-%d %s)", name, g.MinAge, g.MaxAge, unit)
}

func unitRank(u string) int {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "days":
		return 0
	case "weeks":
		return 1
	case "months":
		return 2
	case "years":
		return 3
	default:
		return 4
	}
}
