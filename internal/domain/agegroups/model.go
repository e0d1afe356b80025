package agegroups

import "strings"

// AgeGroup es el rango etario de elegibilidad. Lo administra otro sistema;
// acá solo se lee.
type AgeGroup struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	MinAge int    `json:"min_age"`
	MaxAge int    `json:"max_age"`
	Unit   string `json:"time_unit"` // days, weeks, months, years
}

// Option es la forma "formatted" que consumen los formularios: id + etiqueta.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory es el resultado de fetchAgeGroups: registros crudos + opciones formateadas.
type Directory struct {
	Default   []AgeGroup `json:"default"`
	Formatted []Option   `json:"formatted"`
}

// Lookup indexa las opciones por id.
type Lookup map[string]Option

// Lookup construye el índice sobre la forma formatted.
func (d Directory) Lookup() Lookup {
	out := make(Lookup, len(d.Formatted))
	for _, o := range d.Formatted {
		id := strings.TrimSpace(o.ID)
		if id == "" {
			continue
		}
		out[id] = o
	}
	return out
}

// Find resuelve un id; ok=false si no está cargado.
func (l Lookup) Find(id string) (Option, bool) {
	if l == nil {
		return Option{}, false
	}
	o, ok := l[strings.TrimSpace(id)]
	return o, ok
}
