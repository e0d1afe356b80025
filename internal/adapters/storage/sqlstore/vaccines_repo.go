package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"health-inventory/internal/domain/vaccines"

	"github.com/Masterminds/squirrel"
)

const (
	tableVaccines    = "vaccines"
	tableIntervals   = "vaccine_dose_intervals"
	tableRoutine     = "vaccine_routine_frequencies"
	tableConditional = "vaccine_conditionals"
)

// scheduleTables: una tabla de filas de esquema por tipo.
var scheduleTables = map[vaccines.Type]string{
	vaccines.TypePrimary:     tableIntervals,
	vaccines.TypeRoutine:     tableRoutine,
	vaccines.TypeConditional: tableConditional,
}

var vaccineColumns = []string{
	"id",
	"name",
	"vac_type",
	"agegrp_id",
	"no_of_doses",
	"created_by",
	"created_at",
	"updated_at",
}

var insertColumns = append(append([]string{}, vaccineColumns...), "name_key")

type VaccineRepo struct {
	s *Store
}

func NewVaccineRepo(s *Store) *VaccineRepo {
	return &VaccineRepo{s: s}
}

var _ vaccines.Repository = (*VaccineRepo)(nil)

func (r *VaccineRepo) List(ctx context.Context) ([]vaccines.VaccineDefinition, error) {
	q := r.s.sb.Select(vaccineColumns...).From(tableVaccines).OrderBy("name_key")
	return r.load(ctx, q)
}

func (r *VaccineRepo) GetByID(ctx context.Context, id string) (vaccines.VaccineDefinition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return vaccines.VaccineDefinition{}, vaccines.ErrNotFound
	}

	q := r.s.sb.Select(vaccineColumns...).From(tableVaccines).Where(squirrel.Eq{"id": id})
	items, err := r.load(ctx, q)
	if err != nil {
		return vaccines.VaccineDefinition{}, err
	}
	if len(items) == 0 {
		return vaccines.VaccineDefinition{}, vaccines.ErrNotFound
	}
	return items[0], nil
}

// Create escribe la fila principal y las de su esquema en una transacción.
func (r *VaccineRepo) Create(ctx context.Context, v vaccines.VaccineDefinition) (vaccines.VaccineDefinition, error) {
	err := r.s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := exec(ctx, tx, r.s.sb.Insert(tableVaccines).
			Columns(insertColumns...).
			Values(
				v.ID,
				strings.TrimSpace(v.Name),
				string(v.Type()),
				v.AgeGroupID,
				doseColumn(v),
				v.CreatedBy,
				v.CreatedAt.UTC(),
				v.UpdatedAt.UTC(),
				vaccines.NormalizeName(v.Name),
			))
		if err != nil {
			return err
		}
		return r.insertSchedule(ctx, tx, v)
	})
	if err != nil {
		return vaccines.VaccineDefinition{}, mapWriteError(err)
	}
	return r.GetByID(ctx, v.ID)
}

// Update borra las filas del tipo anterior (y cualquier resto de otro tipo) antes
// de escribir el esquema nuevo, todo en la misma transacción.
func (r *VaccineRepo) Update(ctx context.Context, v vaccines.VaccineDefinition, previous vaccines.Type) (vaccines.VaccineDefinition, error) {
	err := r.s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := exec(ctx, tx, r.s.sb.Update(tableVaccines).
			Set("name", strings.TrimSpace(v.Name)).
			Set("name_key", vaccines.NormalizeName(v.Name)).
			Set("vac_type", string(v.Type())).
			Set("agegrp_id", v.AgeGroupID).
			Set("no_of_doses", doseColumn(v)).
			Set("updated_at", v.UpdatedAt.UTC()).
			Where(squirrel.Eq{"id": v.ID}))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return vaccines.ErrNotFound
		}

		if err := r.deleteSchedule(ctx, tx, v.ID, previous); err != nil {
			return err
		}
		for _, t := range []vaccines.Type{vaccines.TypeRoutine, vaccines.TypePrimary, vaccines.TypeConditional} {
			if t == previous {
				continue
			}
			if err := r.deleteSchedule(ctx, tx, v.ID, t); err != nil {
				return err
			}
		}
		return r.insertSchedule(ctx, tx, v)
	})
	if err != nil {
		return vaccines.VaccineDefinition{}, mapWriteError(err)
	}
	return r.GetByID(ctx, v.ID)
}

func (r *VaccineRepo) Delete(ctx context.Context, id string) error {
	return r.s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{tableIntervals, tableRoutine, tableConditional} {
			if _, err := exec(ctx, tx, r.s.sb.Delete(table).Where(squirrel.Eq{"vaccine_id": id})); err != nil {
				return err
			}
		}
		res, err := exec(ctx, tx, r.s.sb.Delete(tableVaccines).Where(squirrel.Eq{"id": id}))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return vaccines.ErrNotFound
		}
		return nil
	})
}

func (r *VaccineRepo) deleteSchedule(ctx context.Context, tx *sql.Tx, id string, t vaccines.Type) error {
	table, ok := scheduleTables[t]
	if !ok {
		return nil
	}
	_, err := exec(ctx, tx, r.s.sb.Delete(table).Where(squirrel.Eq{"vaccine_id": id}))
	return err
}

func (r *VaccineRepo) insertSchedule(ctx context.Context, tx *sql.Tx, v vaccines.VaccineDefinition) error {
	switch s := v.Schedule.(type) {
	case vaccines.PrimarySchedule:
		if len(s.Intervals) == 0 {
			return nil
		}
		ins := r.s.sb.Insert(tableIntervals).Columns("vaccine_id", "dose_number", "interval_value", "time_unit")
		for _, di := range s.Intervals {
			ins = ins.Values(v.ID, di.DoseNumber, di.Value, string(di.Unit))
		}
		_, err := exec(ctx, tx, ins)
		return err
	case vaccines.RoutineSchedule:
		_, err := exec(ctx, tx, r.s.sb.Insert(tableRoutine).
			Columns("vaccine_id", "interval_value", "time_unit").
			Values(v.ID, s.Frequency.Value, string(s.Frequency.Unit)))
		return err
	case vaccines.ConditionalSchedule:
		_, err := exec(ctx, tx, r.s.sb.Insert(tableConditional).Columns("vaccine_id").Values(v.ID))
		return err
	default:
		return fmt.Errorf("sqlstore: vaccine %s has no schedule", v.ID)
	}
}

// scanVaccines cierra sus filas antes de volver: con sqlite hay una sola conexión.
func (r *VaccineRepo) scanVaccines(ctx context.Context, q squirrel.SelectBuilder) ([]vaccineRow, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build query: %w", err)
	}

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []vaccineRow
	for rows.Next() {
		var row vaccineRow
		var created, updated dbTime
		if err := rows.Scan(
			&row.def.ID,
			&row.def.Name,
			&row.vacType,
			&row.def.AgeGroupID,
			&row.doses,
			&row.def.CreatedBy,
			&created,
			&updated,
		); err != nil {
			return nil, err
		}
		row.def.CreatedAt = created.Time
		row.def.UpdatedAt = updated.Time
		items = append(items, row)
	}
	return items, rows.Err()
}

type vaccineRow struct {
	def     vaccines.VaccineDefinition
	vacType string
	doses   sql.NullInt64
}

// load lee las filas principales y arma el esquema con las tablas hijas.
func (r *VaccineRepo) load(ctx context.Context, q squirrel.SelectBuilder) ([]vaccines.VaccineDefinition, error) {
	items, err := r.scanVaccines(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]vaccines.VaccineDefinition, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.def.ID)
	}
	intervals, err := r.loadIntervals(ctx, ids)
	if err != nil {
		return nil, err
	}
	routine, err := r.loadRoutine(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		def := it.def
		switch vaccines.Type(it.vacType) {
		case vaccines.TypePrimary:
			ivs := intervals[def.ID]
			if ivs == nil {
				ivs = []vaccines.DoseInterval{}
			}
			def.Schedule = vaccines.PrimarySchedule{Doses: int(it.doses.Int64), Intervals: ivs}
		case vaccines.TypeRoutine:
			freq, ok := routine[def.ID]
			if !ok {
				freq = vaccines.RoutineFrequency{Interval: vaccines.Interval{Value: 1, Unit: vaccines.UnitYears}}
			}
			def.Schedule = vaccines.RoutineSchedule{Frequency: freq}
		case vaccines.TypeConditional:
			def.Schedule = vaccines.ConditionalSchedule{}
		default:
			return nil, fmt.Errorf("sqlstore: vaccine %s has unknown type %q", def.ID, it.vacType)
		}
		out = append(out, def)
	}
	return out, nil
}

func (r *VaccineRepo) loadIntervals(ctx context.Context, ids []string) (map[string][]vaccines.DoseInterval, error) {
	query, args, err := r.s.sb.
		Select("vaccine_id", "dose_number", "interval_value", "time_unit").
		From(tableIntervals).
		Where(squirrel.Eq{"vaccine_id": ids}).
		OrderBy("vaccine_id", "dose_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build query: %w", err)
	}

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]vaccines.DoseInterval)
	for rows.Next() {
		var id, unit string
		var di vaccines.DoseInterval
		if err := rows.Scan(&id, &di.DoseNumber, &di.Value, &unit); err != nil {
			return nil, err
		}
		di.Unit = vaccines.TimeUnit(unit)
		out[id] = append(out[id], di)
	}
	return out, rows.Err()
}

func (r *VaccineRepo) loadRoutine(ctx context.Context, ids []string) (map[string]vaccines.RoutineFrequency, error) {
	query, args, err := r.s.sb.
		Select("vaccine_id", "interval_value", "time_unit").
		From(tableRoutine).
		Where(squirrel.Eq{"vaccine_id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build query: %w", err)
	}

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]vaccines.RoutineFrequency)
	for rows.Next() {
		var id, unit string
		var f vaccines.RoutineFrequency
		if err := rows.Scan(&id, &f.Value, &unit); err != nil {
			return nil, err
		}
		f.Unit = vaccines.TimeUnit(unit)
		out[id] = f
	}
	return out, rows.Err()
}

// doseColumn: conditional guarda NULL ("no aplica").
func doseColumn(v vaccines.VaccineDefinition) sql.NullInt64 {
	if v.Type() == vaccines.TypeConditional {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v.DoseCount()), Valid: true}
}

func mapWriteError(err error) error {
	switch {
	case errors.Is(err, vaccines.ErrNotFound):
		return err
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", vaccines.ErrDuplicateName, err)
	default:
		return err
	}
}
