// Package executor runs query payloads against the shared-schema store.
// Every table carries a project_id column; each statement is scoped to the
// calling project and tenants never see each other's rows.
package executor

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	apperrors "github.com/anyx-app/secudash-43b2ee93/pkg/errors"
	"github.com/anyx-app/secudash-43b2ee93/pkg/logger"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
	"github.com/anyx-app/secudash-43b2ee93/pkg/schema"
)

// Result is the response body of a successful query.
type Result struct {
	Data  any `json:"data"`
	Count int `json:"count"`
}

// Executor translates payloads into SQL.
type Executor struct {
	db      *sqlx.DB
	dialect string
	sb      squirrel.StatementBuilderType
	timeout time.Duration
	maxRows int
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout bounds each statement.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithMaxRows caps the rows a select may return. Zero means no cap.
func WithMaxRows(n int) Option {
	return func(e *Executor) {
		e.maxRows = n
	}
}

// New creates an executor for db speaking dialect (Postgres or SQLite).
func New(db *sqlx.DB, dialect string, opts ...Option) *Executor {
	e := &Executor{
		db:      db,
		dialect: dialect,
		sb:      statementBuilder(dialect),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs p for projectID. Failures are *apperrors.AppError values
// carrying the HTTP status to report.
func (e *Executor) Execute(ctx context.Context, projectID string, p query.Payload) (*Result, error) {
	if projectID == "" {
		return nil, apperrors.BadRequest("project id is required")
	}
	if p.Operation == "" {
		p.Operation = query.OperationSelect
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	table, ok := schema.Lookup(p.Table)
	if !ok {
		return nil, apperrors.BadRequestf("unknown table %q", p.Table)
	}
	if err := checkColumns(table, p); err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	where, err := e.where(projectID, p.Filters)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	switch p.Operation {
	case query.OperationInsert:
		return e.insert(ctx, projectID, table, p)
	case query.OperationUpdate:
		return e.update(ctx, table, p, where)
	case query.OperationDelete:
		return e.delete(ctx, table, where)
	default:
		return e.selectRows(ctx, table, p, where)
	}
}

func (e *Executor) where(projectID string, filters []query.Filter) (squirrel.And, error) {
	conds := squirrel.And{squirrel.Eq{schema.TenantColumn: projectID}}
	for _, f := range filters {
		c, err := e.condition(f)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func (e *Executor) selectRows(ctx context.Context, table schema.Table, p query.Payload, where squirrel.Sqlizer) (*Result, error) {
	cols, err := projection(table, p.Select)
	if err != nil {
		return nil, err
	}

	q := e.sb.Select(cols...).From(table.Name).Where(where)
	for _, o := range p.Order {
		dir := "ASC"
		if !o.Ascending {
			dir = "DESC"
		}
		q = q.OrderBy(o.Column + " " + dir)
	}

	limit := -1
	if p.Limit != nil {
		limit = *p.Limit
	}
	if e.maxRows > 0 && (limit < 0 || limit > e.maxRows) {
		limit = e.maxRows
	}
	if p.Single && (limit < 0 || limit > 2) {
		// two rows are enough to tell "one" from "many"
		limit = 2
	}
	if limit >= 0 {
		q = q.Limit(uint64(limit))
	}
	if p.Offset != nil && *p.Offset > 0 {
		if limit < 0 && e.dialect == SQLite {
			q = q.Limit(noLimit)
		}
		q = q.Offset(uint64(*p.Offset))
	}

	rows, err := e.query(ctx, e.db, q)
	if err != nil {
		return nil, err
	}

	if p.Single {
		switch len(rows) {
		case 0:
			return nil, apperrors.NotFound("no rows returned")
		case 1:
			return &Result{Data: rows[0], Count: 1}, nil
		default:
			return nil, apperrors.NotAcceptable("multiple rows returned")
		}
	}
	return &Result{Data: rows, Count: len(rows)}, nil
}

func (e *Executor) insert(ctx context.Context, projectID string, table schema.Table, p query.Payload) (*Result, error) {
	rows, _ := p.InsertRows()

	var returning []string
	if p.Select != "" {
		cols, err := projection(table, p.Select)
		if err != nil {
			return nil, err
		}
		returning = cols
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	out := []query.Row{}
	for _, row := range rows {
		row = lo.Assign(row)
		if _, ok := row["id"]; !ok && lo.Contains(table.Generated, "id") {
			row["id"] = uuid.NewString()
		}

		cols := lo.Keys(row)
		sort.Strings(cols)
		vals := lo.Map(cols, func(c string, _ int) any { return row[c] })

		q := e.sb.Insert(table.Name).
			Columns(append([]string{schema.TenantColumn}, cols...)...).
			Values(append([]any{projectID}, vals...)...)

		if returning == nil {
			if _, err := e.exec(ctx, tx, q); err != nil {
				return nil, err
			}
			continue
		}
		inserted, err := e.query(ctx, tx, q.Suffix("RETURNING "+strings.Join(returning, ", ")))
		if err != nil {
			return nil, err
		}
		out = append(out, inserted...)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	if returning == nil {
		return &Result{Data: nil, Count: len(rows)}, nil
	}
	return &Result{Data: out, Count: len(out)}, nil
}

func (e *Executor) update(ctx context.Context, table schema.Table, p query.Payload, where squirrel.Sqlizer) (*Result, error) {
	values, _ := p.UpdateValues()

	q := e.sb.Update(table.Name).SetMap(values).Where(where)
	if _, set := values["updated_at"]; !set && table.HasColumn("updated_at") {
		q = q.Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP"))
	}

	if p.Select == "" {
		n, err := e.exec(ctx, e.db, q)
		if err != nil {
			return nil, err
		}
		return &Result{Data: nil, Count: n}, nil
	}

	cols, err := projection(table, p.Select)
	if err != nil {
		return nil, err
	}
	rows, err := e.query(ctx, e.db, q.Suffix("RETURNING "+strings.Join(cols, ", ")))
	if err != nil {
		return nil, err
	}
	return &Result{Data: rows, Count: len(rows)}, nil
}

func (e *Executor) delete(ctx context.Context, table schema.Table, where squirrel.Sqlizer) (*Result, error) {
	n, err := e.exec(ctx, e.db, e.sb.Delete(table.Name).Where(where))
	if err != nil {
		return nil, err
	}
	return &Result{Data: nil, Count: n}, nil
}

func (e *Executor) query(ctx context.Context, db sqlx.QueryerContext, q squirrel.Sqlizer) ([]query.Row, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	logger.Debug("executing query", "sql", stmt, "args", len(args))

	rows, err := db.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, classify(err)
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (e *Executor) exec(ctx context.Context, db sqlx.ExecerContext, q squirrel.Sqlizer) (int, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	logger.Debug("executing statement", "sql", stmt, "args", len(args))

	res, err := db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err)
	}
	return int(n), nil
}

// scanRows reads every row into a map, dropping the tenant column.
func scanRows(rows *sqlx.Rows) ([]query.Row, error) {
	defer rows.Close()

	out := []query.Row{}
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		delete(m, schema.TenantColumn)
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
