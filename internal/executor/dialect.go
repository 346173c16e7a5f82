package executor

import (
	"fmt"
	"math"
	"reflect"

	"github.com/Masterminds/squirrel"

	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

// Dialect names, matching the database driver names.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

func statementBuilder(dialect string) squirrel.StatementBuilderType {
	if dialect == Postgres {
		// PostgreSQL uses $1, $2, ... placeholders
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// condition turns one filter into SQL. The column has already been checked
// against the table, so it is safe to inline.
func (e *Executor) condition(f query.Filter) (squirrel.Sqlizer, error) {
	col := f.Column

	if f.Operator != query.OpIn && !isScalar(f.Value) {
		return nil, fmt.Errorf("filter on %q: %s expects a scalar value", col, f.Operator)
	}
	if f.Value == nil && !acceptsNull(f.Operator) {
		return nil, fmt.Errorf("filter on %q: %s expects a non-null value", col, f.Operator)
	}

	switch f.Operator {
	case query.OpEq:
		return squirrel.Eq{col: f.Value}, nil
	case query.OpNeq:
		return squirrel.NotEq{col: f.Value}, nil
	case query.OpGt:
		return squirrel.Gt{col: f.Value}, nil
	case query.OpGte:
		return squirrel.GtOrEq{col: f.Value}, nil
	case query.OpLt:
		return squirrel.Lt{col: f.Value}, nil
	case query.OpLte:
		return squirrel.LtOrEq{col: f.Value}, nil
	case query.OpLike:
		return squirrel.Like{col: f.Value}, nil
	case query.OpILike:
		if e.dialect == Postgres {
			return squirrel.ILike{col: f.Value}, nil
		}
		return squirrel.Expr("LOWER("+col+") LIKE LOWER(?)", f.Value), nil
	case query.OpIn:
		values, err := toSlice(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter on %q: %w", col, err)
		}
		// squirrel renders an empty list as (1=0)
		return squirrel.Eq{col: values}, nil
	case query.OpIs:
		return squirrel.Eq{col: nil}, nil
	default:
		return nil, fmt.Errorf("unknown operator %q", f.Operator)
	}
}

// acceptsNull reports whether op renders a null value as IS [NOT] NULL.
func acceptsNull(op query.Operator) bool {
	return op == query.OpEq || op == query.OpNeq || op == query.OpIs
}

// noLimit stands in for "no LIMIT" where OFFSET needs one (SQLite).
const noLimit = uint64(math.MaxInt64)

func isScalar(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Func, reflect.Chan:
		return false
	}
	return true
}

func toSlice(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("in expects a list value")
	}
	out := make([]any, rv.Len())
	for i := range out {
		item := rv.Index(i).Interface()
		if !isScalar(item) {
			return nil, fmt.Errorf("in list item %d is not a scalar", i)
		}
		out[i] = item
	}
	return out, nil
}
