package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"
)

// Builder accumulates one query against a single table.
//
// Every chain method mutates the builder and returns the same pointer, so a
// reference captured mid-chain sees later calls. Use Clone to branch a chain.
// A builder is owned by one goroutine and is meant to be resolved once; each
// call to Execute, Go, Then, Catch or Finally sends its own request.
type Builder struct {
	client *Client
	table  string

	columns   string
	returning bool

	filters []Filter
	order   []Order
	limit   *int
	offset  *int
	single  bool

	operation Operation
	rows      []Row
	values    Row

	err error
}

func newBuilder(c *Client, table string) *Builder {
	return &Builder{
		client:  c,
		table:   table,
		columns: "*",
	}
}

// Table returns the table the builder is bound to.
func (b *Builder) Table() string {
	return b.table
}

// Err returns the first chain error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Select sets the projection. With no arguments every column is selected.
// After Insert or Update it names the columns returned by the write.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = projection(columns)
	b.returning = true
	if b.operation != OperationInsert && b.operation != OperationUpdate {
		b.setOperation(OperationSelect)
	}
	return b
}

func (b *Builder) Eq(column string, value any) *Builder {
	return b.filter(column, OpEq, value)
}

func (b *Builder) Neq(column string, value any) *Builder {
	return b.filter(column, OpNeq, value)
}

func (b *Builder) Gt(column string, value any) *Builder {
	return b.filter(column, OpGt, value)
}

func (b *Builder) Gte(column string, value any) *Builder {
	return b.filter(column, OpGte, value)
}

func (b *Builder) Lt(column string, value any) *Builder {
	return b.filter(column, OpLt, value)
}

func (b *Builder) Lte(column string, value any) *Builder {
	return b.filter(column, OpLte, value)
}

// Like matches column against a pattern using % and _ wildcards.
func (b *Builder) Like(column, pattern string) *Builder {
	return b.filter(column, OpLike, pattern)
}

// ILike is the case-insensitive form of Like.
func (b *Builder) ILike(column, pattern string) *Builder {
	return b.filter(column, OpILike, pattern)
}

// In matches rows whose column equals one of values. A single slice or array
// argument is expanded, so In("id", []string{"a", "b"}) matches In("id", "a", "b").
func (b *Builder) In(column string, values ...any) *Builder {
	if len(values) == 1 {
		if list, ok := expand(values[0]); ok {
			values = list
		}
	}
	if values == nil {
		values = []any{}
	}
	return b.filter(column, OpIn, values)
}

// expand copies a slice or array into []any. []byte is left alone.
func expand(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Is matches rows whose column is null.
func (b *Builder) Is(column string) *Builder {
	return b.filter(column, OpIs, nil)
}

func (b *Builder) filter(column string, op Operator, value any) *Builder {
	b.filters = append(b.filters, Filter{Column: column, Operator: op, Value: value})
	return b
}

// Order appends a sort key. Keys are ascending unless an option says otherwise.
func (b *Builder) Order(column string, opts ...OrderOption) *Builder {
	o := Order{Column: column, Ascending: true}
	for _, opt := range opts {
		opt(&o)
	}
	b.order = append(b.order, o)
	return b
}

func (b *Builder) Limit(n int) *Builder {
	b.limit = &n
	return b
}

func (b *Builder) Offset(n int) *Builder {
	b.offset = &n
	return b
}

// Single asks the backend for exactly one row instead of a list.
// Only select payloads carry the flag.
func (b *Builder) Single() *Builder {
	b.single = true
	return b
}

// Insert turns the builder into an insert of rows. Calling it again replaces
// the row-set.
func (b *Builder) Insert(rows ...Row) *Builder {
	if !b.setOperation(OperationInsert) {
		return b
	}
	b.rows = lo.Map(rows, func(r Row, _ int) Row { return lo.Assign(r) })
	return b
}

// Update turns the builder into an update of values, scoped by the filters.
func (b *Builder) Update(values Row) *Builder {
	if !b.setOperation(OperationUpdate) {
		return b
	}
	b.values = lo.Assign(values)
	return b
}

// Delete turns the builder into a delete, scoped by the filters.
func (b *Builder) Delete() *Builder {
	b.setOperation(OperationDelete)
	return b
}

// setOperation fixes the operation kind. A different kind than the one already
// set poisons the builder with ErrMixedOperation.
func (b *Builder) setOperation(op Operation) bool {
	if b.err != nil {
		return false
	}
	if b.operation != "" && b.operation != op {
		b.err = fmt.Errorf("%w: %s after %s on %q", ErrMixedOperation, op, b.operation, b.table)
		return false
	}
	b.operation = op
	return true
}

func (b *Builder) kind() Operation {
	if b.operation == "" {
		return OperationSelect
	}
	return b.operation
}

// Payload serialises the accumulated state. The result only depends on the
// final state, never on the order of the chain calls.
func (b *Builder) Payload() Payload {
	p := Payload{Table: b.table, Operation: b.kind()}

	switch p.Operation {
	case OperationInsert:
		p.Values = lo.Map(b.rows, func(r Row, _ int) Row { return lo.Assign(r) })
		if b.returning {
			p.Select = b.columns
		}
	case OperationUpdate:
		p.Values = lo.Assign(b.values)
		p.Filters = cloneFilters(b.filters)
		if b.returning {
			p.Select = b.columns
		}
	case OperationDelete:
		p.Filters = cloneFilters(b.filters)
	default:
		p.Select = b.columns
		p.Filters = cloneFilters(b.filters)
		p.Order = append([]Order{}, b.order...)
		p.Limit = cloneInt(b.limit)
		p.Offset = cloneInt(b.offset)
		p.Single = b.single
	}
	return p
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	c := *b
	c.filters = cloneFilters(b.filters)
	c.order = append([]Order(nil), b.order...)
	c.limit = cloneInt(b.limit)
	c.offset = cloneInt(b.offset)
	c.rows = lo.Map(b.rows, func(r Row, _ int) Row { return lo.Assign(r) })
	if b.values != nil {
		c.values = lo.Assign(b.values)
	}
	return &c
}

func projection(columns []string) string {
	cols := lo.Filter(
		lo.Map(columns, func(c string, _ int) string { return strings.TrimSpace(c) }),
		func(c string, _ int) bool { return c != "" },
	)
	if len(cols) == 0 {
		return "*"
	}
	return strings.Join(cols, ",")
}

func cloneFilters(filters []Filter) []Filter {
	out := make([]Filter, len(filters))
	copy(out, filters)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
