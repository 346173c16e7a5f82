package query

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/samber/lo"
)

// Payload is the request body sent to the query endpoint.
//
// Values holds []Row for inserts and a single Row for updates. A payload
// decoded from JSON holds the generic []any / map[string]any forms instead;
// InsertRows and UpdateValues accept both.
type Payload struct {
	Table     string    `json:"table"`
	Operation Operation `json:"operation"`
	Select    string    `json:"select,omitempty"`
	Values    any       `json:"values,omitempty"`
	Filters   []Filter  `json:"filters,omitempty"`
	Order     []Order   `json:"order,omitempty"`
	Limit     *int      `json:"limit,omitempty"`
	Offset    *int      `json:"offset,omitempty"`
	Single    bool      `json:"single,omitempty"`
}

type selectBody struct {
	Table     string    `json:"table"`
	Operation Operation `json:"operation"`
	Select    string    `json:"select"`
	Filters   []Filter  `json:"filters"`
	Order     []Order   `json:"order"`
	Limit     *int      `json:"limit,omitempty"`
	Offset    *int      `json:"offset,omitempty"`
	Single    bool      `json:"single"`
}

type insertBody struct {
	Table     string    `json:"table"`
	Operation Operation `json:"operation"`
	Values    any       `json:"values"`
	Select    string    `json:"select,omitempty"`
}

type updateBody struct {
	Table     string    `json:"table"`
	Operation Operation `json:"operation"`
	Values    any       `json:"values"`
	Filters   []Filter  `json:"filters"`
	Select    string    `json:"select,omitempty"`
}

type deleteBody struct {
	Table     string    `json:"table"`
	Operation Operation `json:"operation"`
	Filters   []Filter  `json:"filters"`
}

// MarshalJSON writes only the fields that belong to the payload's operation,
// so the same state always produces the same body.
func (p Payload) MarshalJSON() ([]byte, error) {
	filters := p.Filters
	if filters == nil {
		filters = []Filter{}
	}

	switch p.Operation {
	case OperationInsert:
		return json.Marshal(insertBody{
			Table:     p.Table,
			Operation: p.Operation,
			Values:    p.Values,
			Select:    p.Select,
		})
	case OperationUpdate:
		return json.Marshal(updateBody{
			Table:     p.Table,
			Operation: p.Operation,
			Values:    p.Values,
			Filters:   filters,
			Select:    p.Select,
		})
	case OperationDelete:
		return json.Marshal(deleteBody{
			Table:     p.Table,
			Operation: p.Operation,
			Filters:   filters,
		})
	}

	order := p.Order
	if order == nil {
		order = []Order{}
	}
	sel := p.Select
	if sel == "" {
		sel = "*"
	}
	op := p.Operation
	if op == "" {
		op = OperationSelect
	}
	return json.Marshal(selectBody{
		Table:     p.Table,
		Operation: op,
		Select:    sel,
		Filters:   filters,
		Order:     order,
		Limit:     p.Limit,
		Offset:    p.Offset,
		Single:    p.Single,
	})
}

// InsertRows returns the insert row-set. A lone row is normalised to a
// one-element slice.
func (p Payload) InsertRows() ([]Row, error) {
	switch v := p.Values.(type) {
	case nil:
		return nil, nil
	case []Row:
		return v, nil
	case Row:
		return []Row{v}, nil
	case []any:
		rows := make([]Row, 0, len(v))
		for _, item := range v {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, invalid("values", "insert values must be objects")
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		return nil, invalid("values", "insert values must be an object or a list of objects")
	}
}

// UpdateValues returns the attribute map of an update payload.
func (p Payload) UpdateValues() (Row, error) {
	switch v := p.Values.(type) {
	case nil:
		return nil, nil
	case Row:
		return v, nil
	default:
		return nil, invalid("values", "update values must be an object")
	}
}

// Validate checks the payload shape. It does not know about tables or columns;
// those belong to the executor.
func (p Payload) Validate() error {
	if strings.TrimSpace(p.Table) == "" {
		return invalid("table", "table name is required")
	}

	switch p.Operation {
	case OperationSelect, OperationInsert, OperationUpdate, OperationDelete:
	default:
		return invalid("operation", "unknown operation %q", p.Operation)
	}

	for i, f := range p.Filters {
		if f.Column == "" {
			return invalid("filters", "filter %d has no column", i)
		}
		if !f.Operator.Valid() {
			return invalid("filters", "filter %d has unknown operator %q", i, f.Operator)
		}
		switch f.Operator {
		case OpIn:
			if !isSequence(f.Value) {
				return invalid("filters", "filter %d: %q expects a list value", i, f.Operator)
			}
		case OpIs:
			if f.Value != nil {
				return invalid("filters", "filter %d: %q only accepts null", i, f.Operator)
			}
		}
	}

	if _, bad := lo.Find(p.Order, func(o Order) bool { return o.Column == "" }); bad {
		return invalid("order", "order key has no column")
	}
	if p.Limit != nil && *p.Limit < 0 {
		return invalid("limit", "must not be negative, got %d", *p.Limit)
	}
	if p.Offset != nil && *p.Offset < 0 {
		return invalid("offset", "must not be negative, got %d", *p.Offset)
	}

	switch p.Operation {
	case OperationInsert:
		rows, err := p.InsertRows()
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return invalid("values", "insert needs at least one row")
		}
	case OperationUpdate:
		values, err := p.UpdateValues()
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return invalid("values", "update needs at least one attribute")
		}
	}
	return nil
}

func isSequence(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}
