package query

import "encoding/json"

// Operator is the comparison tag carried by a Filter.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
	OpIn    Operator = "in"
	OpIs    Operator = "is"
)

var operators = map[Operator]struct{}{
	OpEq: {}, OpNeq: {}, OpGt: {}, OpGte: {}, OpLt: {},
	OpLte: {}, OpLike: {}, OpILike: {}, OpIn: {}, OpIs: {},
}

// Valid reports whether o is one of the supported operators.
func (o Operator) Valid() bool {
	_, ok := operators[o]
	return ok
}

// Operation is the kind of data operation a payload asks for.
type Operation string

const (
	OperationSelect Operation = "select"
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Row is one attribute map, column name to value.
type Row = map[string]any

// Filter is a single column predicate. Filters are combined with AND.
type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Order is one sort key. Keys apply in the order they were added.
type Order struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// UnmarshalJSON defaults Ascending to true when the field is absent.
func (o *Order) UnmarshalJSON(data []byte) error {
	type order Order
	v := order{Ascending: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Order(v)
	return nil
}

// OrderOption tweaks an Order added through Builder.Order.
type OrderOption func(*Order)

// Ascending sets the sort direction of an order key.
func Ascending(asc bool) OrderOption {
	return func(o *Order) {
		o.Ascending = asc
	}
}

// Descending is shorthand for Ascending(false).
func Descending() OrderOption {
	return Ascending(false)
}
