package executor

import (
	"strings"

	"github.com/samber/lo"

	apperrors "github.com/anyx-app/secudash-43b2ee93/pkg/errors"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
	"github.com/anyx-app/secudash-43b2ee93/pkg/schema"
)

// projection resolves a select clause to column names. "*" and "" mean every
// column of the table.
func projection(table schema.Table, sel string) ([]string, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" || sel == "*" {
		return table.Columns, nil
	}

	cols := lo.Map(strings.Split(sel, ","), func(c string, _ int) string {
		return strings.TrimSpace(c)
	})
	for _, c := range cols {
		if c == "*" {
			return table.Columns, nil
		}
		if !table.HasColumn(c) {
			return nil, unknownColumn(table, c)
		}
	}
	return lo.Uniq(cols), nil
}

// checkColumns makes sure every column the payload names exists. Column names
// are inlined into SQL, so nothing unchecked gets past here.
func checkColumns(table schema.Table, p query.Payload) error {
	for _, f := range p.Filters {
		if !table.HasColumn(f.Column) {
			return unknownColumn(table, f.Column)
		}
	}
	for _, o := range p.Order {
		if !table.HasColumn(o.Column) {
			return unknownColumn(table, o.Column)
		}
	}

	switch p.Operation {
	case query.OperationInsert:
		rows, err := p.InsertRows()
		if err != nil {
			return apperrors.BadRequest(err.Error())
		}
		for _, row := range rows {
			if err := checkKeys(table, row); err != nil {
				return err
			}
		}
	case query.OperationUpdate:
		values, err := p.UpdateValues()
		if err != nil {
			return apperrors.BadRequest(err.Error())
		}
		if _, ok := values["id"]; ok {
			return apperrors.BadRequest("id cannot be updated")
		}
		return checkKeys(table, values)
	}
	return nil
}

func checkKeys(table schema.Table, row query.Row) error {
	for col, v := range row {
		if !table.HasColumn(col) {
			return unknownColumn(table, col)
		}
		if !isScalar(v) {
			return apperrors.BadRequestf("value for %q must be a scalar", col)
		}
	}
	return nil
}

func unknownColumn(table schema.Table, col string) error {
	return apperrors.BadRequestf("unknown column %q on table %q", col, table.Name)
}
