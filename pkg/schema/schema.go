// Package schema describes the shared-schema tables of a project: their row
// shapes for typed callers and the column registry the executor checks
// queries against.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kisielk/sqlstruct"
	"github.com/samber/lo"

	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

// Table names.
const (
	Profiles        = "profiles"
	Assets          = "assets"
	Vulnerabilities = "vulnerabilities"
)

// TenantColumn scopes every row to a project. It is managed by the executor
// and never part of a row shape.
const TenantColumn = "project_id"

// Table is one queryable table and its columns.
type Table struct {
	Name    string
	Columns []string
	// Generated columns are filled in when an insert omits them.
	Generated []string
}

// HasColumn reports whether col belongs to the table.
func (t Table) HasColumn(col string) bool {
	return lo.Contains(t.Columns, col)
}

var tables = map[string]Table{
	Profiles: {
		Name:      Profiles,
		Columns:   columnsOf(Profile{}),
		Generated: []string{"created_at", "updated_at"},
	},
	Assets: {
		Name:      Assets,
		Columns:   columnsOf(Asset{}),
		Generated: []string{"id", "created_at", "updated_at"},
	},
	Vulnerabilities: {
		Name:      Vulnerabilities,
		Columns:   columnsOf(Vulnerability{}),
		Generated: []string{"id", "discovered_at"},
	},
}

// Lookup returns the table called name.
func Lookup(name string) (Table, bool) {
	t, ok := tables[name]
	return t, ok
}

// Tables lists the known tables sorted by name.
func Tables() []Table {
	out := lo.Values(tables)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func columnsOf(row any) []string {
	return strings.Split(sqlstruct.Columns(row), ", ")
}

// Projection returns the select clause listing the columns of a row struct,
// e.g. Projection(Asset{}) for query.Builder.Select.
func Projection(row any) string {
	return strings.Join(columnsOf(row), ",")
}

// ToRow converts a typed Insert or Update value into a query.Row. Nil
// pointer fields tagged omitempty are left out.
func ToRow(v any) (query.Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("schema: encode row: %w", err)
	}
	var row query.Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("schema: %T is not an object: %w", v, err)
	}
	return row, nil
}
