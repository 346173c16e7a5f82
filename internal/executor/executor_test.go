package executor

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/anyx-app/secudash-43b2ee93/internal/database"
	apperrors "github.com/anyx-app/secudash-43b2ee93/pkg/errors"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

func newTestExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver:  database.DriverSQLite,
		DSN:     ":memory:?_pragma=foreign_keys(1)",
		Migrate: true,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db.DB, SQLite, opts...)
}

func run(t *testing.T, e *Executor, project string, b *query.Builder) *Result {
	t.Helper()
	if err := b.Err(); err != nil {
		t.Fatalf("builder: %v", err)
	}
	p := b.Payload()
	res, err := e.Execute(context.Background(), project, p)
	if err != nil {
		t.Fatalf("Execute(%s %s): %v", p.Operation, p.Table, err)
	}
	return res
}

func status(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an AppError", err)
	}
	return appErr.Code
}

func seedAssets(t *testing.T, e *Executor, project string) {
	t.Helper()
	run(t, e, project, query.From("assets").Insert(
		query.Row{"id": "a1", "name": "web-1", "type": "server", "status": "active", "risk_score": 7.5},
		query.Row{"id": "a2", "name": "db-1", "type": "server", "status": "active", "risk_score": 9.1},
		query.Row{"id": "a3", "name": "Laptop-7", "type": "endpoint", "status": "retired", "risk_score": 2.0},
	))
}

func rows(t *testing.T, res *Result) []query.Row {
	t.Helper()
	out, ok := res.Data.([]query.Row)
	if !ok {
		t.Fatalf("data is %T, want []query.Row", res.Data)
	}
	return out
}

func TestInsert_ReturningGeneratesID(t *testing.T) {
	e := newTestExecutor(t)

	res := run(t, e, "p1", query.From("assets").
		Insert(query.Row{"name": "web-1", "type": "server"}).
		Select("id,name,status"))

	got := rows(t, res)
	if len(got) != 1 || res.Count != 1 {
		t.Fatalf("rows = %v", got)
	}
	if id, _ := got[0]["id"].(string); len(id) != 36 {
		t.Errorf("id = %v, want generated uuid", got[0]["id"])
	}
	if got[0]["status"] != "active" {
		t.Errorf("status = %v, want column default", got[0]["status"])
	}
	if _, leaked := got[0]["project_id"]; leaked {
		t.Error("project_id leaked into the result")
	}
}

func TestInsert_WithoutSelectReportsCount(t *testing.T) {
	e := newTestExecutor(t)

	res := run(t, e, "p1", query.From("assets").Insert(
		query.Row{"name": "a", "type": "server"},
		query.Row{"name": "b", "type": "server"},
	))
	if res.Data != nil || res.Count != 2 {
		t.Errorf("result = %+v, want nil data and count 2", res)
	}
}

func TestInsert_DuplicateIsConflict(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")

	p := query.From("assets").Insert(query.Row{"id": "a1", "name": "x", "type": "server"}).Payload()
	_, err := e.Execute(context.Background(), "p1", p)
	if err == nil {
		t.Fatal("expected conflict")
	}
	if got := status(t, err); got != http.StatusConflict {
		t.Errorf("status = %d, want 409", got)
	}
}

func TestInsert_RollsBackWholeBatch(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")

	p := query.From("assets").Insert(
		query.Row{"id": "fresh", "name": "x", "type": "server"},
		query.Row{"id": "a1", "name": "dup", "type": "server"},
	).Payload()
	if _, err := e.Execute(context.Background(), "p1", p); err == nil {
		t.Fatal("expected conflict")
	}

	res := run(t, e, "p1", query.From("assets").Eq("id", "fresh"))
	if res.Count != 0 {
		t.Errorf("partial insert committed: %v", res.Data)
	}
}

func TestSelect_ScopedToProject(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")

	if res := run(t, e, "p2", query.From("assets")); res.Count != 0 {
		t.Errorf("p2 sees %d rows of p1", res.Count)
	}
	if res := run(t, e, "p1", query.From("assets")); res.Count != 3 {
		t.Errorf("p1 rows = %d, want 3", res.Count)
	}
}

func TestSelect_Filters(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")

	tests := []struct {
		name string
		b    *query.Builder
		want []string
	}{
		{"eq", query.From("assets").Eq("status", "active"), []string{"a1", "a2"}},
		{"neq", query.From("assets").Neq("status", "active"), []string{"a3"}},
		{"gt", query.From("assets").Gt("risk_score", 7.5), []string{"a2"}},
		{"gte", query.From("assets").Gte("risk_score", 7.5), []string{"a1", "a2"}},
		{"lt", query.From("assets").Lt("risk_score", 7.5), []string{"a3"}},
		{"lte", query.From("assets").Lte("risk_score", 2), []string{"a3"}},
		{"like", query.From("assets").Like("name", "%-1"), []string{"a1", "a2"}},
		{"ilike", query.From("assets").ILike("name", "laptop%"), []string{"a3"}},
		{"in", query.From("assets").In("id", "a1", "a3"), []string{"a1", "a3"}},
		{"in typed slice", query.From("assets").In("id", []string{"a2", "a3"}), []string{"a2", "a3"}},
		{"in empty", query.From("assets").In("id"), nil},
		{"is null", query.From("assets").Is("ip_address"), []string{"a1", "a2", "a3"}},
		{"anded", query.From("assets").Eq("type", "server").Gt("risk_score", 8), []string{"a2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rows(t, run(t, e, "p1", tt.b.Order("id")))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %v", len(got), tt.want)
			}
			for i, id := range tt.want {
				if got[i]["id"] != id {
					t.Errorf("row %d id = %v, want %s", i, got[i]["id"], id)
				}
			}
		})
	}
}

func TestSelect_OrderLimitOffset(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")

	got := rows(t, run(t, e, "p1", query.From("assets").
		Select("id").
		Order("type").
		Order("risk_score", query.Descending()).
		Limit(2)))
	if len(got) != 2 || got[0]["id"] != "a3" || got[1]["id"] != "a2" {
		t.Errorf("rows = %v, want a3, a2", got)
	}

	// offset without a limit
	got = rows(t, run(t, e, "p1", query.From("assets").Select("id").Order("id").Offset(1)))
	if len(got) != 2 || got[0]["id"] != "a2" {
		t.Errorf("rows = %v, want a2, a3", got)
	}
}

func TestSelect_MaxRowsCaps(t *testing.T) {
	e := newTestExecutor(t, WithMaxRows(2))
	seedAssets(t, e, "p1")

	if res := run(t, e, "p1", query.From("assets")); res.Count != 2 {
		t.Errorf("count = %d, want cap of 2", res.Count)
	}
	if res := run(t, e, "p1", query.From("assets").Limit(1)); res.Count != 1 {
		t.Errorf("count = %d, want explicit limit 1", res.Count)
	}
}

func TestSelect_Single(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")

	res := run(t, e, "p1", query.From("assets").Select("id,name").Eq("id", "a2").Single())
	row, ok := res.Data.(query.Row)
	if !ok || row["name"] != "db-1" {
		t.Errorf("data = %#v, want db-1 row", res.Data)
	}

	p := query.From("assets").Eq("id", "zz").Single().Payload()
	_, err := e.Execute(context.Background(), "p1", p)
	if got := status(t, err); got != http.StatusNotFound || err.Error() != "no rows returned" {
		t.Errorf("none: %d %v", got, err)
	}

	p = query.From("assets").Eq("type", "server").Single().Payload()
	_, err = e.Execute(context.Background(), "p1", p)
	if got := status(t, err); got != http.StatusNotAcceptable || err.Error() != "multiple rows returned" {
		t.Errorf("many: %d %v", got, err)
	}
}

func TestUpdate(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")
	seedAssets(t, e, "p2")

	res := run(t, e, "p1", query.From("assets").
		Update(query.Row{"status": "retired"}).
		Eq("type", "server").
		Select("id,status"))
	got := rows(t, res)
	if len(got) != 2 {
		t.Fatalf("updated rows = %v", got)
	}
	for _, r := range got {
		if r["status"] != "retired" {
			t.Errorf("row %v not updated", r)
		}
	}

	if res := run(t, e, "p2", query.From("assets").Eq("status", "retired")); res.Count != 1 {
		t.Errorf("p2 retired = %d, want untouched 1", res.Count)
	}

	res = run(t, e, "p1", query.From("assets").Update(query.Row{"risk_score": 0}).Eq("id", "a1"))
	if res.Count != 1 || res.Data != nil {
		t.Errorf("result = %+v", res)
	}
}

func TestUpdate_RejectsID(t *testing.T) {
	e := newTestExecutor(t)
	p := query.From("assets").Update(query.Row{"id": "x"}).Payload()
	if _, err := e.Execute(context.Background(), "p1", p); status(t, err) != http.StatusBadRequest {
		t.Errorf("err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")
	run(t, e, "p1", query.From("vulnerabilities").Insert(
		query.Row{"asset_id": "a1", "title": "Outdated TLS", "severity": "high"},
	))

	res := run(t, e, "p1", query.From("assets").Delete().Eq("id", "a1"))
	if res.Count != 1 {
		t.Errorf("deleted = %d, want 1", res.Count)
	}
	if res := run(t, e, "p1", query.From("vulnerabilities")); res.Count != 0 {
		t.Errorf("vulnerabilities left = %d, want cascade", res.Count)
	}
}

func TestForeignKeyIsConflict(t *testing.T) {
	e := newTestExecutor(t)
	p := query.From("vulnerabilities").Insert(query.Row{"asset_id": "missing", "title": "x"}).Payload()
	if _, err := e.Execute(context.Background(), "p1", p); status(t, err) != http.StatusConflict {
		t.Errorf("err = %v, want 409", err)
	}
}

func TestCheckConstraintIsBadRequest(t *testing.T) {
	e := newTestExecutor(t)
	p := query.From("profiles").Insert(query.Row{"id": "u1", "role": "root"}).Payload()
	if _, err := e.Execute(context.Background(), "p1", p); status(t, err) != http.StatusBadRequest {
		t.Errorf("err = %v, want 400", err)
	}
}

func TestExecute_Rejects(t *testing.T) {
	e := newTestExecutor(t)

	tests := []struct {
		name    string
		project string
		p       query.Payload
	}{
		{"no project", "", query.Payload{Table: "assets"}},
		{"unknown table", "p1", query.Payload{Table: "secrets"}},
		{"unknown select column", "p1", query.Payload{Table: "assets", Select: "id,password"}},
		{"unknown filter column", "p1", query.Payload{Table: "assets", Filters: []query.Filter{{Column: "x", Operator: query.OpEq, Value: 1}}}},
		{"unknown order column", "p1", query.Payload{Table: "assets", Order: []query.Order{{Column: "x"}}}},
		{"tenant column write", "p1", query.Payload{Table: "assets", Operation: query.OperationInsert, Values: []any{map[string]any{"project_id": "p2", "name": "a", "type": "b"}}}},
		{"non scalar filter", "p1", query.Payload{Table: "assets", Filters: []query.Filter{{Column: "id", Operator: query.OpEq, Value: []any{1}}}}},
		{"null gt", "p1", query.Payload{Table: "assets", Filters: []query.Filter{{Column: "risk_score", Operator: query.OpGt, Value: nil}}}},
		{"null lte", "p1", query.Payload{Table: "assets", Filters: []query.Filter{{Column: "risk_score", Operator: query.OpLte, Value: nil}}}},
		{"null like", "p1", query.Payload{Table: "assets", Filters: []query.Filter{{Column: "name", Operator: query.OpLike, Value: nil}}}},
		{"null ilike", "p1", query.Payload{Table: "assets", Filters: []query.Filter{{Column: "name", Operator: query.OpILike, Value: nil}}}},
		{"null in", "p1", query.Payload{Table: "assets", Filters: []query.Filter{{Column: "id", Operator: query.OpIn, Value: nil}}}},
		{"negative limit", "p1", query.Payload{Table: "assets", Limit: intPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), tt.project, tt.p)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := status(t, err); got != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%v)", got, err)
			}
		})
	}
}

func TestExecute_DefaultsToSelect(t *testing.T) {
	e := newTestExecutor(t)
	seedAssets(t, e, "p1")

	res, err := e.Execute(context.Background(), "p1", query.Payload{Table: "assets"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Count != 3 {
		t.Errorf("count = %d", res.Count)
	}
}

func intPtr(n int) *int { return &n }
