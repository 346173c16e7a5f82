package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anyx-app/secudash-43b2ee93/internal/database"
	"github.com/anyx-app/secudash-43b2ee93/internal/executor"
	"github.com/anyx-app/secudash-43b2ee93/pkg/config"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

func newTestServer(t *testing.T, mutate func(*config.Server)) *httptest.Server {
	t.Helper()
	cfg := config.DefaultServer()
	cfg.Rate.RPM = 0
	if mutate != nil {
		mutate(&cfg)
	}

	db, err := database.Open(database.Config{
		Driver:  database.DriverSQLite,
		DSN:     ":memory:?_pragma=foreign_keys(1)",
		Migrate: true,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(New(cfg, executor.New(db.DB, executor.SQLite)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func client(srv *httptest.Server, project string) *query.Client {
	return query.NewClient(query.WithEndpoint(srv.URL, project), query.WithHTTPClient(srv.Client()))
}

type envelope struct {
	Data  []map[string]any `json:"data"`
	Count int              `json:"count"`
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestQuery_RoundTrip(t *testing.T) {
	srv := newTestServer(t, nil)
	c := client(srv, "proj-1")
	ctx := context.Background()

	var inserted envelope
	err := c.From("assets").
		Insert(query.Row{"name": "web-1", "type": "server"}, query.Row{"name": "db-1", "type": "server"}).
		Select("id,name").
		ExecuteInto(ctx, &inserted)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if inserted.Count != 2 {
		t.Fatalf("inserted = %+v", inserted)
	}

	var listed envelope
	if err := c.From("assets").Select("name").Order("name").ExecuteInto(ctx, &listed); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(listed.Data) != 2 || listed.Data[0]["name"] != "db-1" {
		t.Errorf("listed = %+v", listed.Data)
	}

	var other envelope
	if err := client(srv, "proj-2").From("assets").ExecuteInto(ctx, &other); err != nil {
		t.Fatalf("select other project: %v", err)
	}
	if other.Count != 0 {
		t.Errorf("proj-2 sees %d rows", other.Count)
	}
}

func TestQuery_FailuresCarryServerMessage(t *testing.T) {
	srv := newTestServer(t, nil)
	c := client(srv, "proj-1")
	ctx := context.Background()

	tests := []struct {
		name   string
		b      *query.Builder
		status int
		msg    string
	}{
		{"single none", c.From("assets").Eq("id", "missing").Single(), http.StatusNotFound, "no rows returned"},
		{"unknown table", c.From("secrets"), http.StatusBadRequest, `unknown table "secrets"`},
		{"unknown column", c.From("assets").Select("password"), http.StatusBadRequest, `unknown column "password" on table "assets"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Execute(ctx)
			var qf *query.QueryFailedError
			if !errors.As(err, &qf) {
				t.Fatalf("err = %v, want QueryFailedError", err)
			}
			if qf.Status != tt.status || qf.Message != tt.msg {
				t.Errorf("got %d %q, want %d %q", qf.Status, qf.Message, tt.status, tt.msg)
			}
		})
	}
}

func TestQuery_InvalidBody(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := srv.Client().Post(srv.URL+"/api/projects/p/query", "application/json", strings.NewReader(`{"table":`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestQuery_RateLimited(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Server) {
		cfg.Rate.RPM = 1
		cfg.Rate.Burst = 1
	})
	ctx := context.Background()

	if _, err := client(srv, "busy").From("assets").Execute(ctx); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := client(srv, "busy").From("assets").Execute(ctx)
	if err == nil || err.Error() != "rate limit exceeded" {
		t.Errorf("err = %v, want rate limit exceeded", err)
	}
	if _, err := client(srv, "quiet").From("assets").Execute(ctx); err != nil {
		t.Errorf("other project limited: %v", err)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	srv := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/projects/p/query", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request id = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestRateLimiter_PrunesIdleBuckets(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(60, 1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(2 * time.Minute)
	rl.Allow("b")

	if _, ok := rl.limiters["a"]; ok {
		t.Error("idle bucket kept")
	}
	if rl.Allow("b") {
		t.Error("burst of 1 allowed a second request in the same instant")
	}
}
