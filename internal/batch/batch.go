// Package batch runs a file of query payloads concurrently against the
// backend.
package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/anyx-app/secudash-43b2ee93/pkg/logger"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

// DefaultWorkers bounds concurrent requests when none is configured.
const DefaultWorkers = 8

// Item is one payload and the input line it came from.
type Item struct {
	Line    int
	Payload query.Payload
}

// Result is the outcome of one item. Status is set for backend failures.
type Result struct {
	Line   int    `json:"line"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
}

// Read parses JSON lines. Blank lines and lines starting with # are skipped.
func Read(r io.Reader) ([]Item, error) {
	var items []Item
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var p query.Payload
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, Item{Line: line, Payload: p})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Runner executes items with a bounded worker pool.
type Runner struct {
	client  *query.Client
	workers int
}

// NewRunner creates a runner sending through client with up to workers
// requests in flight.
func NewRunner(client *query.Client, workers int) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{client: client, workers: workers}
}

// Run executes every item and returns the results in input order. A failing
// item does not stop the others.
func (r *Runner) Run(ctx context.Context, items []Item) ([]Result, error) {
	pool, err := ants.NewPool(r.workers, ants.WithPanicHandler(func(v any) {
		logger.Error("batch task panic", "panic", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]Result, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		results[i] = Result{Line: item.Line, Error: "task did not complete"}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = r.runOne(ctx, item)
		})
		if err != nil {
			wg.Done()
			results[i] = Result{Line: item.Line, Error: err.Error()}
		}
	}
	wg.Wait()
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, item Item) Result {
	res := Result{Line: item.Line}
	data, err := r.client.FromPayload(item.Payload).Execute(ctx)
	if err != nil {
		res.Error = err.Error()
		var qf *query.QueryFailedError
		if errors.As(err, &qf) {
			res.Status = qf.Status
		}
		return res
	}
	res.Data = data
	return res
}

// Write prints results as JSON lines.
func Write(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}
