// Package shell is an interactive prompt that evaluates query chain
// expressions against the configured backend.
package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
	"github.com/anyx-app/secudash-43b2ee93/pkg/schema"
)

const prompt = "secudash> "

// ErrExit is returned by Eval for .exit.
var ErrExit = errors.New("exit")

const helpText = `Expressions:
  <table>.<method>(args)...     e.g. assets.select("id,name").eq("status","active").limit(5)

  select("a,b")  eq/neq/gt/gte/lt/lte("col", value)  like/ilike("col", "pat%")
  in("col", [v1, v2])  is("col")  order("col", {"ascending": false})
  limit(n)  offset(n)  single()  insert({...} | [{...}])  update({...})  delete()

Arguments are JSON values; strings use double quotes.

Commands:
  .help            show this help
  .tables          list tables and their columns
  .payload <expr>  print the request body without sending it
  .exit            leave the shell`

// Shell evaluates lines against a query client.
type Shell struct {
	client *query.Client
	out    io.Writer
}

// New creates a shell writing results to out.
func New(client *query.Client, out io.Writer) *Shell {
	return &Shell{client: client, out: out}
}

// Eval runs one input line. It returns ErrExit when the user asks to leave.
func (s *Shell) Eval(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, ".") {
		name, arg, _ := strings.Cut(line, " ")
		switch name {
		case ".help":
			fmt.Fprintln(s.out, helpText)
			return nil
		case ".exit", ".quit":
			return ErrExit
		case ".tables":
			for _, t := range schema.Tables() {
				fmt.Fprintf(s.out, "%s(%s)\n", t.Name, strings.Join(t.Columns, ", "))
			}
			return nil
		case ".payload":
			b, err := s.build(arg)
			if err != nil {
				return err
			}
			return s.print(b.Payload())
		}
		return fmt.Errorf("unknown command: %s", name)
	}

	b, err := s.build(line)
	if err != nil {
		return err
	}
	res, err := b.Execute(ctx)
	if err != nil {
		return err
	}
	return s.print(res)
}

func (s *Shell) build(expr string) (*query.Builder, error) {
	x, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return x.Apply(s.client.From(x.Table))
}

func (s *Shell) print(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Run reads lines from the terminal until .exit or EOF. History is kept in
// historyPath when it is not empty.
func (s *Shell) Run(ctx context.Context, historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer saveHistory(line, historyPath)
	}

	fmt.Fprintln(s.out, "Type .help for usage.")
	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if err := s.Eval(ctx, input); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintln(s.out, "ERROR:", err)
		}
	}
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

var methods = []string{
	"select(", "eq(", "neq(", "gt(", "gte(", "lt(", "lte(", "like(", "ilike(",
	"in(", "is(", "order(", "limit(", "offset(", "single()", "insert(", "update(", "delete()",
}

// complete offers table names at the start of a line and method names after
// the last dot.
func complete(line string) []string {
	var out []string
	if strings.HasPrefix(line, ".") {
		for _, c := range []string{".help", ".tables", ".payload ", ".exit"} {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	}

	dot := strings.LastIndex(line, ".")
	if dot < 0 {
		for _, t := range schema.Tables() {
			if strings.HasPrefix(t.Name, line) {
				out = append(out, t.Name)
			}
		}
		return out
	}
	head, partial := line[:dot+1], line[dot+1:]
	for _, m := range methods {
		if strings.HasPrefix(m, partial) {
			out = append(out, head+m)
		}
	}
	sort.Strings(out)
	return out
}
