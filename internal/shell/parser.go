package shell

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

// Call is one chained builder method with its decoded JSON arguments.
type Call struct {
	Method string
	Args   []any
}

// Expr is a parsed chain expression such as
//
//	assets.select("id,name").eq("status","open").limit(5)
type Expr struct {
	Table string
	Calls []Call
}

// Parse reads a chain expression. Arguments are JSON values; strings use
// double quotes.
func Parse(line string) (*Expr, error) {
	s := &scanner{src: strings.TrimSpace(line)}
	if s.src == "" {
		return nil, fmt.Errorf("empty expression")
	}

	table, err := s.ident()
	if err != nil {
		return nil, fmt.Errorf("table name: %w", err)
	}
	x := &Expr{Table: table}

	for {
		s.skipSpace()
		if s.done() {
			return x, nil
		}
		if !s.consume('.') {
			return nil, fmt.Errorf("expected '.' at offset %d", s.pos)
		}
		method, err := s.ident()
		if err != nil {
			return nil, fmt.Errorf("method name: %w", err)
		}
		s.skipSpace()
		if !s.consume('(') {
			return nil, fmt.Errorf("expected '(' after %s", method)
		}
		raw, err := s.args()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		args, err := decodeArgs(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		x.Calls = append(x.Calls, Call{Method: strings.ToLower(method), Args: args})
	}
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) skipSpace() {
	for !s.done() && unicode.IsSpace(rune(s.src[s.pos])) {
		s.pos++
	}
}

func (s *scanner) consume(b byte) bool {
	if !s.done() && s.src[s.pos] == b {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) ident() (string, error) {
	s.skipSpace()
	start := s.pos
	for !s.done() {
		c := rune(s.src[s.pos])
		if c != '_' && !unicode.IsLetter(c) && !(s.pos > start && unicode.IsDigit(c)) {
			break
		}
		s.pos++
	}
	if s.pos == start {
		return "", fmt.Errorf("identifier expected at offset %d", start)
	}
	return s.src[start:s.pos], nil
}

// args returns the raw text up to the closing parenthesis, skipping over
// nested brackets and string literals.
func (s *scanner) args() (string, error) {
	start := s.pos
	depth := 0
	inString := false
	for ; !s.done(); s.pos++ {
		c := s.src[s.pos]
		if inString {
			switch c {
			case '\\':
				s.pos++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ']', '}':
			depth--
		case ')':
			if depth == 0 {
				raw := s.src[start:s.pos]
				s.pos++
				return raw, nil
			}
			depth--
		}
	}
	return "", fmt.Errorf("missing ')'")
}

func decodeArgs(raw string) ([]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte("[" + raw + "]")))
	dec.UseNumber()
	var args []any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return normalize(args).([]any), nil
}

// normalize turns json.Number into int or float64 so values bind to SQL as
// numbers.
func normalize(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		f, _ := v.Float64()
		return f
	case []any:
		for i := range v {
			v[i] = normalize(v[i])
		}
		return v
	case map[string]any:
		for k := range v {
			v[k] = normalize(v[k])
		}
		return v
	}
	return v
}

// Apply replays the calls onto b.
func (x *Expr) Apply(b *query.Builder) (*query.Builder, error) {
	for _, call := range x.Calls {
		var err error
		if b, err = apply(b, call); err != nil {
			return nil, fmt.Errorf("%s: %w", call.Method, err)
		}
	}
	return b, b.Err()
}

func apply(b *query.Builder, c Call) (*query.Builder, error) {
	args := c.Args
	switch c.Method {
	case "select":
		cols := make([]string, 0, len(args))
		for i := range args {
			s, err := stringArg(args, i)
			if err != nil {
				return nil, err
			}
			cols = append(cols, s)
		}
		return b.Select(cols...), nil

	case "eq", "neq", "gt", "gte", "lt", "lte":
		if len(args) != 2 {
			return nil, fmt.Errorf("expects (column, value)")
		}
		col, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return map[string]func(string, any) *query.Builder{
			"eq": b.Eq, "neq": b.Neq, "gt": b.Gt, "gte": b.Gte, "lt": b.Lt, "lte": b.Lte,
		}[c.Method](col, args[1]), nil

	case "like", "ilike":
		if len(args) != 2 {
			return nil, fmt.Errorf("expects (column, pattern)")
		}
		col, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		pattern, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		if c.Method == "like" {
			return b.Like(col, pattern), nil
		}
		return b.ILike(col, pattern), nil

	case "in":
		if len(args) < 1 {
			return nil, fmt.Errorf("expects (column, [values])")
		}
		col, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		values := args[1:]
		if len(values) == 1 {
			if list, ok := values[0].([]any); ok {
				values = list
			}
		}
		return b.In(col, values...), nil

	case "is":
		if len(args) < 1 || len(args) > 2 || (len(args) == 2 && args[1] != nil) {
			return nil, fmt.Errorf("expects (column) or (column, null)")
		}
		col, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return b.Is(col), nil

	case "order":
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("expects (column) or (column, {\"ascending\": bool})")
		}
		col, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		if len(args) == 2 {
			opts, ok := args[1].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("options must be an object")
			}
			if asc, ok := opts["ascending"].(bool); ok {
				return b.Order(col, query.Ascending(asc)), nil
			}
		}
		return b.Order(col), nil

	case "limit", "offset":
		if len(args) != 1 {
			return nil, fmt.Errorf("expects one integer")
		}
		n, ok := args[0].(int)
		if !ok {
			return nil, fmt.Errorf("expects an integer, got %v", args[0])
		}
		if c.Method == "limit" {
			return b.Limit(n), nil
		}
		return b.Offset(n), nil

	case "single":
		return b.Single(), nil

	case "insert":
		if len(args) != 1 {
			return nil, fmt.Errorf("expects an object or a list of objects")
		}
		switch v := args[0].(type) {
		case map[string]any:
			return b.Insert(v), nil
		case []any:
			rows := make([]query.Row, 0, len(v))
			for _, item := range v {
				row, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("rows must be objects")
				}
				rows = append(rows, row)
			}
			return b.Insert(rows...), nil
		}
		return nil, fmt.Errorf("expects an object or a list of objects")

	case "update":
		if len(args) != 1 {
			return nil, fmt.Errorf("expects one object")
		}
		values, ok := args[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expects one object")
		}
		return b.Update(values), nil

	case "delete":
		return b.Delete(), nil
	}
	return nil, fmt.Errorf("unknown method")
}

func stringArg(args []any, i int) (string, error) {
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d must be a string", i+1)
	}
	return s, nil
}
