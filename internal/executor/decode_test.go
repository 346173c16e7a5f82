package executor

import (
	"net/http"
	"strings"
	"testing"

	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

func TestDecode(t *testing.T) {
	raw := `{"table":"assets","operation":"update","values":{"status":"retired"},` +
		`"filters":[{"column":"id","operator":"in","value":["a1","a2"]}]}`

	p, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Table != "assets" || p.Operation != query.OperationUpdate {
		t.Errorf("payload = %+v", p)
	}
	values, err := p.UpdateValues()
	if err != nil || values["status"] != "retired" {
		t.Errorf("values = %v, %v", values, err)
	}
	if len(p.Filters) != 1 || p.Filters[0].Operator != query.OpIn {
		t.Errorf("filters = %+v", p.Filters)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", `{"table":`, "not valid JSON"},
		{"missing table", `{"operation":"select"}`, "table"},
		{"bad operation", `{"table":"assets","operation":"upsert"}`, "operation"},
		{"bad operator", `{"table":"assets","filters":[{"column":"id","operator":"regex","value":"x"}]}`, "operator"},
		{"negative limit", `{"table":"assets","limit":-2}`, "limit"},
		{"fractional offset", `{"table":"assets","offset":1.5}`, "offset"},
		{"scalar values", `{"table":"assets","operation":"insert","values":3}`, "values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := status(t, err); got != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", got)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
