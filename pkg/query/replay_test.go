package query

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFromPayload_RoundTrips(t *testing.T) {
	builders := []*Builder{
		From("assets").Select("id,name").Eq("status", "open").Order("name", Descending()).Limit(5).Offset(10),
		From("profiles").Eq("id", "u1").Single(),
		From("assets").Insert(Row{"name": "a", "type": "server"}).Select("id"),
		From("assets").Update(Row{"status": "retired"}).In("id", "a1", "a2"),
		From("vulnerabilities").Delete().Is("asset_id"),
	}

	for _, b := range builders {
		want, _ := json.Marshal(b.Payload())

		// decode like a file reader would, so values take their generic JSON forms
		var decoded Payload
		if err := json.Unmarshal(want, &decoded); err != nil {
			t.Fatal(err)
		}
		replayed := FromPayload(decoded)
		if err := replayed.Err(); err != nil {
			t.Fatalf("FromPayload(%s): %v", want, err)
		}
		got, _ := json.Marshal(replayed.Payload())
		if string(got) != string(want) {
			t.Errorf("replayed\n%s\nwant\n%s", got, want)
		}
	}
}

func TestFromPayload_BadValues(t *testing.T) {
	b := FromPayload(Payload{Table: "assets", Operation: OperationUpdate, Values: []any{1}})
	if !errors.Is(b.Err(), ErrInvalidPayload) {
		t.Errorf("err = %v, want ErrInvalidPayload", b.Err())
	}
	b = FromPayload(Payload{Table: "assets", Operation: "upsert"})
	if !errors.Is(b.Err(), ErrInvalidPayload) {
		t.Errorf("err = %v, want ErrInvalidPayload", b.Err())
	}
}
