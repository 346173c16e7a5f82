package executor

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/anyx-app/secudash-43b2ee93/pkg/errors"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

//go:embed payload.schema.json
var payloadSchema string

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
})

// Decode checks raw against the payload schema and decodes it. Errors are
// 400 application errors naming the offending fields.
func Decode(raw []byte) (query.Payload, error) {
	var p query.Payload

	s, err := loadSchema()
	if err != nil {
		return p, apperrors.Internal(fmt.Errorf("payload schema: %w", err))
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return p, apperrors.BadRequest("request body is not valid JSON")
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return p, apperrors.BadRequest("invalid payload: " + strings.Join(errs, "; "))
	}

	if err := json.Unmarshal(raw, &p); err != nil {
		return p, apperrors.BadRequest("invalid payload: " + err.Error())
	}
	return p, nil
}
