package snapset

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// requestSchema validates snapshot-set request bodies before they reach the
// engine, so malformed input fails with a field-level message instead of a
// mid-operation error.
const requestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "volumes"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "volumes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["vg", "percent_space_required"],
        "properties": {
          "name": {"type": "string"},
          "vg": {"type": "string", "minLength": 1},
          "lv": {"type": "string", "minLength": 1},
          "percent_space_required": {"type": "integer", "minimum": 2},
          "mountpoint": {"type": "string"},
          "mountpoint_create": {"type": "boolean"},
          "mount_origin": {"type": "boolean"},
          "fstype": {"type": "string"},
          "options": {"type": "string"},
          "all_targets": {"type": "boolean"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(requestSchema)

// ValidationError lists the schema problems found in a request body.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "snapshot set validation failed: " + strings.Join(e.Problems, "; ")
}

// ValidateJSON checks a raw request body against the set schema.
func ValidateJSON(body []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, e := range result.Errors() {
			verr.Problems = append(verr.Problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return verr
	}
	return nil
}
