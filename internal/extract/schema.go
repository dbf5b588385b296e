package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// recordSchema is the JSON Schema the extracted array must satisfy before
// decoding. It tolerates the same flexibility the record types do: payin
// as string or number, remark as string or list of strings.
const recordSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"segment": {"type": "string"},
			"policy_type": {"type": "string"},
			"location": {"type": "string"},
			"payin": {"type": ["string", "number", "null"]},
			"remark": {
				"oneOf": [
					{"type": "string"},
					{"type": "array", "items": {"type": "string"}},
					{"type": "null"}
				]
			}
		},
		"required": ["segment"]
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("records.json", strings.NewReader(recordSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("records.json")
	})
	return compiledSchema, schemaErr
}

// ValidateRecords checks that data is a well-formed record array.
func ValidateRecords(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("%w: schema unavailable: %v", domain.ErrExtraction, err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	return nil
}
