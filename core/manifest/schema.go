package manifest

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schema.json
var schemaDoc []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		compiled, compileErr = compiler.Compile(schemaDoc)
	})
	if compileErr != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", compileErr)
	}
	return compiled, nil
}

// schemaViolations validates raw JSON bytes against the embedded manifest
// schema and converts any failures into Violations. It never panics on
// malformed input: a JSON parse failure inside the schema library surfaces
// as a single violation, not an error return, so callers always get a
// violation list back.
func schemaViolations(data []byte) []Violation {
	schema, err := compiledSchema()
	if err != nil {
		return []Violation{{Field: "$", Message: err.Error()}}
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return []Violation{{Field: "$", Message: fmt.Sprintf("%v", result.Errors)}}
}
