package bank

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const documentSchemaURL = "schema://question-bank.json"

// documentSchema checks the container shape only. Individual entries are
// converted (and possibly rejected) one by one after flattening.
const documentSchema = `{
  "$defs": {
    "entry": {
      "type": "object",
      "properties": {
        "questions": {"type": "array", "items": {"$ref": "#/$defs/entry"}}
      }
    },
    "list": {"type": "array", "items": {"$ref": "#/$defs/entry"}}
  },
  "oneOf": [
    {"$ref": "#/$defs/list"},
    {
      "type": "object",
      "required": ["questions"],
      "properties": {"questions": {"$ref": "#/$defs/list"}}
    }
  ]
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func getCompiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(documentSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(documentSchemaURL)
	})
	return compiledSchema, compileErr
}

// validateDocument checks a decoded bank document against documentSchema.
func validateDocument(doc any) error {
	compiled, err := getCompiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
