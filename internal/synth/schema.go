// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// outputSchema is the contract generator output must satisfy.
const outputSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["findings"],
  "properties": {
    "findings": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["text", "supporting_sources"],
        "properties": {
          "text": {"type": "string", "minLength": 1},
          "supporting_sources": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "category": {"type": "string"},
          "confidence": {"type": "number"}
        }
      }
    },
    "residual_gaps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["suggested_query"],
        "properties": {
          "description": {"type": "string"},
          "suggested_query": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSchema = mustCompile(outputSchema)

func mustCompile(src string) *jsonschema.Schema {
	schema, err := jsonschema.NewCompiler().Compile([]byte(src))
	if err != nil {
		panic(fmt.Sprintf("compiling synthesis output schema: %v", err))
	}
	return schema
}

// validateSchema checks data against the output schema.
func validateSchema(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: output is not valid JSON", ErrSchemaViolation)
	}
	result := compiledSchema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors))
	for field, e := range result.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %v", field, e))
	}
	sort.Strings(msgs)
	if len(msgs) == 0 {
		msgs = append(msgs, "invalid document")
	}
	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(msgs, "; "))
}
