package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidSnapshot is returned when a document does not match the snapshot contract.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

const schemaURL = "keyload://snapshot.schema.json"

// snapshotSchema pins the field names and array lengths of a snapshot.
const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["left", "right", "two_handed", "left_press", "right_press"],
    "additionalProperties": false,
    "properties": {
      "left": {"$ref": "#/definitions/fingers"},
      "right": {"$ref": "#/definitions/fingers"},
      "two_handed": {"type": "integer", "minimum": 0},
      "left_press": {"$ref": "#/definitions/fingers"},
      "right_press": {"$ref": "#/definitions/fingers"}
    }
  },
  "definitions": {
    "fingers": {
      "type": "array",
      "minItems": 5,
      "maxItems": 5,
      "items": {"type": "integer", "minimum": 0}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(snapshotSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Validate checks a JSON document against the snapshot contract.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}
