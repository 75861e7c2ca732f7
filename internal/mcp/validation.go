package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator checks tool arguments against a compiled JSON Schema.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles a Draft 7 schema.
func NewSchemaValidator(name string, schemaMap map[string]any) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	schemaJSON, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal schema %s: %w", name, err)
	}

	url := name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("mcp: add schema %s: %w", name, err)
	}

	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("mcp: compile schema %s: %w", name, err)
	}

	return &SchemaValidator{schema: schema}, nil
}

// Validate checks decoded JSON arguments.
func (v *SchemaValidator) Validate(args any) error {
	err := v.schema.Validate(args)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validation failed: %w", err)
	}
	// The root error only says the document failed; the leaf names the rule.
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := ve.InstanceLocation
	if field == "" {
		field = "/"
	}
	return &ValidationError{Field: field, Message: ve.Message}
}

// ValidationError describes the first schema rule an argument broke.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}
