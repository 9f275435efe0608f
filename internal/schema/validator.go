// Package schema validates response bodies against JSON Schema documents.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceName = "schema.json"

// Violations lists the locations in a document that fail the schema.
type Violations []string

// Error joins the violations with "; ".
func (v Violations) Error() string {
	return strings.Join(v, "; ")
}

// Validator checks documents against one compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile parses and compiles a schema document.
func Compile(schemaStr string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource(resourceName, strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// CompileFile reads and compiles a schema file.
func CompileFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Compile(string(data))
}

// Validate checks a JSON document. It returns an error for malformed JSON and
// Violations when the document does not satisfy the schema.
func (v *Validator) Validate(document string) error {
	var data interface{}
	if err := json.Unmarshal([]byte(document), &data); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	err := v.schema.Validate(data)
	if err == nil {
		return nil
	}

	if verr, ok := err.(*jsonschema.ValidationError); ok {
		return collect(verr, nil)
	}
	return err
}

// collect flattens the cause tree, keeping leaf messages only.
func collect(err *jsonschema.ValidationError, out Violations) Violations {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, fmt.Sprintf("%s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		out = collect(cause, out)
	}
	return out
}
