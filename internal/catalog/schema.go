package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaDocument string

// SchemaError lists every schema violation found in a catalog document.
type SchemaError struct {
	Errors []FieldError
}

// FieldError is a single violation at a document path.
type FieldError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("catalog schema validation failed:\n")
	for i, fe := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, fe.Field, fe.Message))
	}
	return sb.String()
}

// ValidateDocument checks a decoded catalog document against the embedded
// JSON Schema.
func ValidateDocument(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaDocument),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to run catalog schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	se := &SchemaError{}
	for _, re := range result.Errors() {
		se.Errors = append(se.Errors, FieldError{
			Field:   re.Field(),
			Message: re.Description(),
		})
	}
	return se
}
