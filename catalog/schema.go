package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ValidationError is a single schema violation.
type ValidationError struct {
	Field       string
	Description string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidateJSON checks raw JSON catalog data against the catalog schema.
func ValidateJSON(data []byte) error {
	return validate(gojsonschema.NewBytesLoader(data))
}

// ValidateDocument checks an already decoded catalog document, such as the
// output of yaml.Unmarshal into an any.
func ValidateDocument(doc any) error {
	return validate(gojsonschema.NewGoLoader(doc))
}

func validate(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schemaJSON), doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, ValidationError{Field: e.Field(), Description: e.Description()}.Error())
	}
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
}
