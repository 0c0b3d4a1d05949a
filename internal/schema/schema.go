// Package schema validates form definitions once, at load time. A JSON
// Schema is reflected from the domain types and compiled lazily; raw
// definitions are checked against it before decoding, so the rest of the
// codebase reads a typed Form and never re-validates.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	jsonschemav5 "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/xordon/webform-go/internal/domain"
)

const schemaID = "schema://webform/form"

var (
	compileOnce sync.Once
	compiled    *jsonschemav5.Schema
	compileErr  error
)

func formSchema() (*jsonschemav5.Schema, error) {
	compileOnce.Do(func() {
		reflector := jsonschema.Reflector{
			// The builder writes more keys than the runtime models; extra
			// properties must stay legal.
			AllowAdditionalProperties: true,
			// Presence checks live in domain.ValidateForm; the schema only
			// polices shapes, so nothing is required unless tagged.
			RequiredFromJSONSchemaTags: true,
		}
		reflected := reflector.Reflect(&domain.Form{})
		raw, err := json.Marshal(reflected)
		if err != nil {
			compileErr = fmt.Errorf("schema: marshal reflected schema: %w", err)
			return
		}
		compiler := jsonschemav5.NewCompiler()
		if err := compiler.AddResource(schemaID, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("schema: add resource: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaID)
	})
	return compiled, compileErr
}

// ValidateDefinition checks a raw form definition against the reflected
// schema without decoding it into domain types.
func ValidateDefinition(raw []byte) error {
	s, err := formSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("schema: definition is not valid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// ParseForm validates and decodes a raw definition, then applies the
// structural checks that the schema cannot express (unique field ids,
// coherent settings). Rule lint findings are advisory and not returned
// here; see domain.LintRules.
func ParseForm(raw []byte) (*domain.Form, error) {
	if err := ValidateDefinition(raw); err != nil {
		return nil, err
	}
	var form domain.Form
	if err := json.Unmarshal(raw, &form); err != nil {
		return nil, fmt.Errorf("schema: decode form: %w", err)
	}
	if err := domain.ValidateForm(&form); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &form, nil
}
