package authoring

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/roadmap-go/internal/templates"
	"github.com/nibzard/roadmap-go/internal/utils"
)

// ReplyValidationError aggregates everything wrong with one agent reply,
// so the user sees all violations in a single round trip.
type ReplyValidationError struct {
	Errors []error
}

func (e *ReplyValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "agent reply is invalid"
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "agent reply is invalid: " + strings.Join(msgs, "; ")
}

// validateReply checks raw JSON extracted from an agent reply against a
// reply schema. schemaSrc may be the bundled schema or an override.
func validateReply(schemaName, schemaSrc string, raw []byte) error {
	schema, err := compileReplySchema(schemaName, schemaSrc)
	if err != nil {
		return err
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("parse agent reply: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return err
		}
		return &ReplyValidationError{Errors: collectReplyErrors(nil, ve)}
	}
	return nil
}

func compileReplySchema(name, src string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

func collectReplyErrors(errs []error, err *jsonschema.ValidationError) []error {
	if err == nil {
		return errs
	}
	if len(err.Causes) == 0 {
		return append(errs, &templates.ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
	}
	for _, cause := range err.Causes {
		errs = collectReplyErrors(errs, cause)
	}
	return errs
}
