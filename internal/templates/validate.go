package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/roadmap-go/internal/utils"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath is the path to a JSON Schema file. If empty or missing,
	// validation compiles the bundled schema instead.
	SchemaPath string
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool // true if JSON Schema validation was performed
}

// Validate validates the template catalog file. Schema validation covers
// shape and types; relational checks (duplicate ids, dependency references)
// run on top of it because JSON Schema cannot express them.
func (f *File) Validate(opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	schemaResult := validateWithSchema(f, opts.SchemaPath)
	result.UsedSchema = schemaResult.UsedSchema
	result.Warnings = append(result.Warnings, schemaResult.Warnings...)

	if schemaResult.UsedSchema {
		if !schemaResult.Valid {
			result.Valid = false
			result.Errors = append(result.Errors, schemaResult.Errors...)
		}
	} else {
		result.Warnings = append(result.Warnings, "JSON Schema validation not available, using minimal checks")
		f.validateMinimal(result)
	}

	f.validateRelations(result)

	return result
}

// validateMinimal performs minimal validation without JSON Schema.
func (f *File) validateMinimal(result *ValidationResult) {
	if f.SchemaVersion != 1 {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "schema_version",
			Err:  fmt.Errorf("expected 1, got %d", f.SchemaVersion),
		})
	}

	if f.Templates == nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "templates",
			Err:  fmt.Errorf("missing required field"),
		})
		return
	}

	for i := range f.Templates {
		path := fmt.Sprintf("templates[%d]", i)
		if err := validateTemplateMinimal(&f.Templates[i], path); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err)
		}
	}
}

// validateTemplateMinimal performs minimal template validation.
func validateTemplateMinimal(t *TaskTemplate, path string) *ValidationError {
	if t.ID == "" {
		return &ValidationError{
			Path: path + ".id",
			Err:  fmt.Errorf("missing required field"),
		}
	}

	if t.Title == "" {
		return &ValidationError{
			Path: path + ".title",
			Err:  fmt.Errorf("missing required field"),
		}
	}

	if t.OffsetRule.AnchorName == "" {
		return &ValidationError{
			Path: path + ".offset_rule.anchor_name",
			Err:  fmt.Errorf("missing required field"),
		}
	}

	if t.DurationDays < 0 {
		return &ValidationError{
			Path: path + ".duration_days",
			Err:  fmt.Errorf("must be non-negative, got %d", t.DurationDays),
		}
	}

	if t.Status != "" && !t.Status.Valid() {
		return &ValidationError{
			Path: path + ".status",
			Err:  fmt.Errorf("invalid status %q, must be one of: pending, in_progress, done, blocked, skipped", t.Status),
		}
	}

	return nil
}

// validateRelations checks cross-template constraints: unique identifiers
// and resolvable dependency references.
func (f *File) validateRelations(result *ValidationResult) {
	ids := make(map[string]int, len(f.Templates))
	for i := range f.Templates {
		id := f.Templates[i].ID
		if id == "" {
			continue
		}
		if first, ok := ids[id]; ok {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: fmt.Sprintf("templates[%d].id", i),
				Err:  fmt.Errorf("duplicate identifier %q (first used by templates[%d])", id, first),
			})
			continue
		}
		ids[id] = i
	}

	for i := range f.Templates {
		for _, dep := range f.Templates[i].DependsOn {
			if dep == f.Templates[i].ID {
				result.Valid = false
				result.Errors = append(result.Errors, &ValidationError{
					Path: fmt.Sprintf("templates[%d].depends_on", i),
					Err:  fmt.Errorf("template %q depends on itself", dep),
				})
				continue
			}
			if _, ok := ids[dep]; !ok {
				result.Valid = false
				result.Errors = append(result.Errors, &ValidationError{
					Path: fmt.Sprintf("templates[%d].depends_on", i),
					Err:  fmt.Errorf("unknown dependency %q", dep),
				})
			}
		}
	}
}

// validateWithSchema attempts JSON Schema validation, preferring an on-disk
// schema and falling back to the bundled one.
func validateWithSchema(f *File, schemaPath string) *ValidationResult {
	result := &ValidationResult{
		Valid:      true,
		Errors:     make([]error, 0),
		Warnings:   make([]string, 0),
		UsedSchema: false,
	}

	schema, warning := compileSchema(schemaPath)
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}
	if schema == nil {
		return result
	}

	result.UsedSchema = true

	// Marshal the file back to JSON for validation
	fileData, err := json.Marshal(f)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to marshal file for validation: %w", err),
		})
		return result
	}

	var fileObj interface{}
	if err := json.Unmarshal(fileData, &fileObj); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to unmarshal file for validation: %w", err),
		})
		return result
	}

	if err := schema.Validate(fileObj); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}

	return result
}

// compileSchema compiles the on-disk schema when available, else the bundled
// one. A non-empty warning explains why the on-disk schema was skipped.
func compileSchema(schemaPath string) (*jsonschema.Schema, string) {
	if schemaPath != "" {
		absPath, err := filepath.Abs(schemaPath)
		if err == nil {
			if _, statErr := os.Stat(absPath); statErr == nil {
				compiler := jsonschema.NewCompiler()
				compiler.AssertFormat = true
				schema, compileErr := compiler.Compile(absPath)
				if compileErr == nil {
					return schema, ""
				}
				return compileBundled(fmt.Sprintf("invalid schema file %s: %v", absPath, compileErr))
			}
			return compileBundled("")
		}
		return compileBundled(fmt.Sprintf("invalid schema path: %v", err))
	}
	return compileBundled("")
}

func compileBundled(warning string) (*jsonschema.Schema, string) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource("templates.schema.json", strings.NewReader(BundledSchema)); err != nil {
		return nil, joinWarnings(warning, fmt.Sprintf("bundled schema unavailable: %v", err))
	}
	schema, err := compiler.Compile("templates.schema.json")
	if err != nil {
		return nil, joinWarnings(warning, fmt.Sprintf("bundled schema invalid: %v", err))
	}
	return schema, warning
}

func joinWarnings(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}

func appendSchemaErrors(result *ValidationResult, err error) {
	if err == nil {
		return
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}

	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}
