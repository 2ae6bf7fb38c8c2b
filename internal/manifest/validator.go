package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/requirements.schema.json
var schemaBytes []byte

const schemaURL = "requirements.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// Keywords whose failures only say that a branch did not match; the
// branch's own errors carry the detail.
var containerKeywords = map[string]bool{
	"":      true,
	"oneOf": true,
	"anyOf": true,
	"allOf": true,
	"$ref":  true,
}

// ValidationResult contains the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Path    string // instance location, e.g. "/0/scm" or "/roles/1/name"
	Message string
	Keyword string // failing schema keyword, e.g. "enum"
}

func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		if compiledSchema, err = c.Compile(schemaURL); err != nil {
			compileErr = fmt.Errorf("compiling schema: %w", err)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks a requirements manifest against the embedded schema. An
// empty document is valid. The error return is for unreadable YAML or a
// broken schema; violations are reported in the result.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if doc == nil {
		return &ValidationResult{Valid: true}, nil
	}

	// Round-trip through JSON so numbers reach the validator as json.Number.
	jsonData, err := json.Marshal(toJSONCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating: %w", err)
	}
	return &ValidationResult{Issues: leafIssues(ve)}, nil
}

// ValidateFile reads a requirements file and validates it.
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(data)
}

// leafIssues flattens the error tree into its informative leaves, sorted by
// location and without duplicates. oneOf produces one subtree per branch,
// so the same leaf often shows up more than once.
func leafIssues(root *jsonschema.ValidationError) []ValidationIssue {
	seen := make(map[ValidationIssue]bool)
	var issues []ValidationIssue

	var walk func(ve *jsonschema.ValidationError)
	walk = func(ve *jsonschema.ValidationError) {
		if len(ve.Causes) > 0 {
			for _, c := range ve.Causes {
				walk(c)
			}
			return
		}
		issue := ValidationIssue{}
		if ve.ErrorKind != nil {
			if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
				issue.Keyword = kw[len(kw)-1]
			}
			issue.Message = ve.ErrorKind.LocalizedString(printer)
		}
		if containerKeywords[issue.Keyword] {
			return
		}
		if len(ve.InstanceLocation) > 0 {
			issue.Path = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		if !seen[issue] {
			seen[issue] = true
			issues = append(issues, issue)
		}
	}
	walk(root)

	if len(issues) == 0 {
		return []ValidationIssue{{Message: root.Error()}}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Path < issues[j].Path
	})
	return issues
}

// toJSONCompatible rewrites maps with non-string keys, which yaml.v3
// produces for keys like `1:` and which encoding/json rejects.
func toJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = toJSONCompatible(item)
		}
		return val
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = toJSONCompatible(item)
		}
		return m
	case []any:
		for i, item := range val {
			val[i] = toJSONCompatible(item)
		}
		return val
	default:
		return val
	}
}

// Summary renders a one-line result, e.g. "valid" or "3 issues".
func (r *ValidationResult) Summary() string {
	if r.Valid {
		return "valid"
	}
	if len(r.Issues) == 1 {
		return "1 issue"
	}
	return printer.Sprintf("%d issues", len(r.Issues))
}
