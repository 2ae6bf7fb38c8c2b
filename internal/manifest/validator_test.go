package manifest

import (
	"testing"
)

func TestValidateFile_Valid(t *testing.T) {
	for _, file := range []string{"requirements-list.yml", "requirements-mapping.yml"} {
		t.Run(file, func(t *testing.T) {
			result, err := ValidateFile(testPath(file))
			if err != nil {
				t.Fatalf("ValidateFile(%s) error: %v", file, err)
			}
			if !result.Valid {
				t.Errorf("expected valid, got invalid with %d issues:", len(result.Issues))
				for _, issue := range result.Issues {
					t.Errorf("  path=%s keyword=%s message=%s", issue.Path, issue.Keyword, issue.Message)
				}
			}
			if result.Summary() != "valid" {
				t.Errorf("Summary = %q", result.Summary())
			}
		})
	}
}

func TestValidateFile_Invalid(t *testing.T) {
	tests := []struct {
		file string
		desc string
	}{
		{"requirements-invalid.yml", "entries without name/src and empty string"},
		{"requirements-bad-scm.yml", "unsupported scm"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result, err := ValidateFile(testPath(tt.file))
			if err != nil {
				t.Fatalf("ValidateFile(%s) unexpected error: %v", tt.file, err)
			}
			if result.Valid {
				t.Errorf("expected invalid for %s (%s), but got valid", tt.file, tt.desc)
			}
			if len(result.Issues) == 0 {
				t.Errorf("expected at least one issue for %s (%s)", tt.file, tt.desc)
			}
			if result.Summary() == "valid" {
				t.Errorf("Summary should report issues")
			}
		})
	}
}

func TestValidateFile_InvalidYAML(t *testing.T) {
	if _, err := ValidateFile(testPath("requirements-not-yaml.yml")); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestValidateFile_NotFound(t *testing.T) {
	if _, err := ValidateFile(testPath("nonexistent.yml")); err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestValidate_TopLevelScalar(t *testing.T) {
	result, err := Validate([]byte("42\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Error("a bare number is not a requirements manifest")
	}
}

func TestSummary(t *testing.T) {
	r := &ValidationResult{Issues: []ValidationIssue{{}}}
	if got := r.Summary(); got != "1 issue" {
		t.Errorf("Summary = %q", got)
	}
	r.Issues = append(r.Issues, ValidationIssue{}, ValidationIssue{})
	if got := r.Summary(); got != "3 issues" {
		t.Errorf("Summary = %q", got)
	}
}

func TestValidate_Empty(t *testing.T) {
	for _, doc := range []string{"", "# nothing yet\n", "~\n"} {
		result, err := Validate([]byte(doc))
		if err != nil {
			t.Fatalf("Validate(%q) error: %v", doc, err)
		}
		if !result.Valid {
			t.Errorf("Validate(%q) should be valid", doc)
		}
	}
}

func TestValidate_IssuePaths(t *testing.T) {
	result, err := Validate([]byte("- name: nginx\n  scm: svn\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.Path == "/0/scm" && issue.Keyword == "enum" {
			found = true
			if got := issue.String(); got != "/0/scm: "+issue.Message {
				t.Errorf("String = %q", got)
			}
		}
	}
	if !found {
		t.Errorf("expected an enum issue at /0/scm, got %+v", result.Issues)
	}
}

func TestValidate_NonStringKeys(t *testing.T) {
	result, err := Validate([]byte("roles:\n  - name: nginx\n1: extra\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Error("unknown top-level key should be rejected")
	}
}
