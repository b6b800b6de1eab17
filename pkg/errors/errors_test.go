package errors_test

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	pkgerrors "github.com/joe/bulkops/pkg/errors"
)

func TestPatternMatcher_Categories(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected pkgerrors.ErrorCategory
	}{
		{"permission", "open /x: permission denied", pkgerrors.CategoryPermission},
		{"uppercase permission", "PERMISSION DENIED", pkgerrors.CategoryPermission},
		{"disk", "write /x: No Space Left On Device", pkgerrors.CategoryDiskSpace},
		{"path", "stat /x: no such file or directory", pkgerrors.CategoryPath},
		{"archive", "unsupported archive format: /a.7z", pkgerrors.CategoryArchive},
		{"archive before permission", "rewrite archive /a.zip: permission denied", pkgerrors.CategoryArchive},
		{"trash", "move /x to trash: permission denied", pkgerrors.CategoryTrash},
		{"unknown", "something unexpected", pkgerrors.CategoryUnknown},
	}

	matcher := pkgerrors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

func TestEnricher_EnrichAlreadyActionableError(t *testing.T) {
	t.Parallel()

	enricher := pkgerrors.NewEnricher()
	original := pkgerrors.NewActionableError(
		"permission denied",
		pkgerrors.CategoryPermission,
		[]string{"existing suggestion"},
		"/original/path",
	)

	enriched := enricher.Enrich(fmt.Errorf("wrapped: %w", original), "/new/path")

	if enriched != original {
		t.Error("expected same ActionableError instance when enriching ActionableError")
	}
}

func TestEnricher_EnrichNil(t *testing.T) {
	t.Parallel()

	if pkgerrors.NewEnricher().Enrich(nil, "") != nil {
		t.Error("expected nil for nil error")
	}
}

func TestEnricher_ExtractsPathAndKeepsCause(t *testing.T) {
	t.Parallel()

	_, cause := os.Open("/definitely/missing/file.txt")

	enriched := pkgerrors.NewEnricher().Enrich(cause, "")

	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr.Category() != pkgerrors.CategoryPath {
		t.Errorf("expected category %q, got %q", pkgerrors.CategoryPath, actionableErr.Category())
	}

	if actionableErr.AffectedPath() != "/definitely/missing/file.txt" {
		t.Errorf("expected extracted path, got %q", actionableErr.AffectedPath())
	}

	if !errors.Is(enriched, os.ErrNotExist) {
		t.Error("expected enriched error to unwrap to os.ErrNotExist")
	}

	if actionableErr.OriginalError() != cause.Error() {
		t.Errorf("expected original error %q, got %q", cause.Error(), actionableErr.OriginalError())
	}
}

func TestSuggestionGenerator_EveryCategoryHasSuggestions(t *testing.T) {
	t.Parallel()

	gen := pkgerrors.NewSuggestionGenerator()

	for _, category := range []pkgerrors.ErrorCategory{
		pkgerrors.CategoryArchive,
		pkgerrors.CategoryDiskSpace,
		pkgerrors.CategoryPath,
		pkgerrors.CategoryPermission,
		pkgerrors.CategoryTrash,
		pkgerrors.CategoryUnknown,
		"bogus",
	} {
		withPath := gen.Generate(category, "/some/path")
		if len(withPath) == 0 {
			t.Errorf("expected suggestions for %q", category)
		}

		if !strings.Contains(strings.Join(withPath, "\n"), "/some/path") {
			t.Errorf("expected %q suggestions to mention the path, got %v", category, withPath)
		}

		if len(gen.Generate(category, "")) == 0 {
			t.Errorf("expected suggestions for %q without a path", category)
		}
	}
}

func TestFormatSuggestions(t *testing.T) {
	t.Parallel()

	err := pkgerrors.NewActionableError(
		"permission denied",
		pkgerrors.CategoryPermission,
		[]string{"Check permissions", "Try again"},
		"/path/to/file",
	)

	expected := "  • Check permissions\n  • Try again"
	if formatted := pkgerrors.FormatSuggestions(err); formatted != expected {
		t.Errorf("expected:\n%q\ngot:\n%q", expected, formatted)
	}

	if pkgerrors.FormatSuggestions(nil) != "" {
		t.Error("expected empty string for nil error")
	}

	if pkgerrors.FormatSuggestions(errors.New("plain")) != "" {
		t.Error("expected empty string for non-actionable error")
	}

	empty := pkgerrors.NewActionableError("x", pkgerrors.CategoryUnknown, nil, "")
	if pkgerrors.FormatSuggestions(empty) != "" {
		t.Error("expected empty string for no suggestions")
	}
}
