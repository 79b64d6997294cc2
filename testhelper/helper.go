package testhelper

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var whiteSpaces = regexp.MustCompile(`(\s+)`)

// TrimIndent strips the common leading indentation of an inline test script
// literal so scripts can be written indented inside Go source. The first
// (empty) line after the opening quote is dropped.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")

	var indent string
	if len(lines) > 1 {
		indent = whiteSpaces.FindString(lines[1])
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}

	return strings.Join(lines[1:], "\n")
}

// WriteScript writes an inline script to a temp file and returns its path.
func WriteScript(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write script %s: %v", name, err)
	}

	return path
}
