package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlogic/sqlogic/compare"
	"github.com/sqlogic/sqlogic/script"
)

func sampleSummary() *Summary {
	summary := newSummary()

	summary.add(ScriptResult{
		Path: "a.slt",
		Verdicts: []compare.Verdict{
			{Kind: compare.Pass, Location: script.Location{Path: "a.slt", Line: 1}},
			{Kind: compare.Pass, Location: script.Location{Path: "a.slt", Line: 4}},
		},
	})
	summary.add(ScriptResult{
		Path: "b.slt",
		Verdicts: []compare.Verdict{
			{
				Kind:     compare.Fail,
				Location: script.Location{Path: "b.slt", Line: 2},
				SQL:      "SELECT v1 FROM t",
				Reason:   "value mismatch at row 1 column 1",
				Expected: []string{"1"},
				Actual:   []string{"2"},
			},
			{Kind: compare.Skipped, Location: script.Location{Path: "b.slt", Line: 6}, Reason: "halted"},
		},
	})
	summary.add(ScriptResult{Path: "c.slt", ParseErr: assert.AnError})

	return summary
}

func TestSummary_Counts(t *testing.T) {
	summary := sampleSummary()

	assert.Equal(t, 3, summary.TotalScripts)
	assert.Equal(t, 4, summary.TotalDirectives)
	assert.Equal(t, 2, summary.PassedDirectives)
	assert.Equal(t, 1, summary.FailedDirectives)
	assert.Equal(t, 1, summary.SkippedDirectives)
	assert.Equal(t, 1, summary.ParseFailures)
	assert.False(t, summary.Passed())
}

func TestSummary_Passed(t *testing.T) {
	summary := newSummary()
	summary.add(ScriptResult{
		Path:     "a.slt",
		Verdicts: []compare.Verdict{{Kind: compare.Pass}},
	})

	assert.True(t, summary.Passed())

	// A skipped directive is not a pass
	summary.add(ScriptResult{
		Path:     "b.slt",
		Verdicts: []compare.Verdict{{Kind: compare.Skipped}},
	})

	assert.False(t, summary.Passed())
}

func TestSummary_PrintSummary(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer

	sampleSummary().PrintSummary(&buf)

	output := buf.String()
	assert.Contains(t, output, "=== SQL Logic Test Summary ===")
	assert.Contains(t, output, "Scripts: 3 total, 1 with parse errors")
	assert.Contains(t, output, "2 passed, 1 failed")
	assert.Contains(t, output, "b.slt:2 fail")
	assert.Contains(t, output, "SQL: SELECT v1 FROM t")
	assert.Contains(t, output, "value mismatch at row 1 column 1")
	assert.Contains(t, output, "- 1")
	assert.Contains(t, output, "+ 2")
	assert.Contains(t, output, "Some directives failed!")
}

func TestSummary_PrintSummaryAllPassed(t *testing.T) {
	color.NoColor = true

	summary := newSummary()
	summary.add(ScriptResult{
		Path:     "a.slt",
		Verdicts: []compare.Verdict{{Kind: compare.Pass}},
	})

	var buf bytes.Buffer

	summary.PrintSummary(&buf)

	output := buf.String()
	assert.Contains(t, output, "All directives passed!")
	assert.NotContains(t, output, "Failing directives")
}

func TestSummary_BuildReport(t *testing.T) {
	report := sampleSummary().BuildReport()

	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.AllPassed)
	assert.Equal(t, 3, report.Counts.Scripts)
	assert.Equal(t, 4, report.Counts.Directives)
	assert.Equal(t, 2, report.Counts.Passed)
	assert.Equal(t, 1, report.Counts.Failed)
	assert.Equal(t, 1, report.Counts.Skipped)
	assert.Equal(t, 1, report.Counts.ParseFailures)

	require.Len(t, report.Scripts, 3)

	// Passing scripts carry no failure detail
	assert.Empty(t, report.Scripts[0].Failures)

	// Failing directives carry full diagnostics, skips included
	require.Len(t, report.Scripts[1].Failures, 2)
	failure := report.Scripts[1].Failures[0]
	assert.Equal(t, 2, failure.Line)
	assert.Equal(t, "fail", failure.Verdict)
	assert.Equal(t, "SELECT v1 FROM t", failure.SQL)
	assert.Equal(t, []string{"1"}, failure.Expected)
	assert.Equal(t, []string{"2"}, failure.Actual)

	assert.Equal(t, assert.AnError.Error(), report.Scripts[2].ParseError)
}

func TestSummary_WriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")

	require.NoError(t, sampleSummary().WriteReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "run_id:")
	assert.Contains(t, content, "all_passed: false")
	assert.Contains(t, content, "b.slt")
}
