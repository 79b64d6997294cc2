package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlogic/sqlogic/script"
)

// VerdictKind classifies the outcome of one executed directive
type VerdictKind int

const (
	// Pass means the directive behaved as its script expects.
	Pass VerdictKind = iota
	// Fail means a query succeeded but its rows differ from the expected rows.
	Fail
	// UnexpectedError means success was expected but execution failed.
	UnexpectedError
	// UnexpectedSuccess means a failure was expected but execution succeeded.
	UnexpectedSuccess
	// Skipped means the directive never ran (halt directive or adapter crash).
	Skipped
)

// String returns the report label for the verdict kind.
func (k VerdictKind) String() string {
	switch k {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case UnexpectedError:
		return "unexpected-error"
	case UnexpectedSuccess:
		return "unexpected-success"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Verdict is the classification of one executed directive together with the
// detail needed to locate and diagnose a failure.
type Verdict struct {
	Kind     VerdictKind
	Location script.Location
	SQL      string
	Reason   string
	// Expected and Actual hold canonical row dumps, one line per row.
	// They are populated only for result mismatches.
	Expected []string
	Actual   []string
}

// Passed reports whether the verdict counts toward a clean exit code.
func (v Verdict) Passed() bool {
	return v.Kind == Pass
}

// Statement produces the verdict for a statement directive.
// The specific error text is never checked unless the directive carries a
// substring hint: any failure satisfies a bare "statement error".
func Statement(stmt *script.Statement, execErr error) Verdict {
	verdict := Verdict{Location: stmt.Location, SQL: stmt.SQL}

	if stmt.ExpectError {
		if execErr == nil {
			verdict.Kind = UnexpectedSuccess
			verdict.Reason = "statement expected to fail but succeeded"

			return verdict
		}

		if stmt.ErrorHint != "" && !strings.Contains(execErr.Error(), stmt.ErrorHint) {
			verdict.Kind = Fail
			verdict.Reason = fmt.Sprintf("error message %q does not contain %q", execErr.Error(), stmt.ErrorHint)

			return verdict
		}

		verdict.Kind = Pass

		return verdict
	}

	if execErr != nil {
		verdict.Kind = UnexpectedError
		verdict.Reason = execErr.Error()

		return verdict
	}

	verdict.Kind = Pass

	return verdict
}

// Query produces the verdict for a query directive against the raw rows
// returned by the execution adapter.
func Query(query *script.Query, rows [][]any, execErr error) Verdict {
	verdict := Verdict{Location: query.Location, SQL: query.SQL}

	if execErr != nil {
		verdict.Kind = UnexpectedError
		verdict.Reason = execErr.Error()

		return verdict
	}

	actual, err := canonicalRows(query, rows)
	if err != nil {
		verdict.Kind = Fail
		verdict.Reason = err.Error()
		verdict.Expected = dumpRows(query.Expected)

		return verdict
	}

	expected := make([][]string, len(query.Expected))
	copy(expected, query.Expected)

	if query.Sort == script.SortRows {
		sortRows(expected)
		sortRows(actual)
	}

	if len(actual) != len(expected) {
		verdict.Kind = Fail
		verdict.Reason = fmt.Sprintf("row count mismatch: expected %d rows, got %d", len(expected), len(actual))
		verdict.Expected = dumpRows(expected)
		verdict.Actual = dumpRows(actual)

		return verdict
	}

	for i := range expected {
		for j := range expected[i] {
			if expected[i][j] != actual[i][j] {
				verdict.Kind = Fail
				verdict.Reason = fmt.Sprintf("value mismatch at row %d column %d: expected %q, got %q", i+1, j+1, expected[i][j], actual[i][j])
				verdict.Expected = dumpRows(expected)
				verdict.Actual = dumpRows(actual)

				return verdict
			}
		}
	}

	verdict.Kind = Pass

	return verdict
}

// Skip produces the verdict for a directive that never executed.
func Skip(directive script.Directive, reason string) Verdict {
	verdict := Verdict{Kind: Skipped, Location: directive.Pos(), Reason: reason}

	switch d := directive.(type) {
	case *script.Statement:
		verdict.SQL = d.SQL
	case *script.Query:
		verdict.SQL = d.SQL
	}

	return verdict
}

// canonicalRows converts raw adapter rows into canonical string rows, one
// cell per declared column.
func canonicalRows(query *script.Query, rows [][]any) ([][]string, error) {
	out := make([][]string, 0, len(rows))

	for i, row := range rows {
		if len(row) != len(query.Columns) {
			return nil, fmt.Errorf("column count mismatch at row %d: query returned %d columns, signature declares %d", i+1, len(row), len(query.Columns))
		}

		cells := make([]string, len(row))
		for j, value := range row {
			cells[j] = Canonical(value, query.Columns[j])
		}

		out = append(out, cells)
	}

	return out, nil
}

func sortRows(rows [][]string) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}

		return len(a) < len(b)
	})
}

func dumpRows(rows [][]string) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = strings.Join(row, " ")
	}

	return out
}
