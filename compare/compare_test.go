package compare

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlogic/sqlogic/script"
)

var errExecution = errors.New("table t already exists")

func location() script.Location {
	return script.Location{Path: "case.slt", Line: 3}
}

func TestStatement_OkPasses(t *testing.T) {
	stmt := &script.Statement{Location: location(), SQL: "create table t(v1 int)"}

	verdict := Statement(stmt, nil)
	assert.Equal(t, Pass, verdict.Kind)
	assert.True(t, verdict.Passed())
}

func TestStatement_OkWithErrorIsUnexpectedError(t *testing.T) {
	stmt := &script.Statement{Location: location(), SQL: "create table t(v1 int)"}

	verdict := Statement(stmt, errExecution)
	assert.Equal(t, UnexpectedError, verdict.Kind)
	assert.Equal(t, errExecution.Error(), verdict.Reason)
	assert.Equal(t, location(), verdict.Location)
}

func TestStatement_ErrorExpectsAnyFailure(t *testing.T) {
	stmt := &script.Statement{Location: location(), SQL: "insert into t values (1)", ExpectError: true}

	// Any failure satisfies the directive; the message is never checked
	verdict := Statement(stmt, errExecution)
	assert.Equal(t, Pass, verdict.Kind)
}

func TestStatement_ErrorWithSuccessIsUnexpectedSuccess(t *testing.T) {
	stmt := &script.Statement{Location: location(), SQL: "insert into t values (1)", ExpectError: true}

	verdict := Statement(stmt, nil)
	assert.Equal(t, UnexpectedSuccess, verdict.Kind)
}

func TestStatement_ErrorHint(t *testing.T) {
	stmt := &script.Statement{
		Location:    location(),
		SQL:         "insert into t values (1)",
		ExpectError: true,
		ErrorHint:   "already exists",
	}

	assert.Equal(t, Pass, Statement(stmt, errExecution).Kind)

	mismatch := Statement(stmt, errors.New("syntax error"))
	assert.Equal(t, Fail, mismatch.Kind)
	assert.Contains(t, mismatch.Reason, "already exists")
}

func queryDirective(columns []script.ColumnType, expected [][]string) *script.Query {
	return &script.Query{
		Location: location(),
		SQL:      "select * from t",
		Columns:  columns,
		Expected: expected,
	}
}

func TestQuery_Pass(t *testing.T) {
	query := queryDirective(
		[]script.ColumnType{script.ColumnInteger, script.ColumnText},
		[][]string{{"1", "alpha"}, {"2", "beta"}},
	)

	rows := [][]any{
		{int64(1), "alpha"},
		{int64(2), "beta"},
	}

	verdict := Query(query, rows, nil)
	assert.Equal(t, Pass, verdict.Kind)
}

func TestQuery_ExecutionFailure(t *testing.T) {
	query := queryDirective([]script.ColumnType{script.ColumnInteger}, [][]string{{"1"}})

	verdict := Query(query, nil, errExecution)
	assert.Equal(t, UnexpectedError, verdict.Kind)
	assert.Equal(t, errExecution.Error(), verdict.Reason)
}

func TestQuery_RowCountMismatch(t *testing.T) {
	query := queryDirective([]script.ColumnType{script.ColumnInteger}, [][]string{{"1"}, {"2"}})

	verdict := Query(query, [][]any{{int64(1)}}, nil)
	require.Equal(t, Fail, verdict.Kind)
	assert.Contains(t, verdict.Reason, "row count mismatch")
	assert.Equal(t, []string{"1", "2"}, verdict.Expected)
	assert.Equal(t, []string{"1"}, verdict.Actual)
}

func TestQuery_ValueMismatch(t *testing.T) {
	query := queryDirective(
		[]script.ColumnType{script.ColumnInteger, script.ColumnInteger},
		[][]string{{"0", "0"}, {"1", "1"}},
	)

	rows := [][]any{
		{int64(0), int64(0)},
		{int64(1), int64(9)},
	}

	verdict := Query(query, rows, nil)
	require.Equal(t, Fail, verdict.Kind)
	assert.Contains(t, verdict.Reason, "row 2 column 2")
	assert.Equal(t, []string{"0 0", "1 1"}, verdict.Expected)
	assert.Equal(t, []string{"0 0", "1 9"}, verdict.Actual)
}

func TestQuery_OrderIsSignificant(t *testing.T) {
	query := queryDirective([]script.ColumnType{script.ColumnInteger}, [][]string{{"1"}, {"2"}})

	verdict := Query(query, [][]any{{int64(2)}, {int64(1)}}, nil)
	assert.Equal(t, Fail, verdict.Kind)
}

func TestQuery_Rowsort(t *testing.T) {
	query := queryDirective([]script.ColumnType{script.ColumnInteger}, [][]string{{"1"}, {"2"}})
	query.Sort = script.SortRows

	verdict := Query(query, [][]any{{int64(2)}, {int64(1)}}, nil)
	assert.Equal(t, Pass, verdict.Kind)
}

func TestQuery_ColumnCountMismatch(t *testing.T) {
	query := queryDirective([]script.ColumnType{script.ColumnInteger}, [][]string{{"1"}})

	verdict := Query(query, [][]any{{int64(1), "extra"}}, nil)
	require.Equal(t, Fail, verdict.Kind)
	assert.Contains(t, verdict.Reason, "column count mismatch")
}

func TestQuery_NullToken(t *testing.T) {
	query := queryDirective([]script.ColumnType{script.ColumnText}, [][]string{{"NULL"}})

	verdict := Query(query, [][]any{{nil}}, nil)
	assert.Equal(t, Pass, verdict.Kind)
}

func TestQuery_TemporalCanonicalForm(t *testing.T) {
	query := queryDirective([]script.ColumnType{script.ColumnText}, [][]string{{"2016-03-26"}})

	verdict := Query(query, [][]any{{time.Date(2016, 3, 26, 0, 0, 0, 0, time.UTC)}}, nil)
	assert.Equal(t, Pass, verdict.Kind)
}

func TestQuery_EmptyResult(t *testing.T) {
	query := queryDirective([]script.ColumnType{script.ColumnInteger}, nil)

	verdict := Query(query, nil, nil)
	assert.Equal(t, Pass, verdict.Kind)
}

func TestSkip(t *testing.T) {
	stmt := &script.Statement{Location: location(), SQL: "drop table t"}

	verdict := Skip(stmt, "halted")
	assert.Equal(t, Skipped, verdict.Kind)
	assert.Equal(t, "halted", verdict.Reason)
	assert.Equal(t, "drop table t", verdict.SQL)
	assert.False(t, verdict.Passed())
}

func TestVerdictKind_String(t *testing.T) {
	assert.Equal(t, "pass", Pass.String())
	assert.Equal(t, "fail", Fail.String())
	assert.Equal(t, "unexpected-error", UnexpectedError.String())
	assert.Equal(t, "unexpected-success", UnexpectedSuccess.String())
	assert.Equal(t, "skipped", Skipped.String())
}
