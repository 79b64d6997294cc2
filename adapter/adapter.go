// Package adapter defines the narrow interface between the test runner and
// the SQL backend under test, plus a database/sql-backed implementation.
package adapter

import "context"

// RowSet holds the raw result of one executed SQL string.
// Statements that produce no rows return an empty RowSet.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// Adapter is one connected session against the backend under test.
// DDL and DML side effects persist across Execute calls for the lifetime of
// the session, so a CREATE TABLE is visible to every later call.
type Adapter interface {
	Execute(ctx context.Context, query string) (*RowSet, error)
	Close() error
}

// Factory opens a fresh, isolated session for one test script.
// Isolation between sessions (a fresh database or namespace per script) is
// the factory implementer's responsibility.
type Factory interface {
	Session(ctx context.Context) (Adapter, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context) (Adapter, error)

// Session implements Factory.
func (f FactoryFunc) Session(ctx context.Context) (Adapter, error) {
	return f(ctx)
}
