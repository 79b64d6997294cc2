package sqlogic

import "fmt"

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect normalizes a dialect or driver name into a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", ErrUnknownDialect
	}
}

// DriverName returns the database/sql driver name registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite3"
	default:
		return string(d)
	}
}

// SchemaStatement returns the SQL that scopes a session to the named schema,
// or empty when the dialect has no session schema (SQLite).
func (d Dialect) SchemaStatement(schema string) string {
	switch d {
	case DialectPostgres:
		return fmt.Sprintf("SET search_path TO %q", schema)
	case DialectMySQL:
		return fmt.Sprintf("USE `%s`", schema)
	default:
		return ""
	}
}
