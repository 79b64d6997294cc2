package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sqlogic/sqlogic"
)

// ErrSessionClosed indicates the session was used after Close.
var ErrSessionClosed = errors.New("database session is closed")

// DBFactory opens one database handle per script session. For SQLite with an
// in-memory DSN every session therefore gets a fresh catalog; for server
// databases the DSN should point at a disposable database or schema.
type DBFactory struct {
	Dialect sqlogic.Dialect
	DSN     string
	// Schema, when non-empty, scopes every session to the named schema
	// (search_path for postgres, USE for mysql; SQLite has no session schema).
	Schema string
}

// NewDBFactory builds a factory for the given dialect or driver name.
func NewDBFactory(dialect string, dsn string, schema string) (*DBFactory, error) {
	d, err := sqlogic.ParseDialect(dialect)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, dialect)
	}

	return &DBFactory{Dialect: d, DSN: dsn, Schema: schema}, nil
}

// Session opens and pings a new database handle.
// A ping failure here is catastrophic adapter unavailability: the caller is
// expected to abort the run rather than record test failures.
func (f *DBFactory) Session(ctx context.Context) (Adapter, error) {
	db, err := sql.Open(f.Dialect.DriverName(), f.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One session means one connection: scripts are stateful and temporary
	// objects must not hop between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if f.Schema != "" {
		if stmt := f.Dialect.SchemaStatement(f.Schema); stmt != "" {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to select schema %q: %w", f.Schema, err)
			}
		}
	}

	return &DBSession{db: db}, nil
}

// DBSession is a database/sql-backed Adapter.
type DBSession struct {
	db     *sql.DB
	closed bool
}

// Execute runs one SQL string against the session. Row-producing SQL is
// dispatched through QueryContext and fully materialized; everything else
// goes through ExecContext and yields an empty RowSet.
func (s *DBSession) Execute(ctx context.Context, query string) (*RowSet, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	if producesRows(query) {
		return s.query(ctx, query)
	}

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return nil, err
	}

	return &RowSet{}, nil
}

// Close releases the underlying database handle.
func (s *DBSession) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return s.db.Close()
}

func (s *DBSession) query(ctx context.Context, query string) (*RowSet, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	result := &RowSet{Columns: columns}

	for rows.Next() {
		values := make([]any, len(columns))

		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i := range values {
			values[i] = normalizeTemporal(values[i], columnTypes[i].DatabaseTypeName())
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// normalizeTemporal renders time.Time values into the canonical string form
// declared by the driver's column type. Without the hint a value like a
// timestamp at exactly midnight is indistinguishable from a plain date; the
// declared type removes the ambiguity. Values from columns with no declared
// type (expressions, untyped drivers) pass through untouched.
func normalizeTemporal(value any, dbType string) any {
	t, ok := value.(time.Time)
	if !ok {
		return value
	}

	name := strings.ToUpper(dbType)

	switch {
	case strings.Contains(name, "TIMESTAMP"), strings.Contains(name, "DATETIME"):
		return t.Format("2006-01-02 15:04:05.999999999")
	case strings.Contains(name, "DATE"):
		return t.Format("2006-01-02")
	case strings.Contains(name, "TIME"):
		return t.Format("15:04:05.999999999")
	default:
		return t
	}
}

// producesRows detects SQL that should be dispatched as a query.
func producesRows(query string) bool {
	trimmed := strings.TrimSpace(strings.ToUpper(query))

	for _, prefix := range []string{"SELECT", "WITH", "VALUES", "SHOW", "PRAGMA", "EXPLAIN"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}

	// RETURNING clauses turn DML into row producers
	return strings.Contains(trimmed, "RETURNING")
}
