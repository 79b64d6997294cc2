package script

// ColumnType represents the declared type of one query output column
type ColumnType int

const (
	ColumnInteger ColumnType = iota
	ColumnText
	ColumnReal
	ColumnBoolean
	ColumnDate
	ColumnTime
	ColumnTimestamp
)

// Code returns the single-character signature code for the column type.
func (c ColumnType) Code() byte {
	switch c {
	case ColumnInteger:
		return 'I'
	case ColumnText:
		return 'T'
	case ColumnReal:
		return 'R'
	case ColumnBoolean:
		return 'B'
	case ColumnDate:
		return 'D'
	case ColumnTime:
		return 'M'
	case ColumnTimestamp:
		return 'P'
	default:
		return '?'
	}
}

// SortMode declares how expected and actual query rows are ordered before comparison
type SortMode int

const (
	// SortNone compares rows positionally in output order.
	SortNone SortMode = iota
	// SortRows sorts both expected and actual rows lexicographically first.
	SortRows
)

// Location identifies a directive's position in its source file
type Location struct {
	Path string
	Line int
}

// Directive is one parsed instruction unit from a test script
type Directive interface {
	// Pos returns the location of the directive marker line.
	Pos() Location
}

// Statement asserts that a SQL statement succeeds or fails
type Statement struct {
	Location Location
	SQL      string
	// ExpectError inverts the assertion: any failure passes, success fails.
	ExpectError bool
	// ErrorHint, when non-empty, must appear as a substring of the error message.
	ErrorHint string
}

// Pos returns the location of the directive marker line.
func (s *Statement) Pos() Location { return s.Location }

// Query asserts that a SQL query succeeds and produces the expected rows
type Query struct {
	Location Location
	SQL      string
	Columns  []ColumnType
	// Expected holds the expected rows, one slice of column strings per row.
	Expected [][]string
	Sort     SortMode
}

// Pos returns the location of the directive marker line.
func (q *Query) Pos() Location { return q.Location }

// Halt stops script execution; the remaining directives are reported as skipped
type Halt struct {
	Location Location
}

// Pos returns the location of the directive marker line.
func (h *Halt) Pos() Location { return h.Location }

// Script represents one parsed test script.
// It is immutable once parsed; the runner never mutates it.
type Script struct {
	Path       string
	Directives []Directive
}
