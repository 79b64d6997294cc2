package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors
var (
	ErrEmptyTypeSignature = errors.New("query directive requires a column type signature")
	ErrUnknownTypeCode    = errors.New("unknown column type code in query signature")
	ErrMissingSQLBody     = errors.New("directive requires at least one SQL line")
	ErrStraySeparator     = errors.New("result separator without a preceding query directive")
	ErrUnknownDirective   = errors.New("unknown directive marker")
	ErrMalformedStatement = errors.New("malformed statement directive")
	ErrUnknownSortMode    = errors.New("unknown query sort mode")
	ErrRowWidthMismatch   = errors.New("expected row width does not match type signature")
)

// ParseError reports a malformed script with the offending location.
// A ParseError is fatal for the file; the runner skips the file and continues.
type ParseError struct {
	Path string
	Line int
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

const resultSeparator = "----"

// ParseFile reads and parses the script at path.
func ParseFile(path string) (*Script, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script file: %w", err)
	}
	defer file.Close()

	return Parse(path, file)
}

// Parse parses raw script text into an ordered sequence of directives.
// The path is recorded on every directive location for error reporting.
func Parse(path string, r io.Reader) (*Script, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	p := &parser{path: path, lines: lines}

	directives, err := p.parse()
	if err != nil {
		return nil, err
	}

	return &Script{Path: path, Directives: directives}, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	// Allow long SQL lines beyond the default scanner limit
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

type parser struct {
	path  string
	lines []string
	pos   int // zero-based index into lines
}

func (p *parser) parse() ([]Directive, error) {
	var directives []Directive

	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])

		// Blank lines and comments between directives carry no content
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			p.pos++
			continue
		}

		if trimmed == resultSeparator {
			return nil, p.errorf(p.pos+1, ErrStraySeparator)
		}

		fields := strings.Fields(trimmed)

		var (
			directive Directive
			err       error
		)

		switch fields[0] {
		case "statement":
			directive, err = p.parseStatement(fields)
		case "query":
			directive, err = p.parseQuery(fields)
		case "halt":
			directive = &Halt{Location: p.here()}
			p.pos++
		default:
			err = p.errorf(p.pos+1, fmt.Errorf("%w: %q", ErrUnknownDirective, fields[0]))
		}

		if err != nil {
			return nil, err
		}

		directives = append(directives, directive)
	}

	return directives, nil
}

// here returns the location of the current marker line (1-based).
func (p *parser) here() Location {
	return Location{Path: p.path, Line: p.pos + 1}
}

func (p *parser) errorf(line int, err error) error {
	return &ParseError{Path: p.path, Line: line, Err: err}
}

// parseStatement parses "statement ok" and "statement error [hint]" blocks.
func (p *parser) parseStatement(fields []string) (Directive, error) {
	loc := p.here()

	if len(fields) < 2 {
		return nil, p.errorf(loc.Line, fmt.Errorf("%w: statement requires ok or error", ErrMalformedStatement))
	}

	stmt := &Statement{Location: loc}

	switch fields[1] {
	case "ok":
		if len(fields) > 2 {
			return nil, p.errorf(loc.Line, fmt.Errorf("%w: unexpected text after statement ok", ErrMalformedStatement))
		}
	case "error":
		stmt.ExpectError = true
		// Trailing text is an optional error-message substring hint
		stmt.ErrorHint = strings.Join(fields[2:], " ")
	default:
		return nil, p.errorf(loc.Line, fmt.Errorf("%w: statement %q", ErrMalformedStatement, fields[1]))
	}

	p.pos++

	sql, err := p.collectSQL(loc, false)
	if err != nil {
		return nil, err
	}

	stmt.SQL = sql

	return stmt, nil
}

// parseQuery parses a "query <signature> [sortmode]" block with its expected rows.
func (p *parser) parseQuery(fields []string) (Directive, error) {
	loc := p.here()

	if len(fields) < 2 {
		return nil, p.errorf(loc.Line, ErrEmptyTypeSignature)
	}

	columns, err := parseSignature(fields[1])
	if err != nil {
		return nil, p.errorf(loc.Line, err)
	}

	query := &Query{Location: loc, Columns: columns}

	if len(fields) > 2 {
		switch fields[2] {
		case "rowsort":
			query.Sort = SortRows
		case "nosort":
			query.Sort = SortNone
		default:
			return nil, p.errorf(loc.Line, fmt.Errorf("%w: %q", ErrUnknownSortMode, fields[2]))
		}
	}

	p.pos++

	sql, err := p.collectSQL(loc, true)
	if err != nil {
		return nil, err
	}

	query.SQL = sql

	// SQL body ends either at the ---- separator or at a blank line.
	// Without a separator the query expects an empty result set.
	if p.pos < len(p.lines) && strings.TrimSpace(p.lines[p.pos]) == resultSeparator {
		p.pos++

		rows, err := p.collectExpectedRows(len(columns))
		if err != nil {
			return nil, err
		}

		query.Expected = rows
	}

	return query, nil
}

// collectSQL gathers the SQL body lines of the directive starting at loc.
// For queries the body additionally ends at the ---- separator, which is
// left unconsumed for the caller.
func (p *parser) collectSQL(loc Location, query bool) (string, error) {
	var body []string

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			break
		}

		if trimmed == resultSeparator {
			if !query {
				return "", p.errorf(p.pos+1, ErrStraySeparator)
			}

			break
		}

		if strings.HasPrefix(trimmed, "#") {
			p.pos++
			continue
		}

		body = append(body, line)
		p.pos++
	}

	if len(body) == 0 {
		return "", p.errorf(loc.Line, ErrMissingSQLBody)
	}

	return strings.Join(body, "\n"), nil
}

// collectExpectedRows consumes result lines until a blank line or EOF.
// Columns within a row are split on a single space; values therefore must
// not contain literal spaces (documented limitation of the script format).
func (p *parser) collectExpectedRows(width int) ([][]string, error) {
	var rows [][]string

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.TrimSpace(line) == "" {
			break
		}

		values := strings.Split(line, " ")
		if len(values) != width {
			return nil, p.errorf(p.pos+1, fmt.Errorf("%w: got %d columns, signature declares %d", ErrRowWidthMismatch, len(values), width))
		}

		rows = append(rows, values)
		p.pos++
	}

	return rows, nil
}

// parseSignature decodes the compact per-column type signature of a query
// directive. Each character declares one output column.
func parseSignature(signature string) ([]ColumnType, error) {
	if signature == "" {
		return nil, ErrEmptyTypeSignature
	}

	columns := make([]ColumnType, 0, len(signature))

	for i := 0; i < len(signature); i++ {
		switch signature[i] {
		case 'I':
			columns = append(columns, ColumnInteger)
		case 'T':
			columns = append(columns, ColumnText)
		case 'R':
			columns = append(columns, ColumnReal)
		case 'B':
			columns = append(columns, ColumnBoolean)
		case 'D':
			columns = append(columns, ColumnDate)
		case 'M':
			columns = append(columns, ColumnTime)
		case 'P':
			columns = append(columns, ColumnTimestamp)
		default:
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownTypeCode, signature[i], i)
		}
	}

	return columns, nil
}
