package compare

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sqlogic/sqlogic/script"
)

// NullToken is the reserved expected-output token for SQL NULL.
// The space-delimited row format cannot otherwise distinguish NULL from an
// empty string.
const NullToken = "NULL"

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05.999999999"
	timestampLayout = "2006-01-02 15:04:05.999999999"
)

// temporalLayouts are the accepted textual shapes for temporal values coming
// back from drivers that return strings rather than time.Time.
var temporalLayouts = []string{
	timestampLayout,
	time.RFC3339Nano,
	dateLayout,
	timeLayout,
}

// Canonical renders a raw driver value into its canonical string form for the
// declared column type. Every value has exactly one canonical form, so
// casting a temporal value to a character type and back round-trips to the
// identical string.
func Canonical(value any, column script.ColumnType) string {
	if value == nil {
		return NullToken
	}

	if b, ok := value.([]byte); ok {
		value = string(b)
	}

	switch column {
	case script.ColumnInteger:
		return canonicalInteger(value)
	case script.ColumnReal:
		return canonicalReal(value)
	case script.ColumnBoolean:
		return canonicalBoolean(value)
	case script.ColumnDate:
		return canonicalTemporal(value, script.ColumnDate)
	case script.ColumnTime:
		return canonicalTemporal(value, script.ColumnTime)
	case script.ColumnTimestamp:
		return canonicalTemporal(value, script.ColumnTimestamp)
	case script.ColumnText:
		return canonicalText(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func canonicalInteger(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "1"
		}

		return "0"
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case float32:
		return strconv.FormatInt(int64(v), 10)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}

		return v
	default:
		if n, ok := toInt64(value); ok {
			return strconv.FormatInt(n, 10)
		}

		return fmt.Sprintf("%v", value)
	}
}

// canonicalReal renders with three fraction digits, the sqllogictest
// convention, so 1 and 1.0 share the canonical form 1.000.
func canonicalReal(value any) string {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v).StringFixed(3)
	case float32:
		return decimal.NewFromFloat32(v).StringFixed(3)
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d.StringFixed(3)
		}

		return v
	default:
		if n, ok := toInt64(value); ok {
			return decimal.NewFromInt(n).StringFixed(3)
		}

		return fmt.Sprintf("%v", value)
	}
}

func canonicalBoolean(value any) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "t", "true", "1":
			return "true"
		case "f", "false", "0":
			return "false"
		}

		return v
	default:
		if n, ok := toInt64(value); ok {
			return strconv.FormatBool(n != 0)
		}

		return fmt.Sprintf("%v", value)
	}
}

func canonicalTemporal(value any, column script.ColumnType) string {
	t, ok := toTime(value)
	if !ok {
		return fmt.Sprintf("%v", value)
	}

	switch column {
	case script.ColumnDate:
		// Narrowing a timestamp to a date drops the time component
		return t.Format(dateLayout)
	case script.ColumnTime:
		// Narrowing a timestamp to a time drops the date component
		return t.Format(timeLayout)
	default:
		return t.Format(timestampLayout)
	}
}

// canonicalText renders text columns verbatim, except that temporal values
// reaching a text column (a cast to a character type) keep the canonical form
// of the originating temporal type.
func canonicalText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return formatByShape(v)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// formatByShape picks the canonical temporal rendering from the value itself:
// a zero clock means a date, a zero date means a time-of-day, anything else
// is a timestamp.
func formatByShape(t time.Time) string {
	dateless := t.Year() == 0 && t.Month() == time.January && t.Day() == 1
	clockless := t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0

	switch {
	case dateless:
		return t.Format(timeLayout)
	case clockless:
		return t.Format(dateLayout)
	default:
		return t.Format(timestampLayout)
	}
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range temporalLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}

		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func toInt64(value any) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}
