package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sqlogic/sqlogic/script"
)

func TestCanonical_Integer(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"int64", int64(42), "42"},
		{"negative", int64(-7), "-7"},
		{"int", 3, "3"},
		{"integral float", float64(5.0), "5"},
		{"bool true", true, "1"},
		{"bool false", false, "0"},
		{"numeric string", "042", "42"},
		{"bytes", []byte("19"), "19"},
		{"null", nil, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.value, script.ColumnInteger))
		})
	}
}

func TestCanonical_Real(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"float", 1.5, "1.500"},
		{"whole float", 1.0, "1.000"},
		{"int widens", int64(2), "2.000"},
		{"string", "3.14159", "3.142"},
		{"null", nil, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.value, script.ColumnReal))
		})
	}
}

func TestCanonical_Boolean(t *testing.T) {
	assert.Equal(t, "true", Canonical(true, script.ColumnBoolean))
	assert.Equal(t, "false", Canonical(false, script.ColumnBoolean))
	assert.Equal(t, "true", Canonical(int64(1), script.ColumnBoolean))
	assert.Equal(t, "false", Canonical(int64(0), script.ColumnBoolean))
	assert.Equal(t, "true", Canonical("t", script.ColumnBoolean))
	assert.Equal(t, "false", Canonical("F", script.ColumnBoolean))
	assert.Equal(t, "NULL", Canonical(nil, script.ColumnBoolean))
}

func TestCanonical_Date(t *testing.T) {
	date := time.Date(2016, 3, 26, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2016-03-26", Canonical(date, script.ColumnDate))

	// Narrowing a timestamp to a date drops the time component
	stamp := time.Date(2016, 3, 26, 13, 45, 9, 0, time.UTC)
	assert.Equal(t, "2016-03-26", Canonical(stamp, script.ColumnDate))

	// Driver returned a string form
	assert.Equal(t, "2016-03-26", Canonical("2016-03-26", script.ColumnDate))
	assert.Equal(t, "2016-03-26", Canonical("2016-03-26 13:45:09", script.ColumnDate))
}

func TestCanonical_Time(t *testing.T) {
	clock := time.Date(0, 1, 1, 1, 2, 3, 0, time.UTC)
	assert.Equal(t, "01:02:03", Canonical(clock, script.ColumnTime))

	// Narrowing a timestamp to a time drops the date component
	stamp := time.Date(2016, 3, 26, 13, 45, 9, 0, time.UTC)
	assert.Equal(t, "13:45:09", Canonical(stamp, script.ColumnTime))

	// Sub-second precision appears only when the value carries it
	fractional := time.Date(0, 1, 1, 1, 2, 3, 500000000, time.UTC)
	assert.Equal(t, "01:02:03.5", Canonical(fractional, script.ColumnTime))

	assert.Equal(t, "01:02:03", Canonical("01:02:03", script.ColumnTime))
}

func TestCanonical_Timestamp(t *testing.T) {
	stamp := time.Date(2016, 3, 26, 13, 45, 9, 0, time.UTC)
	assert.Equal(t, "2016-03-26 13:45:09", Canonical(stamp, script.ColumnTimestamp))

	assert.Equal(t, "2016-03-26 13:45:09", Canonical("2016-03-26 13:45:09", script.ColumnTimestamp))
}

func TestCanonical_TextRoundTrip(t *testing.T) {
	// Casting a temporal value to a character type reproduces exactly the
	// canonical string of the originating temporal type
	date := time.Date(2016, 3, 26, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2016-03-26", Canonical(date, script.ColumnText))

	clock := time.Date(0, 1, 1, 1, 2, 3, 0, time.UTC)
	assert.Equal(t, "01:02:03", Canonical(clock, script.ColumnText))

	stamp := time.Date(2016, 3, 26, 13, 45, 9, 0, time.UTC)
	assert.Equal(t, "2016-03-26 13:45:09", Canonical(stamp, script.ColumnText))
}

func TestCanonical_CastIdempotence(t *testing.T) {
	// Re-canonicalizing a canonical string must yield the same string
	values := []struct {
		value  any
		column script.ColumnType
	}{
		{time.Date(2016, 3, 26, 0, 0, 0, 0, time.UTC), script.ColumnDate},
		{time.Date(0, 1, 1, 1, 2, 3, 0, time.UTC), script.ColumnTime},
		{time.Date(2016, 3, 26, 13, 45, 9, 0, time.UTC), script.ColumnTimestamp},
		{int64(42), script.ColumnInteger},
		{1.5, script.ColumnReal},
		{true, script.ColumnBoolean},
	}

	for _, v := range values {
		first := Canonical(v.value, v.column)
		assert.Equal(t, first, Canonical(first, v.column))
	}
}

func TestCanonical_Text(t *testing.T) {
	assert.Equal(t, "hello", Canonical("hello", script.ColumnText))
	assert.Equal(t, "hello", Canonical([]byte("hello"), script.ColumnText))
	assert.Equal(t, "NULL", Canonical(nil, script.ColumnText))
}
