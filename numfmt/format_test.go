package numfmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValueGeneral(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"nil", nil, ""},
		{"bool true", true, "TRUE"},
		{"bool false", false, "FALSE"},
		{"string passthrough", "hello", "hello"},
		{"integer float", float64(42), "42"},
		{"fractional float", 3.14, "3.14"},
		{"ten significant digits", 45498.666666666664, "45498.66667"},
		{"other type", 7, "7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatValue(tc.v, 0, "", false))
		})
	}
}

func TestFormatValueNumbers(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		format string
		want   string
	}{
		{"fixed decimals", 303.6, "0.00", "303.60"},
		{"fixed decimals zero", 0, "0.00", "0.00"},
		{"hash trims trailing zero", 1.5, "0.##", "1.5"},
		{"hash drops the point", 2, "0.##", "2"},
		{"integer rounds", 42.9, "0", "43"},
		{"literal prefix", 40013205, `"E"0`, "E40013205"},
		{"unit suffix", 18000, `0" kg"`, "18000 kg"},
		{"percent", 0.75, "0%", "75%"},
		{"percent decimals", 0.1234, "0.00%", "12.34%"},
		{"thousands", 1234567, "#,##0", "1,234,567"},
		{"negative single section", -5, "0", "-5"},
		{"positive section", 42.5, "0.00;(0.00)", "42.50"},
		{"negative section", -42.5, "0.00;(0.00)", "(42.50)"},
		{"zero in two sections", 0, "0.00;(0.00)", "0.00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatValue(tc.v, FirstUserIndex, tc.format, false))
		})
	}
}

func TestFormatValueBuiltinIndex(t *testing.T) {
	assert.Equal(t, "1,234.50", FormatValue(1234.5, 4, "", false))
	assert.Equal(t, "12.00%", FormatValue(0.12, 10, "", false))
}

func TestFormatValueDates(t *testing.T) {
	tests := []struct {
		name   string
		serial float64
		index  int
		format string
		want   string
	}{
		{"builtin m/d/yy", 45412, 14, "", "4/30/24"},
		{"elapsed hours", 6.5 / 24, 46, "", "6:30:00"},
		{"long form", 45285, FirstUserIndex, "DDDD DD/MM/YYYY", "Monday 25/12/2023"},
		{"day and month name", 45119, FirstUserIndex, "DD-MMM", "12-Jul"},
		{"month after day", 45367, FirstUserIndex, "MM-DD-YY", "03-16-24"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatValue(tc.serial, tc.index, tc.format, false))
		})
	}
}

func TestFormatValueNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, FormatValue(42.5, FirstUserIndex, "[Red]", false))
	assert.NotEmpty(t, FormatValue(45285.0, FirstUserIndex, "[Red]D", false))
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		index  int
		format string
		want   bool
	}{
		{0, "", false},
		{0, "General", false},
		{2, "", false},
		{14, "", true},
		{22, "", true},
		{30, "", true},
		{46, "", true},
		{49, "", false},
		{FirstUserIndex, "yyyy-mm-dd", true},
		{FirstUserIndex, "hh:mm", true},
		{FirstUserIndex, "[h]", true},
		{FirstUserIndex, `"day"0`, false},
		{FirstUserIndex, "0.00E+00", false},
		{FirstUserIndex, "[Red]0.00", false},
		{FirstUserIndex, `0\d`, false},
		{FirstUserIndex, "ge.m.d", true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsDateFormat(tc.index, tc.format), "IsDateFormat(%d, %q)", tc.index, tc.format)
	}
}

func TestBuiltin(t *testing.T) {
	s, ok := Builtin(14)
	require.True(t, ok)
	assert.Equal(t, "m/d/yy", s)

	_, ok = Builtin(30)
	assert.False(t, ok)

	assert.Equal(t, 49, BuiltinIndex("@"))
	assert.Equal(t, -1, BuiltinIndex("yyyy"))
	assert.Equal(t, "General", Resolve(200, ""))
	assert.Equal(t, "0.0", Resolve(2, "0.0"))
}

func TestSerialToTime(t *testing.T) {
	tests := []struct {
		serial   float64
		date1904 bool
		want     time.Time
	}{
		{1, false, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{59, false, time.Date(1900, 2, 28, 0, 0, 0, 0, time.UTC)},
		{61, false, time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)},
		{44927.5, false, time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)},
		{0, true, time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)},
		{1, true, time.Date(1904, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, err := SerialToTime(tc.serial, tc.date1904)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "serial %v (1904=%v)", tc.serial, tc.date1904)
	}

	_, err := SerialToTime(-1, false)
	assert.Error(t, err)
}
