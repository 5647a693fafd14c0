package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNumber(t *testing.T) {
	tests := map[string]string{
		"10":          "10",
		"10.50":       "10.50",
		"10,50":       "10.50",
		"R$ 1.234,56": "1234.56",
		"r$12,00":     "12.00",
		"1,234.56":    "1234.56",
		"1,234,567":   "1234567",
		" 7 ":         "7",
	}

	for in, want := range tests {
		assert.Equal(t, want, normalizeNumber(in), "input %q", in)
	}
}

func TestCoercePositiveInt(t *testing.T) {
	tests := []struct {
		in      any
		want    int
		wantErr bool
	}{
		{in: "3", want: 3},
		{in: "3.0", want: 3},
		{in: 4, want: 4},
		{in: float64(2), want: 2},
		{in: "08", want: 8},
		{in: "2.5", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "x", wantErr: true},
		{in: nil, wantErr: true},
		{in: true, wantErr: true},
	}

	for _, tt := range tests {
		got, err := coercePositiveInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %v", tt.in)
			continue
		}
		assert.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCoerceDate(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in     any
		want   time.Time
		wantOK bool
	}{
		{in: "2024-03-15", want: day, wantOK: true},
		{in: "15/03/2024", want: day, wantOK: true},
		{in: "15-03-2024", want: day, wantOK: true},
		{in: "2024-03-15T10:30:00Z", want: day.Add(10*time.Hour + 30*time.Minute), wantOK: true},
		{in: day, want: day, wantOK: true},
		{in: "2024-01-31T23:30:00-03:00", want: time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC), wantOK: true},
		{in: time.Date(2024, 1, 31, 23, 30, 0, 0, time.FixedZone("BRT", -3*3600)), want: time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC), wantOK: true},
		{in: "31/02/2024"},
		{in: "soon"},
		{in: ""},
		{in: nil},
		{in: time.Time{}},
	}

	for _, tt := range tests {
		got, ok := coerceDate(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %v", tt.in)
		if tt.wantOK {
			assert.True(t, tt.want.Equal(got), "input %v: got %v", tt.in, got)
		}
	}
}
