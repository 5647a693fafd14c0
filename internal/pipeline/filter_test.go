package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(t *testing.T, f Filter) []string {
	t.Helper()
	var out []string
	for _, r := range f.Apply(sampleCollection()) {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		want   []string
		filter Filter
	}{
		{name: "zero filter keeps all", filter: Filter{}, want: []string{"r1", "r2", "r3", "r4", "r5", "r6"}},
		{name: "by item", filter: Filter{Items: []string{"Mouse"}}, want: []string{"r2", "r3"}},
		{name: "by city", filter: Filter{Cities: []string{"Recife", "Manaus"}}, want: []string{"r2", "r4", "r5", "r6"}},
		{
			name:   "date range is inclusive and drops undated",
			filter: Filter{Start: dt(2024, 1, 20), End: time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)},
			want:   []string{"r2", "r3", "r6"},
		},
		{name: "open start", filter: Filter{End: dt(2024, 1, 10)}, want: []string{"r1"}},
		{name: "combined", filter: Filter{Items: []string{"Mouse"}, Cities: []string{"Recife"}}, want: []string{"r2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(t, tt.filter))
		})
	}
}

func TestFilter_IsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{Cities: []string{"Recife"}}.IsZero())
}
