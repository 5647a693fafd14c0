package pipeline

import (
	"time"

	"github.com/Veraticus/eshop-analytics/internal/model"
)

// Filter narrows a collection for display. Empty fields do not filter.
type Filter struct {
	Start  time.Time // inclusive, by calendar day
	End    time.Time // inclusive, by calendar day
	Items  []string
	Cities []string
}

// IsZero reports whether the filter lets everything through.
func (f Filter) IsZero() bool {
	return len(f.Items) == 0 && len(f.Cities) == 0 && f.Start.IsZero() && f.End.IsZero()
}

// Apply returns the records matching f. Undated records are excluded only
// when a date bound is set.
func (f Filter) Apply(records model.Collection) model.Collection {
	items := toSet(f.Items)
	cities := toSet(f.Cities)
	start := day(f.Start)
	end := day(f.End)

	out := make(model.Collection, 0, len(records))
	for _, r := range records {
		if items != nil {
			if _, ok := items[r.Item]; !ok {
				continue
			}
		}
		if cities != nil {
			if _, ok := cities[r.City]; !ok {
				continue
			}
		}
		if !start.IsZero() || !end.IsZero() {
			if !r.HasDate() {
				continue
			}
			d := day(r.Date)
			if !start.IsZero() && d.Before(start) {
				continue
			}
			if !end.IsZero() && d.After(end) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
