package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	errEmpty       = errors.New("value is empty")
	errNotNumber   = errors.New("not a number")
	errNotInteger  = errors.New("not a whole number")
	errNotPositive = errors.New("must be at least 1")
	errNegative    = errors.New("must not be negative")
)

// dayFirstLayouts cover the Brazilian spreadsheet date formats that cast does not know.
var dayFirstLayouts = []string{
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
}

// rawString renders any loosely-typed cell value as trimmed text.
func rawString(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return strings.TrimSpace(s)
}

// coerceText returns a non-empty trimmed string.
func coerceText(v any) (string, error) {
	s := rawString(v)
	if s == "" {
		return "", errEmpty
	}
	return s, nil
}

// normalizeNumber turns "R$ 1.234,56" and friends into "1234.56".
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.EqualFold(s[:2], "R$") {
		s = s[2:]
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// coerceDecimal parses a loosely-formatted number.
func coerceDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, errNotNumber
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Zero, errNotNumber
		}
		return decimal.NewFromFloat32(n), nil
	}

	s := rawString(v)
	if s == "" {
		return decimal.Zero, errEmpty
	}
	d, err := decimal.NewFromString(normalizeNumber(s))
	if err != nil {
		return decimal.Zero, errNotNumber
	}
	return d, nil
}

// coerceMoney parses a non-negative amount.
func coerceMoney(v any) (decimal.Decimal, error) {
	d, err := coerceDecimal(v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegative
	}
	return d, nil
}

// coercePositiveInt parses a whole number ≥ 1. "2" and "2.0" are accepted, "2.5" is not.
func coercePositiveInt(v any) (int, error) {
	d, err := coerceDecimal(v)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, errNotInteger
	}
	if d.LessThan(decimal.NewFromInt(1)) {
		return 0, errNotPositive
	}
	if !d.LessThan(decimal.NewFromInt(1 << 31)) {
		return 0, errNotNumber
	}
	return int(d.IntPart()), nil
}

// coerceDate parses a date permissively. Unparseable input yields the zero time and false.
func coerceDate(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return time.Time{}, false
		}
		return wallClock(t), true
	}

	s := rawString(v)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}

	t, err := cast.ToTimeInDefaultLocationE(s, time.UTC)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return wallClock(t), true
}

// wallClock keeps the calendar date and time a value was written with and
// labels it UTC, so an offset never moves a sale into another day or month.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
