package date

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth is a calendar month.
type YearMonth struct {
	y int
	m time.Month
}

// NewYearMonth returns a normalized YearMonth, so that month 13 is January of the next year.
func NewYearMonth(year int, month time.Month) YearMonth {
	d := New(year, month, 1)
	return YearMonth{d.y, d.m}
}

// MonthOf returns the calendar month containing d.
func MonthOf(d Date) YearMonth { return YearMonth{d.y, d.m} }

// Year returns the year.
func (ym YearMonth) Year() int { return ym.y }

// Month returns the month of the year.
func (ym YearMonth) Month() time.Month { return ym.m }

// IsZero returns true if ym is the zero value.
func (ym YearMonth) IsZero() bool { return ym.y == 0 && ym.m == 0 }

// Next returns the following month.
func (ym YearMonth) Next() YearMonth { return NewYearMonth(ym.y, ym.m+1) }

// Before reports whether ym is before x.
func (ym YearMonth) Before(x YearMonth) bool {
	return ym.y < x.y || (ym.y == x.y && ym.m < x.m)
}

// After reports whether ym is after x.
func (ym YearMonth) After(x YearMonth) bool { return x.Before(ym) }

// FirstDay returns the first day of the month.
func (ym YearMonth) FirstDay() Date { return New(ym.y, ym.m, 1) }

// Days returns the number of days in the month.
func (ym YearMonth) Days() int { return ym.FirstDay().DaysInMonth() }

// String formats the month as YYYY-MM.
func (ym YearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.y, ym.m) }

// ParseYearMonth parses "YYYY-MM" (or "YYYY-M") and the "MM-YYYY" variant found in
// official CPI exports.
func ParseYearMonth(str string) (YearMonth, error) {
	str = strings.TrimSpace(str)
	a, b, ok := strings.Cut(str, "-")
	if !ok {
		return YearMonth{}, fmt.Errorf("invalid month %q want format YYYY-MM", str)
	}
	if len(b) == 4 && len(a) <= 2 {
		a, b = b, a
	}
	y, err := strconv.Atoi(a)
	if err != nil || len(a) != 4 {
		return YearMonth{}, fmt.Errorf("invalid year in month %q want format YYYY-MM", str)
	}
	m, err := strconv.Atoi(b)
	if err != nil || m < 1 || m > 12 {
		return YearMonth{}, fmt.Errorf("invalid month in %q want format YYYY-MM", str)
	}
	return YearMonth{y, time.Month(m)}, nil
}

// MustParseYearMonth is like ParseYearMonth but panics on error.
func MustParseYearMonth(str string) YearMonth {
	ym, err := ParseYearMonth(str)
	if err != nil {
		panic(err.Error())
	}
	return ym
}
