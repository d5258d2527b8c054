package lirashield

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yaman-yucel/lirashield/date"
)

// this file contains the CSV formats used to import the series that have no
// automatic provider, and to export every series.

// readRows reads every non empty, non comment row of a CSV input. A first row
// whose first cell has no digit is skipped as a header.
func readRows(r io.Reader, fields int) ([][]string, []int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	var rows [][]string
	var lines []int
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to read csv: %w", ErrValidation, err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if first && !strings.ContainsAny(record[0], "0123456789") {
			continue
		}
		if len(record) < fields {
			return nil, nil, fmt.Errorf("%w: line %d: want at least %d fields, got %d", ErrValidation, line, fields, len(record))
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
		lines = append(lines, line)
	}
	return rows, lines, nil
}

// ParseCPI reads monthly CPI prints, one per line: "YYYY-MM,yoy,mom".
//
// Months may also be written "MM-YYYY". The monthly change may be left empty.
// A month appearing twice is rejected.
func ParseCPI(r io.Reader) ([]CPIEntry, error) {
	rows, lines, err := readRows(r, 2)
	if err != nil {
		return nil, err
	}
	seen := make(map[date.YearMonth]int)
	entries := make([]CPIEntry, 0, len(rows))
	for i, row := range rows {
		line := lines[i]
		ym, err := date.ParseYearMonth(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrValidation, line, err)
		}
		if prev, ok := seen[ym]; ok {
			return nil, fmt.Errorf("%w: line %d: month %s already defined on line %d", ErrValidation, line, ym, prev)
		}
		seen[ym] = line

		yoy, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid yearly change %q", ErrValidation, line, row[1])
		}
		e := CPIEntry{Month: ym, YoY: Percent(yoy)}
		if len(row) > 2 && row[2] != "" {
			mom, err := strconv.ParseFloat(row[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid monthly change %q", ErrValidation, line, row[2])
			}
			e.MoM = Percent(mom).Ptr()
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseRates reads USD/TRY rates, one per line: "YYYY-MM-DD,rate".
// A date appearing twice is rejected.
func ParseRates(r io.Reader, source string) ([]RateEntry, error) {
	rows, lines, err := readRows(r, 2)
	if err != nil {
		return nil, err
	}
	seen := make(map[date.Date]int)
	entries := make([]RateEntry, 0, len(rows))
	for i, row := range rows {
		line := lines[i]
		day, err := date.Parse(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrValidation, line, err)
		}
		if prev, ok := seen[day]; ok {
			return nil, fmt.Errorf("%w: line %d: date %s already defined on line %d", ErrValidation, line, day, prev)
		}
		seen[day] = line
		rate, err := strconv.ParseFloat(row[1], 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("%w: line %d: rate must be a positive number, got %q", ErrValidation, line, row[1])
		}
		entries = append(entries, RateEntry{Date: day, Rate: rate, Source: source})
	}
	return entries, nil
}

// WriteCPI writes prints in the format read by ParseCPI, with a header.
func WriteCPI(w io.Writer, entries []CPIEntry) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"year_month", "yoy_pct", "mom_pct"})
	for _, e := range entries {
		mom := ""
		if e.MoM != nil {
			mom = strconv.FormatFloat(float64(*e.MoM), 'f', -1, 64)
		}
		_ = cw.Write([]string{e.Month.String(), strconv.FormatFloat(float64(e.YoY), 'f', -1, 64), mom})
	}
	cw.Flush()
	return cw.Error()
}

// WriteRates writes a history of rates or prices in the format read by ParseRates, with a header.
func WriteRates(w io.Writer, h *date.History[float64]) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "value"})
	for day, v := range h.Values() {
		_ = cw.Write([]string{day.String(), strconv.FormatFloat(v, 'f', -1, 64)})
	}
	cw.Flush()
	return cw.Error()
}
