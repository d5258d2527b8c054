package date

import (
	"testing"
	"time"
)

func TestParseYearMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    YearMonth
		wantErr bool
	}{
		{in: "2024-03", want: NewYearMonth(2024, time.March)},
		{in: "2024-3", want: NewYearMonth(2024, time.March)},
		{in: "03-2024", want: NewYearMonth(2024, time.March)},
		{in: "2024-13", wantErr: true},
		{in: "24-03", wantErr: true},
		{in: "202403", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYearMonth(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseYearMonth(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseYearMonth(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestYearMonth_Next(t *testing.T) {
	ym := MustParseYearMonth("2023-12")
	if got, want := ym.Next(), MustParseYearMonth("2024-01"); got != want {
		t.Errorf("Next() = %v, want %v", got, want)
	}
	if !ym.Before(ym.Next()) || ym.After(ym.Next()) {
		t.Errorf("%v should be before %v", ym, ym.Next())
	}
	if got := MustParseYearMonth("2024-02").Days(); got != 29 {
		t.Errorf("Days() = %v, want 29", got)
	}
	if got := MonthOf(MustParse("2024-02-17")); got.String() != "2024-02" {
		t.Errorf("MonthOf() = %v, want 2024-02", got)
	}
}
