package scheduling

import (
	"testing"
	"time"

	apperrors "agenda/pkg/errors"
)

func TestExpand_CountMatchesDaysTimesTimes(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		times []string
	}{
		{"single day single time", "2025-01-06", "2025-01-06", []string{"09:00"}},
		{"one week two times", "2025-01-06", "2025-01-12", []string{"14:00", "15:00"}},
		{"month boundary", "2025-01-30", "2025-02-02", []string{"08:00", "12:30", "18:45"}},
		{"leap day", "2024-02-27", "2024-03-01", []string{"07:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.start, tt.end, tt.times, ExpandOptions{})
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			start, _ := time.Parse(time.DateOnly, tt.start)
			end, _ := time.Parse(time.DateOnly, tt.end)
			want := (DaysBetween(start, end) + 1) * len(tt.times)
			if len(got) != want {
				t.Errorf("len = %d, want %d", len(got), want)
			}
		})
	}
}

func TestExpand_SkipWeekends(t *testing.T) {
	got, err := Expand("2025-01-06", "2025-01-12", []string{"14:00", "15:00"}, ExpandOptions{SkipWeekends: true})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	for _, c := range got {
		if wd := c.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("candidate on weekend: %s", c.DateString())
		}
	}
}

func TestExpand_DayMajorOrder(t *testing.T) {
	got, err := Expand("2025-01-06", "2025-01-07", []string{"15:00", "9:30"}, ExpandOptions{})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	want := []string{
		"2025-01-06T15:00", "2025-01-06T09:30",
		"2025-01-07T15:00", "2025-01-07T09:30",
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.Key() != want[i] {
			t.Errorf("candidate %d = %s, want %s", i, c.Key(), want[i])
		}
		if c.Date.Location() != time.UTC || c.Date.Hour() != 0 {
			t.Errorf("candidate %d date not UTC midnight: %v", i, c.Date)
		}
	}
}

func TestExpand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		times    []string
		opts     ExpandOptions
		wantCode string
	}{
		{"end before start", "2025-01-10", "2025-01-09", []string{"09:00"}, ExpandOptions{}, apperrors.CodeInvalidRange},
		{"empty times", "2025-01-06", "2025-01-07", nil, ExpandOptions{}, apperrors.CodeInvalidInput},
		{"malformed time", "2025-01-06", "2025-01-07", []string{"09:00", "25:00"}, ExpandOptions{}, apperrors.CodeInvalidTimeFormat},
		{"malformed start date", "06/01/2025", "2025-01-07", []string{"09:00"}, ExpandOptions{}, apperrors.CodeInvalidInput},
		{"too many candidates", "2025-01-01", "2025-12-31", []string{"09:00", "10:00"}, ExpandOptions{MaxCandidates: 100}, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.start, tt.end, tt.times, tt.opts)
			if err == nil {
				t.Fatalf("expected error, got %d candidates", len(got))
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestExpand_GuardCountsAfterWeekendFiltering(t *testing.T) {
	// 7 days, 5 weekdays: 10 candidates fit a limit of 10 only when weekends are skipped.
	if _, err := Expand("2025-01-06", "2025-01-12", []string{"14:00", "15:00"}, ExpandOptions{SkipWeekends: true, MaxCandidates: 10}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := Expand("2025-01-06", "2025-01-12", []string{"14:00", "15:00"}, ExpandOptions{MaxCandidates: 10}); err == nil {
		t.Error("expected guard to reject 14 candidates")
	}
}
