// Package timeofday converts wall-clock strings into integer minutes and UTC calendar dates.
// Callers parse once at the boundary and keep all interval math on Minutes.
package timeofday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour

	DateLayout = time.DateOnly
)

var (
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")
)

// Minutes is a time of day expressed as minutes since midnight.
type Minutes int

// Parse accepts "H:MM" or "HH:MM" on a 24-hour clock.
func Parse(s string) (Minutes, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 || !isDigits(hh) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 || !isDigits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	return Minutes(hour*MinutesPerHour + minute), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Normalize returns s in canonical zero-padded HH:MM form.
func Normalize(s string) (string, error) {
	m, err := Parse(s)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

// Valid reports whether s parses as a time of day.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/MinutesPerHour, int(m)%MinutesPerHour)
}

// Add returns m shifted by d minutes. The result may leave the day; check with InDay.
func (m Minutes) Add(d int) Minutes {
	return m + Minutes(d)
}

// InDay reports whether m is a valid boundary within a single day, midnight included.
func (m Minutes) InDay() bool {
	return m >= 0 && m <= MinutesPerDay
}

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Date drops the clock part, keeping the calendar day as seen in UTC.
func Date(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
