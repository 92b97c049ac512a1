package scheduling

import (
	"fmt"
	"time"

	apperrors "agenda/pkg/errors"
	"agenda/pkg/timeofday"
)

// Candidate is one (date, time) combination produced by Expand.
type Candidate struct {
	Date time.Time
	Time timeofday.Minutes
}

func (c Candidate) DateString() string {
	return timeofday.FormatDate(c.Date)
}

func (c Candidate) TimeString() string {
	return c.Time.String()
}

// Key identifies the candidate within one category.
func (c Candidate) Key() string {
	return SlotKey(c.Date, c.Time.String())
}

// SlotKey is the (date, time) identity used to match candidates against stored slots.
func SlotKey(date time.Time, hhmm string) string {
	return timeofday.FormatDate(date) + "T" + hhmm
}

type ExpandOptions struct {
	SkipWeekends bool
	// MaxCandidates rejects ranges that would produce more candidates. Zero disables the guard.
	MaxCandidates int
}

// Expand enumerates every retained day from startDate to endDate inclusive
// and one candidate per time of day, day-major and time-minor in input order.
// All inputs are validated before anything is produced.
func Expand(startDate, endDate string, timesOfDay []string, opts ExpandOptions) ([]Candidate, error) {
	start, err := timeofday.ParseDate(startDate)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("startDate must be YYYY-MM-DD, got %q", startDate))
	}
	end, err := timeofday.ParseDate(endDate)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("endDate must be YYYY-MM-DD, got %q", endDate))
	}
	if end.Before(start) {
		return nil, apperrors.InvalidRange(fmt.Sprintf("endDate %s is before startDate %s", endDate, startDate))
	}
	if len(timesOfDay) == 0 {
		return nil, apperrors.InvalidInput("timesOfDay must contain at least one time")
	}

	times := make([]timeofday.Minutes, len(timesOfDay))
	for i, s := range timesOfDay {
		m, err := timeofday.Parse(s)
		if err != nil {
			return nil, apperrors.InvalidTimeFormat(s)
		}
		times[i] = m
	}

	days := DaysBetween(start, end) + 1
	if opts.MaxCandidates > 0 && days*len(times) > opts.MaxCandidates {
		if n := countDays(start, end, opts.SkipWeekends) * len(times); n > opts.MaxCandidates {
			return nil, apperrors.InvalidInput(fmt.Sprintf("range produces %d slots, the limit is %d", n, opts.MaxCandidates))
		}
	}

	candidates := make([]Candidate, 0, days*len(times))
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if opts.SkipWeekends && timeofday.IsWeekend(day) {
			continue
		}
		for _, t := range times {
			candidates = append(candidates, Candidate{Date: day, Time: t})
		}
	}
	return candidates, nil
}

// DaysBetween counts calendar days from start to end; both are UTC midnights.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

func countDays(start, end time.Time, skipWeekends bool) int {
	n := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if skipWeekends && timeofday.IsWeekend(day) {
			continue
		}
		n++
	}
	return n
}
