package scheduling

import (
	"fmt"
	"sort"

	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/model"
	"agenda/pkg/timeofday"
)

// Interval is a same-day span [Start, End) in minutes since midnight.
type Interval struct {
	Start timeofday.Minutes
	End   timeofday.Minutes
}

func (i Interval) Duration() int {
	return int(i.End - i.Start)
}

// Overlaps reports whether a and b are closer than grace minutes. The rule is
// symmetric and a gap of exactly grace is allowed.
func Overlaps(a, b Interval, grace int) bool {
	g := timeofday.Minutes(grace)
	return a.Start < b.End+g && b.Start < a.End+g
}

// Proposal is a schedule being created or edited.
type Proposal struct {
	DayOfWeek    int
	StartTime    string
	EndTime      string
	Category     string
	GraceMinutes int
}

type ValidatorConfig struct {
	Domains        *ConflictDomains
	WindowStart    timeofday.Minutes
	WindowEnd      timeofday.Minutes
	MaxSuggestions int
}

// ConflictValidator checks proposals against a snapshot of stored schedules.
// It does no I/O.
type ConflictValidator struct {
	domains        *ConflictDomains
	windowStart    timeofday.Minutes
	windowEnd      timeofday.Minutes
	maxSuggestions int
}

func NewConflictValidator(cfg ValidatorConfig) *ConflictValidator {
	if cfg.Domains == nil {
		cfg.Domains = NewConflictDomains(nil)
	}
	if cfg.WindowEnd <= cfg.WindowStart {
		cfg.WindowStart, cfg.WindowEnd = 0, timeofday.MinutesPerDay
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 1
	}
	return &ConflictValidator{
		domains:        cfg.Domains,
		windowStart:    cfg.WindowStart,
		windowEnd:      cfg.WindowEnd,
		maxSuggestions: cfg.MaxSuggestions,
	}
}

func (v *ConflictValidator) Domains() *ConflictDomains {
	return v.domains
}

// ParseProposal validates the proposal's fields and returns its interval.
func ParseProposal(p Proposal) (Interval, error) {
	if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
		return Interval{}, apperrors.InvalidInput(fmt.Sprintf("dayOfWeek must be between 0 (Sunday) and 6 (Saturday), got %d", p.DayOfWeek))
	}
	start, err := timeofday.Parse(p.StartTime)
	if err != nil {
		return Interval{}, apperrors.InvalidTimeFormat(p.StartTime)
	}
	end, err := timeofday.Parse(p.EndTime)
	if err != nil {
		return Interval{}, apperrors.InvalidTimeFormat(p.EndTime)
	}
	if start >= end {
		return Interval{}, apperrors.InvalidInput(fmt.Sprintf("startTime %s must be before endTime %s", start, end))
	}
	if p.GraceMinutes < 0 {
		return Interval{}, apperrors.InvalidInput(fmt.Sprintf("graceMinutes cannot be negative, got %d", p.GraceMinutes))
	}
	return Interval{Start: start, End: end}, nil
}

type peer struct {
	schedule model.RecurringSchedule
	span     Interval
}

// Validate reports every active schedule on the same weekday and conflict
// domain that sits closer than the grace period, plus alternative start
// times when there is a conflict. excludeID skips the record being edited.
func (v *ConflictValidator) Validate(p Proposal, existing []model.RecurringSchedule, excludeID string) (model.ScheduleValidation, error) {
	span, err := ParseProposal(p)
	if err != nil {
		return model.ScheduleValidation{}, err
	}

	peers := v.peers(p, existing, excludeID)
	result := model.ScheduleValidation{
		IsValid:     true,
		Message:     "No conflicts found",
		Conflicts:   []model.RecurringSchedule{},
		Suggestions: []string{},
	}

	var conflicting []peer
	for _, pr := range peers {
		if Overlaps(span, pr.span, p.GraceMinutes) {
			conflicting = append(conflicting, pr)
			result.Conflicts = append(result.Conflicts, pr.schedule)
		}
	}
	if len(conflicting) == 0 {
		return result, nil
	}

	result.IsValid = false
	result.Suggestions = v.suggest(span.Duration(), p.GraceMinutes, conflicting, peers)
	result.Message = fmt.Sprintf("Schedule conflicts with %d existing schedule(s) in the %q conflict domain", len(conflicting), v.domains.Domain(p.Category))
	return result, nil
}

func (v *ConflictValidator) peers(p Proposal, existing []model.RecurringSchedule, excludeID string) []peer {
	var peers []peer
	for _, s := range existing {
		if !s.IsActive || s.DayOfWeek != p.DayOfWeek {
			continue
		}
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if !v.domains.SameDomain(s.Category, p.Category) {
			continue
		}
		start, errStart := timeofday.Parse(s.StartTime)
		end, errEnd := timeofday.Parse(s.EndTime)
		if errStart != nil || errEnd != nil || start >= end {
			continue
		}
		peers = append(peers, peer{schedule: s, span: Interval{Start: start, End: end}})
	}
	sort.SliceStable(peers, func(i, j int) bool { return peers[i].span.Start < peers[j].span.Start })
	return peers
}

// suggest proposes start times right after each conflict's grace period,
// keeping the proposed duration. A candidate that collides with another peer
// moves past that peer until it fits or leaves the operating window.
func (v *ConflictValidator) suggest(duration, grace int, conflicts, peers []peer) []string {
	seen := make(map[timeofday.Minutes]struct{})
	var starts []timeofday.Minutes

	for _, c := range conflicts {
		candidate := max(c.span.End.Add(grace), v.windowStart)
		for {
			slot := Interval{Start: candidate, End: candidate.Add(duration)}
			if slot.End > v.windowEnd {
				break
			}
			blocker, blocked := firstOverlap(slot, grace, peers)
			if !blocked {
				if _, dup := seen[candidate]; !dup {
					seen[candidate] = struct{}{}
					starts = append(starts, candidate)
				}
				break
			}
			candidate = blocker.span.End.Add(grace)
		}
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	if len(starts) > v.maxSuggestions {
		starts = starts[:v.maxSuggestions]
	}

	out := make([]string, len(starts))
	for i, s := range starts {
		out[i] = s.String()
	}
	return out
}

func firstOverlap(slot Interval, grace int, peers []peer) (peer, bool) {
	for _, pr := range peers {
		if Overlaps(slot, pr.span, grace) {
			return pr, true
		}
	}
	return peer{}, false
}

// SlotConflicts reports whether a slot starting at c with the given duration
// overlaps an active schedule of the same conflict domain on c's weekday.
func (v *ConflictValidator) SlotConflicts(c Candidate, duration int, category string, schedules []model.RecurringSchedule) bool {
	p := Proposal{DayOfWeek: int(c.Date.Weekday()), Category: category}
	slot := Interval{Start: c.Time, End: c.Time.Add(duration)}
	for _, pr := range v.peers(p, schedules, "") {
		if Overlaps(slot, pr.span, 0) {
			return true
		}
	}
	return false
}

// NewConflictValidatorFromConfig builds the validator from the service
// configuration. cfg.Validate has already checked the window format.
func NewConflictValidatorFromConfig(cfg *config.Config) *ConflictValidator {
	start, _ := timeofday.Parse(cfg.OperatingWindowStart)
	end, _ := timeofday.Parse(cfg.OperatingWindowEnd)
	return NewConflictValidator(ValidatorConfig{
		Domains:        NewConflictDomains(cfg.ConflictDomains),
		WindowStart:    start,
		WindowEnd:      end,
		MaxSuggestions: cfg.MaxSuggestions,
	})
}
