package fares

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/richxcame/delivery-fares/pkg/validation"
)

var weekdayOrder = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3,
	"thursday": 4, "friday": 5, "saturday": 6,
}

// ParseClock converts "HH:MM" (00:00-23:59) to minutes since midnight
func ParseClock(s string) (int, error) {
	if !validation.IsClock(s) {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return h*60 + m, nil
}

// WeekdayName returns the stored form of t's weekday, e.g. "friday"
func WeekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// NormalizeDays lower-cases, trims and de-duplicates weekday names, Sunday first
func NormalizeDays(days []string) []string {
	seen := make(map[string]bool, len(days))
	out := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.ToLower(strings.TrimSpace(d))
		if _, ok := weekdayOrder[d]; !ok || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return weekdayOrder[out[i]] < weekdayOrder[out[j]] })
	return out
}

// InWindow reports whether minute-of-day now falls inside [start, end).
// A window with start > end wraps midnight and includes both ends, so
// 22:00-06:00 covers 22:00 through 06:00. start == end is empty.
func InWindow(start, end, now int) bool {
	switch {
	case start < end:
		return now >= start && now < end
	case start > end:
		return now >= start || now <= end
	default:
		return false
	}
}

// ActiveAt reports whether the rule applies at t, in t's location.
// Rules with unparseable times never apply.
func (r *SurgePricingRule) ActiveAt(t time.Time) bool {
	if r == nil || !r.IsActive {
		return false
	}
	if !r.coversDay(WeekdayName(t)) {
		return false
	}
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return false
	}
	return InWindow(start, end, t.Hour()*60+t.Minute())
}

func (r *SurgePricingRule) coversDay(day string) bool {
	for _, d := range r.Days {
		if strings.EqualFold(strings.TrimSpace(d), day) {
			return true
		}
	}
	return false
}

// SelectRule returns the rule that applies to area at t and every rule that matched.
//
// Area matching is exact and case-sensitive. When several rules match, the
// highest multiplier wins, then the most recently created, then the lowest id.
func SelectRule(candidates []*SurgePricingRule, area string, t time.Time) (*SurgePricingRule, []*SurgePricingRule) {
	var matches []*SurgePricingRule
	for _, r := range candidates {
		if r != nil && r.Area == area && r.ActiveAt(t) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Multiplier != b.Multiplier {
			return a.Multiplier > b.Multiplier
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return matches[0], matches
}

func ruleIDs(rules []*SurgePricingRule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}
