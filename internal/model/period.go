package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"fieldexpense/pkg/apperror"
)

// Period kind enum constants
const (
	PeriodMonthly  = "MONTHLY"
	PeriodWeekly   = "WEEKLY"
	PeriodBiweekly = "BIWEEKLY"
)

var (
	monthlyPattern  = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	weeklyPattern   = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)
	biweeklyPattern = regexp.MustCompile(`^(\d{4})-B(\d{2})$`)
)

// Period identifies a reporting window. Identifiers:
//
//	YYYY-MM   calendar month
//	YYYY-Wnn  ISO week nn
//	YYYY-Bnn  biweekly block nn, covering ISO weeks 2nn-1 and 2nn
//
// The window is half-open: [Start, End).
type Period struct {
	Raw   string    `json:"raw"`
	Kind  string    `json:"kind"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParsePeriod validates and resolves a period identifier to its date window.
func ParsePeriod(raw string) (Period, error) {
	if m := monthlyPattern.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return Period{}, apperror.Validation("malformed period %q: month out of range", raw)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return Period{Raw: raw, Kind: PeriodMonthly, Start: start, End: start.AddDate(0, 1, 0)}, nil
	}

	if m := weeklyPattern.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		if week < 1 || week > 53 {
			return Period{}, apperror.Validation("malformed period %q: week out of range", raw)
		}
		start := isoWeekStart(year, week)
		return Period{Raw: raw, Kind: PeriodWeekly, Start: start, End: start.AddDate(0, 0, 7)}, nil
	}

	if m := biweeklyPattern.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		block, _ := strconv.Atoi(m[2])
		if block < 1 || block > 27 {
			return Period{}, apperror.Validation("malformed period %q: biweekly block out of range", raw)
		}
		start := isoWeekStart(year, block*2-1)
		return Period{Raw: raw, Kind: PeriodBiweekly, Start: start, End: start.AddDate(0, 0, 14)}, nil
	}

	return Period{}, apperror.Validation("malformed period %q: expected YYYY-MM, YYYY-Wnn or YYYY-Bnn", raw)
}

// PeriodFor returns the monthly period identifier covering t.
func PeriodFor(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// PeriodsCovering returns the identifier of every period kind whose window
// contains t: the calendar month, the ISO week and the biweekly block. Any
// report whose period covers t carries one of these identifiers.
func PeriodsCovering(t time.Time) []string {
	isoYear, isoWeek := t.ISOWeek()
	return []string{
		fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())),
		fmt.Sprintf("%04d-W%02d", isoYear, isoWeek),
		fmt.Sprintf("%04d-B%02d", isoYear, (isoWeek+1)/2),
	}
}

// Contains reports whether t falls inside the period window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// isoWeekStart returns the Monday of the given ISO week. Jan 4 is always in
// ISO week 1 of its year.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7)
}
