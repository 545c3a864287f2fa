package revenue

import (
	"fmt"
	"strings"
	"time"
)

// Accrual decides how many monthly rent installments have come due on a
// lease by a given date. Partial months are never prorated: the month in
// progress counts in full.
type Accrual interface {
	MonthsDue(start, asOf time.Time) int
	Name() string
}

// Accrual policy names, as used in configuration.
const (
	ThirtyDay = "thirty_day"
	Calendar  = "calendar"
)

const accrualPeriod = 30 * 24 * time.Hour

// ThirtyDayAccrual treats every month as 30 days:
// floor((asOf - start) / 30 days) + 1. It drifts from calendar months by a
// few days a year, which moves installments across month boundaries.
type ThirtyDayAccrual struct{}

func (ThirtyDayAccrual) Name() string { return ThirtyDay }

func (ThirtyDayAccrual) MonthsDue(start, asOf time.Time) int {
	if asOf.Before(start) {
		return 0
	}
	return int(asOf.Sub(start)/accrualPeriod) + 1
}

// CalendarAccrual counts monthly anniversaries of the start date. A lease
// starting on the 31st reaches its anniversary on the last day of shorter
// months.
type CalendarAccrual struct{}

func (CalendarAccrual) Name() string { return Calendar }

func (CalendarAccrual) MonthsDue(start, asOf time.Time) int {
	if asOf.Before(start) {
		return 0
	}
	asOf = asOf.In(start.Location())
	n := (asOf.Year()-start.Year())*12 + int(asOf.Month()) - int(start.Month())
	if asOf.Before(addMonthsClamped(start, n)) {
		n--
	}
	return n + 1
}

// addMonthsClamped adds n months to t, clamping the day to the length of
// the target month instead of overflowing into the next one.
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(t.Day(), lastDay)-1)
}

// AccrualByName returns the policy registered under name. An empty name
// selects ThirtyDayAccrual.
func AccrualByName(name string) (Accrual, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ThirtyDay:
		return ThirtyDayAccrual{}, nil
	case Calendar:
		return CalendarAccrual{}, nil
	default:
		return nil, fmt.Errorf("unknown accrual policy %q", name)
	}
}
