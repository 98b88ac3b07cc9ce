package slot

import (
	"fmt"
	"strings"
	"time"
)

// Class is a closed enumeration of supported bet lengths. Each class maps to
// a fixed partitioning scheme: the calendar period it divides and the number
// and length of the slots inside that period.
type Class int

const (
	Hourly Class = iota
	Daily
	Weekly
	Monthly
	Quarterly
	Yearly
)

type period int

const (
	periodHour period = iota
	periodDay
	periodWeek
	periodMonth
	periodQuarter
	periodYear
)

type scheme struct {
	name     string
	period   period
	count    int
	interval time.Duration
}

// schemes is indexed by Class. Intervals are fixed per class; calendar
// periods whose length varies (months, quarters, years, DST days) are
// absorbed by the last slot, which always extends to the period end.
var schemes = [...]scheme{
	Hourly:    {name: "hourly", period: periodHour, count: 4, interval: 15 * time.Minute},
	Daily:     {name: "daily", period: periodDay, count: 4, interval: 6 * time.Hour},
	Weekly:    {name: "weekly", period: periodWeek, count: 7, interval: 24 * time.Hour},
	Monthly:   {name: "monthly", period: periodMonth, count: 4, interval: 7 * 24 * time.Hour},
	Quarterly: {name: "quarterly", period: periodQuarter, count: 3, interval: 30 * 24 * time.Hour},
	Yearly:    {name: "yearly", period: periodYear, count: 4, interval: 91 * 24 * time.Hour},
}

// Classes returns every supported duration class in declaration order.
func Classes() []Class {
	return []Class{Hourly, Daily, Weekly, Monthly, Quarterly, Yearly}
}

func (c Class) valid() bool {
	return c >= Hourly && c <= Yearly
}

func (c Class) String() string {
	if !c.valid() {
		return "unknown"
	}
	return schemes[c].name
}

// SlotCount reports the fixed number of slots that partition one period.
func (c Class) SlotCount() int {
	if !c.valid() {
		return 0
	}
	return schemes[c].count
}

// ParseClass maps a wire string ("hourly" .. "yearly") to its Class.
func ParseClass(s string) (Class, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Classes() {
		if schemes[c].name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown duration class %q", s)
}
