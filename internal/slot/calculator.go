package slot

import (
	"time"
)

// Slot is one of the fixed, contiguous intervals partitioning a period.
// Index is 1-based. [Start, End) is half-open: End equals the next slot's
// Start, or the period end for the last slot.
type Slot struct {
	Index int
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the slot window.
func (s Slot) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// PeriodStart returns the start of the period containing t for the given
// class, computed in loc rather than UTC.
func PeriodStart(t time.Time, c Class, loc *time.Location) time.Time {
	t = t.In(loc)
	switch schemes[c].period {
	case periodHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case periodDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	case periodWeek:
		// ISO week: Monday start.
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case periodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	case periodQuarter:
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, loc)
	case periodYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc)
	}
	return t
}

// PeriodEnd returns the start of the next period.
func PeriodEnd(t time.Time, c Class, loc *time.Location) time.Time {
	start := PeriodStart(t, c, loc)
	switch schemes[c].period {
	case periodHour:
		return start.Add(time.Hour)
	case periodDay:
		return start.AddDate(0, 0, 1)
	case periodWeek:
		return start.AddDate(0, 0, 7)
	case periodMonth:
		return start.AddDate(0, 1, 0)
	case periodQuarter:
		return start.AddDate(0, 3, 0)
	case periodYear:
		return start.AddDate(1, 0, 0)
	}
	return start
}

// For returns the slot containing t. The raw index is
// floor(elapsed/interval) clamped to [0, N-1], so timestamps past the last
// fixed boundary (long months, DST days) land in the final slot.
func For(t time.Time, c Class, loc *time.Location) Slot {
	sc := schemes[c]
	start := PeriodStart(t, c, loc)
	end := PeriodEnd(t, c, loc)

	idx := int(t.Sub(start) / sc.interval)
	if idx < 0 {
		idx = 0
	}
	if idx > sc.count-1 {
		idx = sc.count - 1
	}
	return build(start, end, sc, idx)
}

func build(periodStart, periodEnd time.Time, sc scheme, idx int) Slot {
	s := Slot{
		Index: idx + 1,
		Start: periodStart.Add(time.Duration(idx) * sc.interval),
		End:   periodStart.Add(time.Duration(idx+1) * sc.interval),
	}
	if idx == sc.count-1 || s.End.After(periodEnd) {
		s.End = periodEnd
	}
	return s
}

// AllInPeriod enumerates every slot of the period containing t.
func AllInPeriod(t time.Time, c Class, loc *time.Location) []Slot {
	sc := schemes[c]
	start := PeriodStart(t, c, loc)
	end := PeriodEnd(t, c, loc)
	out := make([]Slot, 0, sc.count)
	for i := 0; i < sc.count; i++ {
		out = append(out, build(start, end, sc, i))
	}
	return out
}

// AllInRange returns every slot overlapping [from, to].
func AllInRange(from, to time.Time, c Class, loc *time.Location) []Slot {
	if to.Before(from) {
		return nil
	}
	var out []Slot
	cursor := PeriodStart(from, c, loc)
	for !cursor.After(to) {
		for _, s := range AllInPeriod(cursor, c, loc) {
			if s.End.After(from) && !s.Start.After(to) {
				out = append(out, s)
			}
		}
		cursor = PeriodEnd(cursor, c, loc)
	}
	return out
}

// ValidForNewBet reports whether a bet may still be placed on the given
// slot index: the slot containing now and every later slot are open, only
// strictly past slots are rejected. Future slots are accepted on purpose.
func ValidForNewBet(c Class, index int, now time.Time, loc *time.Location) bool {
	if index < 1 || index > schemes[c].count {
		return false
	}
	return index >= For(now, c, loc).Index
}
