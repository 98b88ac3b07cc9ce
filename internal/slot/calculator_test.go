package slot

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestPartitionCoversPeriodExactly(t *testing.T) {
	loc := time.UTC
	ref := time.Date(2026, time.March, 15, 13, 37, 0, 0, loc)
	for _, c := range Classes() {
		slots := AllInPeriod(ref, c, loc)
		if len(slots) != c.SlotCount() {
			t.Fatalf("%s: got %d slots, want %d", c, len(slots), c.SlotCount())
		}
		if !slots[0].Start.Equal(PeriodStart(ref, c, loc)) {
			t.Fatalf("%s: first slot starts at %v, want period start %v", c, slots[0].Start, PeriodStart(ref, c, loc))
		}
		if !slots[len(slots)-1].End.Equal(PeriodEnd(ref, c, loc)) {
			t.Fatalf("%s: last slot ends at %v, want period end %v", c, slots[len(slots)-1].End, PeriodEnd(ref, c, loc))
		}
		for i := 1; i < len(slots); i++ {
			if !slots[i].Start.Equal(slots[i-1].End) {
				t.Fatalf("%s: gap/overlap between slot %d and %d: %v vs %v",
					c, i, i+1, slots[i-1].End, slots[i].Start)
			}
			if slots[i].Index != slots[i-1].Index+1 {
				t.Fatalf("%s: indices not contiguous at %d", c, i)
			}
		}
	}
}

func TestIndexMonotonicWithinPeriod(t *testing.T) {
	loc := time.UTC
	start := time.Date(2026, time.June, 1, 0, 0, 0, 0, loc)
	for _, c := range Classes() {
		end := PeriodEnd(start, c, loc)
		step := end.Sub(start) / 50
		prev := 0
		for ts := start; ts.Before(end); ts = ts.Add(step) {
			idx := For(ts, c, loc).Index
			if idx < prev {
				t.Fatalf("%s: index decreased from %d to %d at %v", c, prev, idx, ts)
			}
			prev = idx
		}
		if got := For(end, c, loc).Index; got != 1 {
			t.Fatalf("%s: index at next period start = %d, want 1", c, got)
		}
	}
}

func TestForHourlyBoundaries(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		min  int
		want int
	}{
		{0, 1},
		{14, 1},
		{15, 2},
		{29, 2},
		{30, 3},
		{45, 4},
		{59, 4},
	}
	for _, tt := range tests {
		ts := time.Date(2026, time.January, 10, 9, tt.min, 0, 0, loc)
		s := For(ts, Hourly, loc)
		if s.Index != tt.want {
			t.Fatalf("minute %d: index=%d want %d", tt.min, s.Index, tt.want)
		}
		if !s.Contains(ts) {
			t.Fatalf("minute %d: slot [%v,%v) does not contain %v", tt.min, s.Start, s.End, ts)
		}
	}
}

func TestLongMonthClampsToLastSlot(t *testing.T) {
	loc := time.UTC
	// Day 31 is past the 4x7d grid; the clamp lands it in slot 4.
	ts := time.Date(2026, time.January, 31, 12, 0, 0, 0, loc)
	s := For(ts, Monthly, loc)
	if s.Index != 4 {
		t.Fatalf("index=%d want 4", s.Index)
	}
	if !s.End.Equal(time.Date(2026, time.February, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("last slot end=%v want month end", s.End)
	}
}

func TestPeriodStartUsesTimezone(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	// 2026-03-15 02:00 UTC is still 2026-03-14 in New York.
	ts := time.Date(2026, time.March, 15, 2, 0, 0, 0, time.UTC)
	got := PeriodStart(ts, Daily, ny)
	want := time.Date(2026, time.March, 14, 0, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Fatalf("period start=%v want %v", got, want)
	}
}

func TestWeekStartsMonday(t *testing.T) {
	loc := time.UTC
	// 2026-03-15 is a Sunday; the week began Monday the 9th.
	ts := time.Date(2026, time.March, 15, 10, 0, 0, 0, loc)
	got := PeriodStart(ts, Weekly, loc)
	want := time.Date(2026, time.March, 9, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("week start=%v want %v", got, want)
	}
	if For(ts, Weekly, loc).Index != 7 {
		t.Fatalf("sunday should be slot 7, got %d", For(ts, Weekly, loc).Index)
	}
}

func TestValidForNewBet(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, time.May, 5, 9, 40, 0, 0, loc) // hourly slot 3
	tests := []struct {
		index int
		want  bool
	}{
		{1, false},
		{2, false},
		{3, true},
		{4, true},
		{0, false},
		{5, false},
	}
	for _, tt := range tests {
		if got := ValidForNewBet(Hourly, tt.index, now, loc); got != tt.want {
			t.Fatalf("index %d: got %v want %v", tt.index, got, tt.want)
		}
	}
}

func TestAllInRangeSpansPeriods(t *testing.T) {
	loc := time.UTC
	from := time.Date(2026, time.April, 1, 9, 30, 0, 0, loc)
	to := time.Date(2026, time.April, 1, 11, 29, 0, 0, loc)
	slots := AllInRange(from, to, Hourly, loc)
	// 9:30-10:00 has 2 slots, 10:00-11:00 has 4, 11:00-11:30 has 2.
	if len(slots) != 8 {
		t.Fatalf("got %d slots, want 8", len(slots))
	}
	if !slots[0].Start.Equal(time.Date(2026, time.April, 1, 9, 30, 0, 0, loc)) {
		t.Fatalf("first slot start=%v", slots[0].Start)
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.Equal(slots[i-1].End) {
			t.Fatalf("gap at %d: %v vs %v", i, slots[i-1].End, slots[i].Start)
		}
	}
}

func TestParseClass(t *testing.T) {
	tests := []struct {
		in   string
		want Class
		ok   bool
	}{
		{"hourly", Hourly, true},
		{"Daily", Daily, true},
		{" yearly ", Yearly, true},
		{"fortnightly", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseClass(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Fatalf("ParseClass(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Fatalf("ParseClass(%q): expected error", tt.in)
		}
	}
}
