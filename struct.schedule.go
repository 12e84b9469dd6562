package sequence

import "sort"

// Entry is one pending mid-run parameter assignment.
type Entry struct {
	Time      float64
	Component string
	Param     string
	Value     interface{}
}

// Schedule hands out parameter assignments as model time reaches them.
// Entries are sorted by time; the sort is stable so entries listed later
// win ties when applied in order.
type Schedule struct {
	entries []Entry
	next    int
}

func NewSchedule(entries []Entry) *Schedule {
	s := &Schedule{entries: make([]Entry, len(entries))}
	copy(s.entries, entries)
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].Time < s.entries[j].Time
	})
	return s
}

// Due returns the entries whose time has arrived, each exactly once, in
// order.
func (s *Schedule) Due(now float64) []Entry {
	first := s.next
	for s.next < len(s.entries) && s.entries[s.next].Time <= now {
		s.next++
	}
	return s.entries[first:s.next]
}

// Pending returns the entries not yet handed out.
func (s *Schedule) Pending() []Entry { return s.entries[s.next:] }

// Applied returns how many entries have been handed out.
func (s *Schedule) Applied() int { return s.next }

// Seek rewinds or forwards the schedule to a handed-out count, used when
// resuming a saved run.
func (s *Schedule) Seek(n int) error {
	if n < 0 || n > len(s.entries) {
		return configErrorf("schedule: cannot seek to entry %d of %d", n, len(s.entries))
	}
	s.next = n
	return nil
}

// Head returns the first n entries in applied order, used to replay
// parameter assignments when resuming a saved run.
func (s *Schedule) Head(n int) []Entry {
	if n > len(s.entries) {
		n = len(s.entries)
	}
	return s.entries[:n]
}

// Targets returns every (component, param) pair the schedule will touch,
// for build-time validation.
func (s *Schedule) Targets() [][2]string {
	out := make([][2]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = [2]string{e.Component, e.Param}
	}
	return out
}
