// Package clock supplies the current time and business-day arithmetic.
// Saturdays and Sundays are the only non-business days.
package clock

import (
	"sync"
	"time"

	"github.com/BruksfildServices01/client-portal/internal/timezone"
)

type Clock interface {
	Now() time.Time
}

type System struct {
	loc *time.Location
}

func NewSystem(tz string) System {
	return System{loc: timezone.Location(tz)}
}

func (s System) Now() time.Time {
	if s.loc == nil {
		return time.Now()
	}
	return time.Now().In(s.loc)
}

// Fixed is a manually driven clock for tests and replays.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// AddBusinessDays moves t forward by n business days keeping the wall-clock
// time of day. Starting on a weekend counts from the following Monday.
func AddBusinessDays(t time.Time, n int) time.Time {
	out := t
	for added := 0; added < n; {
		out = out.AddDate(0, 0, 1)
		if IsBusinessDay(out) {
			added++
		}
	}
	return out
}

func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// IsNextBusinessDay reports whether due falls on the business day that
// follows now, both evaluated in now's location.
func IsNextBusinessDay(now, due time.Time) bool {
	return SameDate(AddBusinessDays(now, 1), due)
}
