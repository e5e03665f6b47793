package hunt

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseActive   Phase = "active"
	PhaseExpired  Phase = "expired"
)

// TimeState is the derived schedule status of an event at one instant. The
// breakdown fields decompose TotalSeconds toward the next boundary: the
// start for upcoming events, the end for active ones.
type TimeState struct {
	Phase        Phase   `json:"phase"`
	Days         int     `json:"days"`
	Hours        int     `json:"hours"`
	Minutes      int     `json:"minutes"`
	Seconds      int     `json:"seconds"`
	TotalSeconds float64 `json:"totalSeconds"`
}

func (s TimeState) Expired() bool { return s.Phase == PhaseExpired }

// Countdown renders the breakdown for display, e.g. "1d 2h 3m 4s". Leading
// zero units are dropped; seconds are always shown.
func (s TimeState) Countdown() string {
	var b strings.Builder
	started := false
	for _, u := range []struct {
		n      int
		suffix string
	}{{s.Days, "d"}, {s.Hours, "h"}, {s.Minutes, "m"}} {
		if u.n == 0 && !started {
			continue
		}
		started = true
		fmt.Fprintf(&b, "%d%s ", u.n, u.suffix)
	}
	fmt.Fprintf(&b, "%ds", s.Seconds)
	return b.String()
}

// Breakdown splits a non-negative second count into whole days, hours,
// minutes, and seconds by truncation.
func Breakdown(total float64) (days, hours, minutes, seconds int) {
	s := int64(math.Floor(math.Max(total, 0)))
	days = int(s / 86400)
	hours = int(s % 86400 / 3600)
	minutes = int(s % 3600 / 60)
	seconds = int(s % 60)
	return
}

var startLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseStartTime reads a naive wall-clock timestamp in loc. A trailing "Z"
// is ignored: authors enter local times and no zone conversion applies.
func ParseStartTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: start time %q", ErrInvalidInput, s)
}

// Classify reports where now falls relative to an event starting at
// startTime and lasting durationMinutes. The start is read in now's
// location. It returns false when the event has no usable schedule: an
// empty or malformed start, or a non-positive duration.
func Classify(startTime string, durationMinutes int, now time.Time) (TimeState, bool) {
	if startTime == "" || durationMinutes <= 0 {
		return TimeState{}, false
	}
	start, err := ParseStartTime(startTime, now.Location())
	if err != nil {
		return TimeState{}, false
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	if now.After(end) {
		return TimeState{Phase: PhaseExpired}, true
	}

	st := TimeState{Phase: PhaseUpcoming}
	target := start
	if !now.Before(start) {
		st.Phase = PhaseActive
		target = end
	}
	st.TotalSeconds = math.Max(0, target.Sub(now).Seconds())
	st.Days, st.Hours, st.Minutes, st.Seconds = Breakdown(st.TotalSeconds)
	return st, true
}

// ClassifyLocation is Classify over a location's schedule fields.
func ClassifyLocation(l Location, now time.Time) (TimeState, bool) {
	return Classify(l.StartTime, l.Duration, now)
}
