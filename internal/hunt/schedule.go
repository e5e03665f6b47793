package hunt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleInput is an event schedule as typed into the admin form.
type ScheduleInput struct {
	Date     string `json:"eventDate"`   // MM/DD/YYYY
	Time     string `json:"startTime"`   // hh:mm, 12-hour clock
	Period   string `json:"startPeriod"` // AM or PM
	Duration string `json:"duration"`    // HH:MM
}

// ParseSchedule converts form input into the stored startTime (naive
// local, "2006-01-02T15:04:05") and a duration in minutes.
func ParseSchedule(in ScheduleInput) (string, int, error) {
	month, day, year, err := splitDate(in.Date)
	if err != nil {
		return "", 0, err
	}

	hour, minute, err := splitClock(in.Time)
	if err != nil {
		return "", 0, fmt.Errorf("%w: start time %q", ErrInvalidInput, in.Time)
	}
	if hour < 1 || hour > 12 || minute > 59 {
		return "", 0, fmt.Errorf("%w: start time %q", ErrInvalidInput, in.Time)
	}
	switch strings.ToUpper(strings.TrimSpace(in.Period)) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return "", 0, fmt.Errorf("%w: period %q", ErrInvalidInput, in.Period)
	}

	dh, dm, err := splitClock(in.Duration)
	if err != nil || dm > 59 {
		return "", 0, fmt.Errorf("%w: duration %q", ErrInvalidInput, in.Duration)
	}
	minutes := dh*60 + dm
	if minutes <= 0 {
		return "", 0, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	start := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return start.Format("2006-01-02T15:04:05"), minutes, nil
}

func splitDate(s string) (month, day, year int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if nums[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
		}
	}
	month, day, year = nums[0], nums[1], nums[2]

	// time.Date normalizes overflow; a round trip catches 02/30 and friends.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if month < 1 || month > 12 || t.Day() != day || t.Month() != time.Month(month) || year < 1 {
		return 0, 0, 0, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	return month, day, year, nil
}

func splitClock(s string) (int, int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("missing colon in %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 {
		return 0, 0, fmt.Errorf("bad hours in %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 {
		return 0, 0, fmt.Errorf("bad minutes in %q", s)
	}
	return hh, mm, nil
}
