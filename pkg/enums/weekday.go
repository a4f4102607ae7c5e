package enums

import (
	"fmt"
	"time"
)

// Weekday is the persisted day-of-week code for reminder schedules.
type Weekday string

const (
	WeekdayMonday    Weekday = "MON"
	WeekdayTuesday   Weekday = "TUE"
	WeekdayWednesday Weekday = "WED"
	WeekdayThursday  Weekday = "THU"
	WeekdayFriday    Weekday = "FRI"
	WeekdaySaturday  Weekday = "SAT"
	WeekdaySunday    Weekday = "SUN"
)

var weekdayByTime = map[time.Weekday]Weekday{
	time.Monday:    WeekdayMonday,
	time.Tuesday:   WeekdayTuesday,
	time.Wednesday: WeekdayWednesday,
	time.Thursday:  WeekdayThursday,
	time.Friday:    WeekdayFriday,
	time.Saturday:  WeekdaySaturday,
	time.Sunday:    WeekdaySunday,
}

// WeekdayFromTime converts a time.Weekday into the persisted code.
func WeekdayFromTime(day time.Weekday) Weekday {
	return weekdayByTime[day]
}

// IsValid reports whether the value is a known Weekday code.
func (w Weekday) IsValid() bool {
	for _, candidate := range weekdayByTime {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWeekday converts raw input into a Weekday code.
func ParseWeekday(value string) (Weekday, error) {
	candidate := Weekday(value)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid weekday code %q", value)
}
