package schedule

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	pkgerrors "github.com/prepdeckhq/prepdeck-backend/pkg/errors"
)

const (
	defaultToleranceMinutes = 4
	fallbackZone            = "America/New_York"
)

var validate = validator.New()

// reminderSchedule is the snapshot of a reminder's trigger fields checked
// before evaluation. Timezone is not validated here; unknown zones fall back
// rather than fail.
type reminderSchedule struct {
	Days      []enums.Weekday `validate:"required,min=1"`
	TimeOfDay string          `validate:"required,datetime=15:04"`
}

type digestSchedule struct {
	Hour int `validate:"gte=0,lte=23"`
}

// Scheduler answers whether a recurring civil-time trigger is due at a given
// UTC instant. Both reminder and digest checks share the same symmetric
// tolerance window around the target minute.
type Scheduler struct {
	tolerance time.Duration
}

// NewScheduler builds a scheduler with the given tolerance in minutes.
func NewScheduler(toleranceMinutes int) *Scheduler {
	if toleranceMinutes <= 0 {
		toleranceMinutes = defaultToleranceMinutes
	}
	return &Scheduler{tolerance: time.Duration(toleranceMinutes) * time.Minute}
}

// ReminderDue reports whether now falls inside the reminder's trigger window.
// The weekday is taken from the reminder's own timezone, so a schedule set
// for Tuesday morning in Tokyo fires on Tokyo's Tuesday even while UTC is
// still Monday.
func (s *Scheduler) ReminderDue(reminder models.Reminder, now time.Time) (bool, error) {
	snapshot := reminderSchedule{Days: reminder.Days, TimeOfDay: reminder.TimeOfDay}
	if err := validate.Struct(snapshot); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reminder schedule")
	}

	hour, minute, err := parseTimeOfDay(reminder.TimeOfDay)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reminder time")
	}

	local := now.In(location(reminder.Timezone))
	if !reminder.Days.Contains(enums.WeekdayFromTime(local.Weekday())) {
		return false, nil
	}
	return s.withinWindow(local, hour, minute), nil
}

// DigestDue reports whether now falls inside the preference's daily digest
// window. Digests have no weekday restriction.
func (s *Scheduler) DigestDue(pref models.NotificationPreference, now time.Time) (bool, error) {
	if err := validate.Struct(digestSchedule{Hour: pref.DigestHour}); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid digest hour")
	}

	local := now.In(location(pref.DigestTimezone))
	return s.withinWindow(local, pref.DigestHour, 0), nil
}

func (s *Scheduler) withinWindow(local time.Time, hour, minute int) bool {
	target := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, local.Location())
	diff := local.Sub(target)
	if diff < 0 {
		diff = -diff
	}
	return diff <= s.tolerance
}

func parseTimeOfDay(value string) (int, int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("parse time of day %q: %w", value, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// location resolves an IANA zone name, falling back to the platform default
// zone when the name is blank or unknown.
func location(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(fallbackZone); err == nil {
		return loc
	}
	return time.UTC
}
