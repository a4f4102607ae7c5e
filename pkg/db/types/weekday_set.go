package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
)

// WeekdaySet maps a Postgres text[] column of weekday codes (MON..SUN) onto a
// typed slice. Order is preserved as stored; membership checks ignore order.
type WeekdaySet []enums.Weekday

func (s *WeekdaySet) Scan(src any) error {
	if src == nil {
		*s = WeekdaySet{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return s.parseFromString(v)
	case []byte:
		return s.parseFromString(string(v))
	default:
		return fmt.Errorf("WeekdaySet: unsupported Scan type %T", src)
	}
}

func (s WeekdaySet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, len(s))
	for _, day := range s {
		parts = append(parts, string(day))
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Contains reports whether the set includes the given weekday code.
func (s WeekdaySet) Contains(day enums.Weekday) bool {
	for _, candidate := range s {
		if candidate == day {
			return true
		}
	}
	return false
}

func (s *WeekdaySet) parseFromString(raw string) error {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	if strings.TrimSpace(raw) == "" {
		*s = WeekdaySet{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]enums.Weekday, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.Trim(part, `"`))
		day, err := enums.ParseWeekday(part)
		if err != nil {
			return fmt.Errorf("WeekdaySet: %w", err)
		}
		out = append(out, day)
	}
	*s = WeekdaySet(out)
	return nil
}
