package core

import "time"

const monthKeyLayout = "2006-01"

// MonthKey identifies a calendar month in YYYY-MM form. It buckets both
// transactions and per-month budget caps.
type MonthKey string

// MonthKeyOf returns the month bucket for a point in time.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(monthKeyLayout))
}

// ParseMonthKey validates a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	if _, err := time.Parse(monthKeyLayout, s); err != nil {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(s), nil
}

func (m MonthKey) Valid() bool {
	_, err := time.Parse(monthKeyLayout, string(m))
	return err == nil
}

// Time returns midnight on the first day of the month, in the local zone.
func (m MonthKey) Time() time.Time {
	t, err := time.ParseInLocation(monthKeyLayout, string(m), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
