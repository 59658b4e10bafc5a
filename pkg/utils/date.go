package utils

import (
	"time"
)

const DateLayout = "2006-01-02"

// LoadLocation falls back to UTC when the zone database lacks name.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

func PrettyDate(date time.Time) string {
	return date.Format("02 Jan 2006")
}

// ParseDate accepts YYYY-MM-DD and RFC3339 timestamps.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
