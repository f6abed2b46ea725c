package models

import "time"

// DateLayout is the wire and storage format of civil dates.
const DateLayout = "2006-01-02"

// Day returns the civil date at UTC midnight.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t and keeps its calendar date.
func DateOf(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

// ParseDate parses YYYY-MM-DD into a civil date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// WeekdayIndex maps a date to 0 = Monday ... 6 = Sunday, the layout of Room.Rates.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
