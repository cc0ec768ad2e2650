package timecalc

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by Tempo.
const DateLayout = "2006-01-02"

// RoundMinutes rounds d to the nearest whole minute, half up. Anything that
// would round to zero is reported as one minute since Tempo rejects empty
// worklogs.
func RoundMinutes(d time.Duration) int64 {
	m := int64(d.Round(time.Minute) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

// FormatJira formats d in Jira's "Xh Ym" notation, rounded to the minute.
func FormatJira(d time.Duration) string {
	m := RoundMinutes(d)
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}

// FormatDuration formats d as a short human-readable string like "1h 40m",
// "45m" or "30s". Unlike FormatJira it never rounds up.
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// LocalDate returns the calendar date of t in the local time zone.
func LocalDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}
