package utils

import (
	"strings"
	"time"
)

const (
	FrequencyOnce   = "once"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// ParseFrequency normalizes a recurrence rule name. Returns false for
// anything outside {once, daily, weekly}.
func ParseFrequency(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FrequencyOnce, "":
		return FrequencyOnce, true
	case FrequencyDaily:
		return FrequencyDaily, true
	case FrequencyWeekly:
		return FrequencyWeekly, true
	}
	return "", false
}

// Period returns the recurrence period. Once has no period.
func Period(frequency string) time.Duration {
	switch frequency {
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	}
	return 0
}

// NextDue advances a due instant by one recurrence period.
func NextDue(due time.Time, frequency string) time.Time {
	return due.Add(Period(frequency))
}
