package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"once", "once", true},
		{"", "once", true},
		{" Daily ", "daily", true},
		{"WEEKLY", "weekly", true},
		{"hourly", "", false},
		{"monthly", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseFrequency(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestNextDue(t *testing.T) {
	due := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, due.Add(24*time.Hour), NextDue(due, FrequencyDaily))
	assert.Equal(t, due.Add(7*24*time.Hour), NextDue(due, FrequencyWeekly))
	assert.Equal(t, due, NextDue(due, FrequencyOnce))
}
