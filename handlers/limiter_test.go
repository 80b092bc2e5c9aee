package handlers

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestCommandLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewCommandLimiter(rate.Every(time.Second), 2)
	l.now = func() time.Time { return now }

	if !l.Allow("g", "u") || !l.Allow("g", "u") {
		t.Fatal("burst should be allowed")
	}
	if l.Allow("g", "u") {
		t.Error("third command within the burst window should be limited")
	}
	if !l.Allow("g", "other") || !l.Allow("other-guild", "u") {
		t.Error("limits are per guild member")
	}

	now = now.Add(time.Second)
	if !l.Allow("g", "u") {
		t.Error("a token should refill after a second")
	}
}
