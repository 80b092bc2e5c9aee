package models

import (
	"fmt"
	"time"
)

// Track is one playable item. Tracks are values: two tracks with the same
// fields are the same track, and a queue may hold duplicates.
type Track struct {
	Title     string
	Author    string
	Duration  time.Duration
	SourceRef string
}

func (t Track) DurationMs() int64 {
	if t.Duration < 0 {
		return 0
	}
	return t.Duration.Milliseconds()
}

// String renders "Title (m:ss)" for queue listings and chooser prompts.
func (t Track) String() string {
	return fmt.Sprintf("%s (%s)", t.Title, FormatDuration(t.Duration))
}

// FormatDuration formats as m:ss, or h:mm:ss for anything an hour or longer.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// GuildSettings are the per-guild player preferences that survive restarts.
type GuildSettings struct {
	Volume     int
	RepeatMode string
	EQ         [15]float64
}
