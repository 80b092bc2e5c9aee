package controller

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	clockTimeRegex = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})$`)
	unitTimeRegex  = regexp.MustCompile(`^(?:(\d{1,2})m)?(?:(\d{1,2})s?)?$`)
)

// ParseTimeString converts "m:ss", "1m30s", "2m", "45s" or "45" into
// milliseconds.
func ParseTimeString(value string) (int, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return 0, ErrInvalidTimeString
	}

	var minutes, seconds string
	if match := clockTimeRegex.FindStringSubmatch(value); match != nil {
		minutes, seconds = match[1], match[2]
	} else if match := unitTimeRegex.FindStringSubmatch(value); match != nil {
		minutes, seconds = match[1], match[2]
	} else {
		return 0, ErrInvalidTimeString
	}
	if minutes == "" && seconds == "" {
		return 0, ErrInvalidTimeString
	}

	m, _ := strconv.Atoi(orZero(minutes))
	s, _ := strconv.Atoi(orZero(seconds))
	if minutes != "" && s >= 60 {
		return 0, ErrInvalidTimeString
	}

	return (m*60 + s) * 1000, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
