package controller

import (
	"errors"
	"testing"
)

func TestParseTimeString(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1:30", 90000, false},
		{"0:05", 5000, false},
		{"12:00", 720000, false},
		{"1m30s", 90000, false},
		{"1m30", 90000, false},
		{"2m", 120000, false},
		{"45s", 45000, false},
		{"45", 45000, false},
		{" 3M ", 180000, false},
		{"", 0, true},
		{"1:75", 0, true},
		{"1m75s", 0, true},
		{"abc", 0, true},
		{"m", 0, true},
		{"123", 0, true},
		{"1:2:3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeString(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeString) {
					t.Errorf("ParseTimeString(%q) err = %v, want ErrInvalidTimeString", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeString(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeString(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
