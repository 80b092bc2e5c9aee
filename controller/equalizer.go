package controller

import (
	"math"
	"sort"

	"trackbot/audio"
)

const (
	EQBands   = audio.EQBands
	MaxEQGain = 10.0

	MinVolume  = 0
	MaxVolume  = 150
	VolumeStep = 10
)

// EQFrequencies maps band index i+1 to its centre frequency in Hz.
var EQFrequencies = audio.EQFrequencies

// EQPresets are whole-curve shortcuts, gains in dB.
var EQPresets = map[string][EQBands]float64{
	"flat":  {},
	"boost": {4, 3, 2, 1, 0, -1, -1, -1, 0, 0, 1, 2, 3, 3, 4},
	"metal": {0, 1, 1, 1.5, 2, 1, 0, 0, 0.5, 1, 2, 3, 3.5, 2, 1},
	"piano": {-1, -1, -0.5, 0, 1, 1.5, 2, 2, 1.5, 1, 0.5, 1, 1.5, 1, 0},
}

// ResolveEQBand accepts a band index (1..15) or one of EQFrequencies and
// returns the band index.
func ResolveEQBand(band int) (int, error) {
	if band >= 1 && band <= EQBands {
		return band, nil
	}
	for i, freq := range EQFrequencies {
		if freq == band {
			return i + 1, nil
		}
	}
	return 0, ErrNonExistentEQBand
}

func validateEQGain(gain float64) error {
	if math.IsNaN(gain) || math.Abs(gain) > MaxEQGain {
		return ErrEQGainOutOfBounds
	}
	return nil
}

// EQPresetNames lists preset names in a stable order for help text.
func EQPresetNames() []string {
	names := make([]string, 0, len(EQPresets))
	for name := range EQPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateVolume(volume int) error {
	if volume < MinVolume {
		return ErrVolumeTooLow
	}
	if volume > MaxVolume {
		return ErrVolumeTooHigh
	}
	return nil
}
