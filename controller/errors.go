package controller

import "errors"

var (
	ErrNoTracksFound     = errors.New("no tracks found")
	ErrNoMoreTracks      = errors.New("no more tracks in the queue")
	ErrNoPreviousTracks  = errors.New("no previous tracks in the queue")
	ErrIndexOutOfRange   = errors.New("index is out of the bounds of the queue")
	ErrVolumeTooLow      = errors.New("volume must be 0% or above")
	ErrVolumeTooHigh     = errors.New("volume must be 150% or below")
	ErrMaxVolume         = errors.New("player is already at max volume")
	ErrMinVolume         = errors.New("player is already at min volume")
	ErrNonExistentEQBand = errors.New("equalizer band does not exist")
	ErrEQGainOutOfBounds = errors.New("equalizer gain must be between -10 and 10 dB")
	ErrInvalidEQPreset   = errors.New("unknown equalizer preset")
	ErrInvalidTimeString = errors.New("invalid time string")
	ErrNotConnected      = errors.New("not connected to a voice channel")
	ErrNothingPlaying    = errors.New("nothing is playing")
	ErrAlreadyPaused     = errors.New("playback is already paused")
	ErrNotPaused         = errors.New("playback is not paused")
)
