package audio

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	sampleRate    = 48000
	channels      = 2
	frameSize     = 960 // 20ms at 48kHz
	frameSamples  = frameSize * channels
	frameDuration = 20 * time.Millisecond

	EQBands = 15
)

// EQFrequencies maps band index i+1 to its centre frequency in Hz.
var EQFrequencies = [EQBands]int{20, 40, 63, 100, 150, 250, 400, 450, 630, 1000, 1600, 2500, 4000, 10000, 16000}

// decodeFrame reads little-endian s16 PCM into buffer.
func decodeFrame(raw []byte, buffer []int16) {
	for i := range buffer {
		buffer[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
}

// applyVolume scales samples by percent/100, clamping to int16.
func applyVolume(buffer []int16, percent int) {
	if percent == 100 {
		return
	}
	for i := range buffer {
		sample := float64(buffer[i]) * float64(percent) / 100.0
		if sample > 32767 {
			sample = 32767
		} else if sample < -32768 {
			sample = -32768
		}
		buffer[i] = int16(sample)
	}
}

// equalizerFilter renders the gains as an ffmpeg filter chain. Flat bands
// are omitted; an all-flat curve yields "".
func equalizerFilter(gains [EQBands]float64) string {
	var filters []string
	for i, gain := range gains {
		if gain == 0 {
			continue
		}
		filters = append(filters, fmt.Sprintf("equalizer=f=%d:t=o:w=1:g=%s",
			EQFrequencies[i], strconv.FormatFloat(gain, 'f', -1, 64)))
	}
	return strings.Join(filters, ",")
}

// ffmpegArgs builds the decoder command line: seek, resample to 48kHz
// stereo s16le and write raw PCM to stdout.
func ffmpegArgs(streamURL string, startMs int, gains [EQBands]float64) []string {
	var args []string
	if strings.HasPrefix(streamURL, "http://") || strings.HasPrefix(streamURL, "https://") {
		args = append(args, "-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5")
	}
	if startMs > 0 {
		args = append(args, "-ss", strconv.FormatFloat(float64(startMs)/1000, 'f', 3, 64))
	}

	filter := "aresample=48000"
	if eq := equalizerFilter(gains); eq != "" {
		filter = eq + "," + filter
	}

	return append(args,
		"-i", streamURL,
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-af", filter,
		"-loglevel", "error",
		"pipe:1")
}
