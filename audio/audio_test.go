package audio

import (
	"slices"
	"testing"
)

func TestApplyVolume(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		in      []int16
		want    []int16
	}{
		{"unity", 100, []int16{100, -100}, []int16{100, -100}},
		{"half", 50, []int16{100, -100}, []int16{50, -50}},
		{"mute", 0, []int16{32767, -32768}, []int16{0, 0}},
		{"clamp", 150, []int16{30000, -30000}, []int16{32767, -32768}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buffer := slices.Clone(tt.in)
			applyVolume(buffer, tt.percent)
			if !slices.Equal(buffer, tt.want) {
				t.Errorf("applyVolume(%v, %d) = %v, want %v", tt.in, tt.percent, buffer, tt.want)
			}
		})
	}
}

func TestDecodeFrame(t *testing.T) {
	raw := []byte{0x01, 0x00, 0xff, 0xff}
	buffer := make([]int16, 2)
	decodeFrame(raw, buffer)
	if buffer[0] != 1 || buffer[1] != -1 {
		t.Errorf("decodeFrame = %v, want [1 -1]", buffer)
	}
}

func TestEqualizerFilter(t *testing.T) {
	var flat [EQBands]float64
	if got := equalizerFilter(flat); got != "" {
		t.Errorf("flat curve = %q, want empty", got)
	}

	var gains [EQBands]float64
	gains[0] = 4
	gains[9] = -2.5
	want := "equalizer=f=20:t=o:w=1:g=4,equalizer=f=1000:t=o:w=1:g=-2.5"
	if got := equalizerFilter(gains); got != want {
		t.Errorf("equalizerFilter = %q, want %q", got, want)
	}
}

func TestFFmpegArgs(t *testing.T) {
	var flat [EQBands]float64

	args := ffmpegArgs("/tmp/song.opus", 0, flat)
	if slices.Contains(args, "-ss") {
		t.Error("no -ss expected for a start offset of 0")
	}
	if slices.Contains(args, "-reconnect") {
		t.Error("local files should not get reconnect flags")
	}

	args = ffmpegArgs("https://example.com/stream", 90500, flat)
	ss := slices.Index(args, "-ss")
	if ss < 0 || args[ss+1] != "90.500" {
		t.Errorf("args = %v, want -ss 90.500", args)
	}
	if ss > slices.Index(args, "-i") {
		t.Error("-ss must come before -i to seek the input")
	}
	if !slices.Contains(args, "-reconnect") {
		t.Error("http streams should reconnect")
	}

	var gains [EQBands]float64
	gains[14] = 1
	args = ffmpegArgs("x", 0, gains)
	af := slices.Index(args, "-af")
	if args[af+1] != "equalizer=f=16000:t=o:w=1:g=1,aresample=48000" {
		t.Errorf("-af = %q", args[af+1])
	}
}
