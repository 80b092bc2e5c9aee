package discord

import (
	"strings"
	"testing"
	"time"

	"trackbot/controller"
	"trackbot/models"
	"trackbot/queue"
)

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		current time.Duration
		total   time.Duration
		width   int
		want    string
	}{
		{
			name:  "zero duration",
			width: 15,
			want:  "░░░░░░░░░░░░░░░ 0:00 / 0:00",
		},
		{
			name:    "50% progress",
			current: 30 * time.Second,
			total:   60 * time.Second,
			width:   10,
			want:    "▓▓▓▓▓░░░░░ 0:30 / 1:00",
		},
		{
			name:    "past the end",
			current: 90 * time.Second,
			total:   60 * time.Second,
			width:   10,
			want:    "▓▓▓▓▓▓▓▓▓▓ 1:30 / 1:00",
		},
		{
			name:    "33% progress",
			current: 40 * time.Second,
			total:   120 * time.Second,
			width:   15,
			want:    "▓▓▓▓▓░░░░░░░░░░ 0:40 / 2:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderProgressBar(tt.current, tt.total, tt.width)
			if got != tt.want {
				t.Errorf("RenderProgressBar() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArtistFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Rick Astley - Never Gonna Give You Up", "Rick Astley"},
		{"Queen - Bohemian Rhapsody (Official Video)", "Queen"},
		{"Imagine Dragons - Radioactive [Official Music Video]", "Imagine Dragons"},
		{"Dua Lipa ft. DaBaby - Levitating", "Dua Lipa"},
		{"Drake feat. Rihanna - Take Care", "Drake"},
		{"Despacito", ""},
		{"Some Random Video Title (Lyrics)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := artistFromTitle(tt.title); got != tt.want {
				t.Errorf("artistFromTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildNowPlayingEmbed(t *testing.T) {
	np := controller.NowPlaying{
		Track: &models.Track{
			Title:     "Rick Astley - Never Gonna Give You Up",
			Author:    "RickAstleyVEVO",
			Duration:  3*time.Minute + 32*time.Second,
			SourceRef: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		PositionMs: 105000,
		Playing:    true,
		Volume:     100,
		RepeatMode: queue.RepeatAll,
	}

	embed := BuildNowPlayingEmbed(np)

	if embed.Title != np.Track.Title {
		t.Errorf("title = %q", embed.Title)
	}
	if embed.URL != np.Track.SourceRef {
		t.Errorf("url = %q", embed.URL)
	}
	if embed.Thumbnail == nil || embed.Thumbnail.URL != "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg" {
		t.Errorf("thumbnail = %+v", embed.Thumbnail)
	}
	if embed.Color != colorPlaying {
		t.Errorf("color = %x, want playing", embed.Color)
	}
	if !strings.Contains(embed.Footer.Text, "1:45 / 3:32") {
		t.Errorf("footer = %q", embed.Footer.Text)
	}
	if !strings.Contains(embed.Description, "Rick Astley") {
		t.Errorf("description = %q", embed.Description)
	}

	fields := map[string]string{}
	for _, field := range embed.Fields {
		fields[field.Name] = field.Value
	}
	if fields["Repeat"] != "all" || fields["Volume"] != "100%" {
		t.Errorf("fields = %v", fields)
	}
}

func TestBuildNowPlayingEmbedStates(t *testing.T) {
	track := &models.Track{Title: "Test Song", Author: "Band", Duration: 3 * time.Minute, SourceRef: "/tmp/song.mp3"}

	paused := BuildNowPlayingEmbed(controller.NowPlaying{Track: track, Paused: true})
	if paused.Color != colorPaused {
		t.Errorf("paused color = %x", paused.Color)
	}
	if paused.URL != "" || paused.Thumbnail != nil {
		t.Error("non-link sources should not get a url or thumbnail")
	}
	if !strings.Contains(paused.Description, "Band") {
		t.Errorf("author should be used when the title has no artist: %q", paused.Description)
	}

	empty := BuildNowPlayingEmbed(controller.NowPlaying{})
	if empty.Title != "Nothing is playing" {
		t.Errorf("empty title = %q", empty.Title)
	}
}
