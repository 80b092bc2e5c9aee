package youtube

import (
	"context"
	"testing"
	"time"

	ytapi "google.golang.org/api/youtube/v3"

	"trackbot/models"
)

func TestParseYouTubeURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want YouTubeURLResult
	}{
		{
			name: "watch video",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: YouTubeURLResult{VideoID: "dQw4w9WgXcQ"},
		},
		{
			name: "watch video with playlist",
			url:  "https://www.youtube.com/watch?v=abc123&list=PLdef456",
			want: YouTubeURLResult{VideoID: "abc123", PlaylistID: "PLdef456"},
		},
		{
			name: "playlist",
			url:  "https://youtube.com/playlist?list=PL123456",
			want: YouTubeURLResult{PlaylistID: "PL123456"},
		},
		{
			name: "youtu.be short",
			url:  "https://youtu.be/dQw4w9WgXcQ",
			want: YouTubeURLResult{VideoID: "dQw4w9WgXcQ"},
		},
		{
			name: "youtube music",
			url:  "https://music.youtube.com/watch?v=xyz",
			want: YouTubeURLResult{VideoID: "xyz"},
		},
		{
			name: "invalid host",
			url:  "https://example.com/watch?v=abc",
			want: YouTubeURLResult{},
		},
		{
			name: "plain search text",
			url:  "never gonna give you up",
			want: YouTubeURLResult{},
		},
		{
			name: "empty query",
			url:  "https://www.youtube.com/",
			want: YouTubeURLResult{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseYouTubeURL(tt.url); got != tt.want {
				t.Errorf("ParseYouTubeURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseYoutubeDuration(t *testing.T) {
	tests := []struct {
		name string
		iso  string
		want time.Duration
	}{
		{
			name: "1min 30s",
			iso:  "PT1M30S",
			want: 90 * time.Second,
		},
		{
			name: "1 hour",
			iso:  "PT1H",
			want: 1 * time.Hour,
		},
		{
			name: "30 seconds",
			iso:  "PT30S",
			want: 30 * time.Second,
		},
		{
			name: "1h30m45s",
			iso:  "PT1H30M45S",
			want: 1*time.Hour + 30*time.Minute + 45*time.Second,
		},
		{
			name: "1h2m",
			iso:  "PT1H2M",
			want: 1*time.Hour + 2*time.Minute,
		},
		{
			name: "invalid",
			iso:  "invalid",
			want: 0,
		},
		{
			name: "empty",
			iso:  "",
			want: 0,
		},
		{
			name: "only seconds",
			iso:  "PT0S",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseYoutubeDuration(tt.iso); got != tt.want {
				t.Errorf("parseYoutubeDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderTracksKeepsSearchRanking(t *testing.T) {
	videos := []*ytapi.Video{
		{
			Id:             "b",
			Snippet:        &ytapi.VideoSnippet{Title: "Song &amp; B", ChannelTitle: "Band"},
			ContentDetails: &ytapi.VideoContentDetails{Duration: "PT3M5S"},
		},
		{
			Id:      "a",
			Snippet: &ytapi.VideoSnippet{Title: "Song A"},
		},
	}

	got := orderTracks([]string{"a", "b", "missing"}, videos)
	want := []models.Track{
		{Title: "Song A", SourceRef: watchURL + "a"},
		{Title: "Song & B", Author: "Band", Duration: 185 * time.Second, SourceRef: watchURL + "b"},
	}
	if len(got) != len(want) {
		t.Fatalf("orderTracks() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("track %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStreamURLPassesThroughNonYouTube(t *testing.T) {
	c := &Client{command: "yt-dlp-does-not-exist"}
	track := models.Track{SourceRef: "https://cdn.example.com/song.mp3"}

	got, err := c.StreamURL(context.Background(), track)
	if err != nil {
		t.Fatal(err)
	}
	if got != track.SourceRef {
		t.Errorf("StreamURL() = %q, want %q", got, track.SourceRef)
	}
}
