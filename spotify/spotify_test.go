package spotify

import (
	"context"
	"errors"
	"testing"

	"trackbot/models"
)

func TestParseSpotifyURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    SpotifyRequest
		wantErr bool
	}{
		{
			name: "track",
			url:  "https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b",
			want: SpotifyRequest{TrackID: "0VjIjW4GlUZAMYd2vXMi3b"},
		},
		{
			name: "track with si query",
			url:  "https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b?si=abc123",
			want: SpotifyRequest{TrackID: "0VjIjW4GlUZAMYd2vXMi3b"},
		},
		{
			name: "playlist",
			url:  "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			want: SpotifyRequest{PlaylistID: "37i9dQZF1DXcBWIGoYBM5M"},
		},
		{
			name: "album",
			url:  "https://open.spotify.com/album/4yP0hdKOZPNshxUOjY0cZj",
			want: SpotifyRequest{AlbumID: "4yP0hdKOZPNshxUOjY0cZj"},
		},
		{
			name: "artist",
			url:  "https://open.spotify.com/artist/4NHQPlJsbc7kbJTwq0B3lD",
			want: SpotifyRequest{ArtistID: "4NHQPlJsbc7kbJTwq0B3lD"},
		},
		{
			name:    "invalid domain",
			url:     "https://example.com/track/abc",
			wantErr: true,
		},
		{
			name:    "too short",
			url:     "https://open.spotify.com/track",
			wantErr: true,
		},
		{
			name: "missing id",
			url:  "https://open.spotify.com/track/",
			want: SpotifyRequest{TrackID: ""},
		},
		{
			name: "wrong path",
			url:  "https://open.spotify.com/wrong/abc",
			want: SpotifyRequest{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpotifyURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSpotifyURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseSpotifyURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrackInfoQuery(t *testing.T) {
	tests := []struct {
		info TrackInfo
		want string
	}{
		{TrackInfo{Title: "Song"}, "Song"},
		{TrackInfo{Title: "Song", Artists: []string{"A"}}, "Song A"},
		{TrackInfo{Title: "Song", Artists: []string{"A", "B"}}, "Song A B"},
	}
	for _, tt := range tests {
		if got := tt.info.Query(); got != tt.want {
			t.Errorf("Query() = %q, want %q", got, tt.want)
		}
	}
}

type recordingSearcher struct {
	queries []string
}

func (s *recordingSearcher) Search(ctx context.Context, query string) ([]models.Track, error) {
	s.queries = append(s.queries, query)
	return []models.Track{{Title: query}}, nil
}

func TestResolverPassesThroughPlainQueries(t *testing.T) {
	next := &recordingSearcher{}
	r, err := NewResolver(context.Background(), "", "", next)
	if err != nil {
		t.Fatal(err)
	}

	tracks, err := r.Search(context.Background(), "daft punk")
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 || len(next.queries) != 1 || next.queries[0] != "daft punk" {
		t.Errorf("queries = %v, tracks = %v", next.queries, tracks)
	}
}

func TestResolverRejectsUnsupportedLinks(t *testing.T) {
	next := &recordingSearcher{}
	r, _ := NewResolver(context.Background(), "", "", next)
	ctx := context.Background()

	if _, err := r.Search(ctx, "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M"); !errors.Is(err, ErrUnsupportedLink) {
		t.Errorf("playlist link err = %v, want ErrUnsupportedLink", err)
	}
	if _, err := r.Search(ctx, "https://open.spotify.com/track/abc"); !errors.Is(err, ErrSpotifyUnavailable) {
		t.Errorf("track link without credentials err = %v, want ErrSpotifyUnavailable", err)
	}
	if len(next.queries) != 0 {
		t.Errorf("spotify links must not reach the next searcher: %v", next.queries)
	}
}
