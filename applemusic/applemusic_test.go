package applemusic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trackbot/models"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    LinkRequest
		wantErr bool
	}{
		{
			name: "album",
			url:  "https://music.apple.com/us/album/the-dark-side-of-the-moon/1441165866",
			want: LinkRequest{Country: "us", AlbumID: "1441165866"},
		},
		{
			name: "song selected on album",
			url:  "https://music.apple.com/gb/album/album-name/123456789?i=1646389445",
			want: LinkRequest{Country: "gb", AlbumID: "123456789", TrackID: "1646389445"},
		},
		{
			name: "song page",
			url:  "https://music.apple.com/us/song/time/1441165870",
			want: LinkRequest{Country: "us", TrackID: "1441165870"},
		},
		{
			name: "playlist",
			url:  "https://music.apple.com/us/playlist/90s-alternative/pl.u-8VoLGjY1l8l5",
			want: LinkRequest{Country: "us", PlaylistID: "pl.u-8VoLGjY1l8l5"},
		},
		{
			name: "itunes domain",
			url:  "https://itunes.apple.com/us/album/album-name/123456789",
			want: LinkRequest{Country: "us", AlbumID: "123456789"},
		},
		{
			name:    "other site",
			url:     "https://example.com/us/album/x/1",
			wantErr: true,
		},
		{
			name:    "no ids",
			url:     "https://music.apple.com/us/browse",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLink(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLink() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLink() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

const structuredPage = `<html><head>
<script type="application/ld+json">{"@type":"WebSite","name":"Apple Music"}</script>
<script type="application/ld+json">{"@type":"MusicRecording","name":"Time","byArtist":[{"name":"Pink Floyd"}],"inAlbum":{"name":"The Dark Side of the Moon"}}</script>
</head><body></body></html>`

const metaPage = `<html><head>
<title>Breathe - Pink Floyd on Apple Music</title>
<meta property="og:title" content="Breathe">
<meta property="og:description" content="Song · The Dark Side of the Moon · 1973">
</head></html>`

func TestParseTrackPage(t *testing.T) {
	info, err := parseTrackPage(strings.NewReader(structuredPage))
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "Time" || len(info.Artists) != 1 || info.Artists[0] != "Pink Floyd" || info.Album != "The Dark Side of the Moon" {
		t.Errorf("structured page = %+v", info)
	}

	info, err = parseTrackPage(strings.NewReader(metaPage))
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "Breathe" || info.Artists[0] != "Pink Floyd" || info.Album != "The Dark Side of the Moon" {
		t.Errorf("meta page = %+v", info)
	}

	if _, err := parseTrackPage(strings.NewReader("<html></html>")); !errors.Is(err, errNoMetaTags) {
		t.Errorf("empty page err = %v", err)
	}
}

func TestArtistNamesAcceptsSingleObject(t *testing.T) {
	got := artistNames([]byte(`{"name":"Solo"}`))
	if len(got) != 1 || got[0] != "Solo" {
		t.Errorf("artistNames() = %v", got)
	}
}

type recordingSearcher struct {
	queries []string
}

func (s *recordingSearcher) Search(ctx context.Context, query string) ([]models.Track, error) {
	s.queries = append(s.queries, query)
	return []models.Track{{Title: query}}, nil
}

func TestResolverSearchesScrapedSong(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.RequestURI()
		w.Write([]byte(structuredPage))
	}))
	defer server.Close()

	next := &recordingSearcher{}
	resolver := NewResolver(next)
	resolver.baseURL = server.URL

	tracks, err := resolver.Search(context.Background(), "https://music.apple.com/us/album/dsotm/1441165866?i=1441165870")
	if err != nil {
		t.Fatal(err)
	}
	if requested != "/us/album/1441165866?i=1441165870" {
		t.Errorf("requested %q", requested)
	}
	if len(tracks) != 1 || len(next.queries) != 1 || next.queries[0] != "Time Pink Floyd" {
		t.Errorf("queries = %v", next.queries)
	}
}

func TestResolverPassThroughAndRejections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	next := &recordingSearcher{}
	resolver := NewResolver(next)
	resolver.baseURL = server.URL
	ctx := context.Background()

	if _, err := resolver.Search(ctx, "daft punk"); err != nil || len(next.queries) != 1 {
		t.Errorf("plain query err = %v, queries = %v", err, next.queries)
	}
	if _, err := resolver.Search(ctx, "https://music.apple.com/us/album/dsotm/1441165866"); !errors.Is(err, ErrUnsupportedLink) {
		t.Errorf("album link err = %v, want ErrUnsupportedLink", err)
	}
	if _, err := resolver.Search(ctx, "https://music.apple.com/us/song/time/1"); err == nil {
		t.Error("expected error for missing page")
	}
	if len(next.queries) != 1 {
		t.Errorf("rejected links reached the searcher: %v", next.queries)
	}
}
