package lyrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New()
	c.baseURL = server.URL
	return c
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		wantText string
		wantErr  error
	}{
		{
			name:     "plain lyrics",
			body:     `[{"trackName":"Song","artistName":"Band","plainLyrics":"la la la"}]`,
			status:   http.StatusOK,
			wantText: "la la la",
		},
		{
			name:     "synced lyrics are stripped",
			body:     `[{"trackName":"Song","artistName":"Band","syncedLyrics":"[00:01.00] la\n[00:02.50] da"}]`,
			status:   http.StatusOK,
			wantText: "la\n da",
		},
		{
			name:     "skips instrumental entries",
			body:     `[{"trackName":"Song (Instrumental)"},{"trackName":"Song","plainLyrics":"words"}]`,
			status:   http.StatusOK,
			wantText: "words",
		},
		{
			name:    "no results",
			body:    `[]`,
			status:  http.StatusOK,
			wantErr: ErrNoLyricsFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/search" || r.URL.Query().Get("q") != "song band" {
					t.Errorf("unexpected request %s", r.URL)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			got, err := c.Search(context.Background(), "song band")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Search() err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got.Text != tt.wantText {
				t.Errorf("Search() text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestSearchBadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Error("expected an error for a 502 response")
	}
}
