package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

var ErrNoLyricsFound = errors.New("no lyrics found")

const defaultBaseURL = "https://lrclib.net"

var syncedTimestampRegex = regexp.MustCompile(`\[\d+:\d+\.\d+\]`)

type SearchResult struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

type Lyrics struct {
	Title  string
	Artist string
	Text   string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Entry
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		logger:  log.WithFields(log.Fields{"module": "lyrics"}),
	}
}

// Search looks the query up on lrclib and returns the best match's lyrics,
// preferring plain lyrics over timestamp-stripped synced ones.
func (c *Client) Search(ctx context.Context, query string) (*Lyrics, error) {
	u := fmt.Sprintf("%s/api/search?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("lyrics request failed: %v", err)
		sentry.CaptureException(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lrclib API returned status %d", resp.StatusCode)
	}

	var results []SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	for _, res := range results {
		text := res.PlainLyrics
		if text == "" && res.SyncedLyrics != "" {
			text = strings.TrimSpace(syncedTimestampRegex.ReplaceAllString(res.SyncedLyrics, ""))
		}
		if text == "" {
			continue
		}
		c.logger.Tracef("lyrics found for %q: %s by %s", query, res.TrackName, res.ArtistName)
		return &Lyrics{
			Title:  res.TrackName,
			Artist: res.ArtistName,
			Text:   text,
		}, nil
	}
	return nil, ErrNoLyricsFound
}
