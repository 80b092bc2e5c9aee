package applemusic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var errNoMetaTags = errors.New("no title or artist in apple music page")

func (r *Resolver) scrapeTrack(ctx context.Context, pageURL string) (*TrackInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	// the plain Go user agent gets a stripped page
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apple music request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("apple music returned HTTP %d", resp.StatusCode)
	}
	return parseTrackPage(resp.Body)
}

// parseTrackPage prefers the JSON-LD block and falls back to Open Graph tags.
func parseTrackPage(body io.Reader) (*TrackInfo, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse apple music page: %w", err)
	}

	if info, ok := fromStructuredData(doc); ok {
		return info, nil
	}
	info, ok := fromMetaTags(doc)
	if !ok {
		return nil, errNoMetaTags
	}
	return info, nil
}

type musicRecording struct {
	Type     string          `json:"@type"`
	Name     string          `json:"name"`
	ByArtist json.RawMessage `json:"byArtist"`
	InAlbum  struct {
		Name string `json:"name"`
	} `json:"inAlbum"`
}

type namedThing struct {
	Name string `json:"name"`
}

func fromStructuredData(doc *goquery.Document) (*TrackInfo, bool) {
	var info *TrackInfo
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var recording musicRecording
		if err := json.Unmarshal([]byte(s.Text()), &recording); err != nil {
			return true
		}
		if recording.Type != "MusicRecording" || recording.Name == "" {
			return true
		}
		artists := artistNames(recording.ByArtist)
		if len(artists) == 0 {
			return true
		}
		info = &TrackInfo{Title: recording.Name, Artists: artists, Album: recording.InAlbum.Name}
		return false
	})
	return info, info != nil
}

// artistNames accepts byArtist as either one object or a list of them.
func artistNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var many []namedThing
	if err := json.Unmarshal(raw, &many); err != nil {
		var one namedThing
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil
		}
		many = []namedThing{one}
	}

	names := make([]string, 0, len(many))
	for _, artist := range many {
		if artist.Name != "" {
			names = append(names, artist.Name)
		}
	}
	return names
}

func fromMetaTags(doc *goquery.Document) (*TrackInfo, bool) {
	title := firstContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`)
	if title == "" {
		return nil, false
	}

	artist := firstContent(doc, `meta[property="music:musician_description"]`, `meta[name="apple:artist"]`)
	if artist == "" {
		// page titles look like "Song - Artist on Apple Music"
		pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
		if _, rest, ok := strings.Cut(pageTitle, " - "); ok {
			artist = strings.TrimSpace(strings.TrimSuffix(rest, " on Apple Music"))
		}
	}
	if artist == "" {
		return nil, false
	}

	info := &TrackInfo{Title: title, Artists: []string{artist}}
	// og:description reads "Song · Album · Year"
	if description := firstContent(doc, `meta[property="og:description"]`); strings.Contains(description, "·") {
		parts := strings.Split(description, "·")
		info.Album = strings.TrimSpace(parts[1])
	}
	return info, true
}

func firstContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}
