package applemusic

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrInvalidURL      = errors.New("invalid Apple Music URL")
	ErrUnsupportedLink = errors.New("only Apple Music song links are supported")
)

var (
	albumPattern    = regexp.MustCompile(`/album/[^/]+/(\d+)`)
	playlistPattern = regexp.MustCompile(`/playlist/[^/]+/(pl\.[a-zA-Z0-9-]+)`)
	artistPattern   = regexp.MustCompile(`/artist/[^/]+/(\d+)`)
	songPattern     = regexp.MustCompile(`/song/[^/]+/(\d+)`)
)

// IsAppleMusicURL matches both music.apple.com and the older itunes links.
func IsAppleMusicURL(query string) bool {
	return strings.HasPrefix(query, "https://music.apple.com/") ||
		strings.HasPrefix(query, "https://itunes.apple.com/")
}

func ParseLink(rawURL string) (LinkRequest, error) {
	if !IsAppleMusicURL(rawURL) {
		return LinkRequest{}, ErrInvalidURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return LinkRequest{}, ErrInvalidURL
	}

	request := LinkRequest{Country: "us"}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) > 0 && len(segments[0]) == 2 {
		request.Country = segments[0]
	}

	if match := albumPattern.FindStringSubmatch(parsed.Path); match != nil {
		request.AlbumID = match[1]
		// album links carry the selected song as ?i=
		request.TrackID = parsed.Query().Get("i")
	}
	if match := songPattern.FindStringSubmatch(parsed.Path); match != nil {
		request.TrackID = match[1]
	}
	if match := playlistPattern.FindStringSubmatch(parsed.Path); match != nil {
		request.PlaylistID = match[1]
	}
	if match := artistPattern.FindStringSubmatch(parsed.Path); match != nil {
		request.ArtistID = match[1]
	}

	if request.TrackID == "" && request.AlbumID == "" && request.PlaylistID == "" && request.ArtistID == "" {
		return LinkRequest{}, ErrInvalidURL
	}
	return request, nil
}
