package applemusic

import "strings"

// LinkRequest is what ParseLink extracts from an Apple Music link.
type LinkRequest struct {
	Country    string
	TrackID    string
	AlbumID    string
	PlaylistID string
	ArtistID   string
}

// IsTrack reports whether the link points at a single song.
func (r LinkRequest) IsTrack() bool {
	return r.TrackID != ""
}

type TrackInfo struct {
	Title   string
	Artists []string
	Album   string
}

// Query is the search text used to find the song on YouTube.
func (t TrackInfo) Query() string {
	if len(t.Artists) == 0 {
		return t.Title
	}
	return t.Title + " " + strings.Join(t.Artists, " ")
}
