package spotify

import (
	"context"
	"errors"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"trackbot/models"
)

var (
	ErrInvalidURL         = errors.New("invalid Spotify URL")
	ErrUnsupportedLink    = errors.New("only Spotify track links are supported")
	ErrSpotifyUnavailable = errors.New("spotify is not configured")
)

type SpotifyRequest struct {
	TrackID    string
	PlaylistID string
	AlbumID    string
	ArtistID   string
}

type TrackInfo struct {
	Title   string
	Artists []string
}

// Query is the search text used to find the track on YouTube.
func (t TrackInfo) Query() string {
	if len(t.Artists) == 0 {
		return t.Title
	}
	return t.Title + " " + strings.Join(t.Artists, " ")
}

// Searcher is the search backend Spotify links are translated for.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Track, error)
}

// Resolver turns Spotify track links into a search on the next Searcher.
// Anything else is passed through untouched.
type Resolver struct {
	client *spotifyclient.Client
	next   Searcher
	logger *log.Entry
}

// NewResolver authenticates with client credentials. Empty credentials give
// a resolver that passes queries through and rejects Spotify links.
func NewResolver(ctx context.Context, clientID, clientSecret string, next Searcher) (*Resolver, error) {
	resolver := &Resolver{
		next:   next,
		logger: log.WithFields(log.Fields{"module": "spotify"}),
	}
	if clientID == "" || clientSecret == "" {
		resolver.logger.Warn("spotify credentials missing, spotify links disabled")
		return resolver, nil
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	resolver.client = spotifyclient.New(httpClient)
	return resolver, nil
}

func (r *Resolver) Search(ctx context.Context, query string) ([]models.Track, error) {
	if !IsSpotifyURL(query) {
		return r.next.Search(ctx, query)
	}

	request, err := ParseSpotifyURL(query)
	if err != nil {
		return nil, err
	}
	if request.TrackID == "" {
		return nil, ErrUnsupportedLink
	}

	info, err := r.GetTrack(ctx, request.TrackID)
	if err != nil {
		return nil, err
	}
	r.logger.Debugf("searching for spotify track: %s", info.Query())
	return r.next.Search(ctx, info.Query())
}

func (r *Resolver) GetTrack(ctx context.Context, trackID string) (*TrackInfo, error) {
	if r.client == nil {
		return nil, ErrSpotifyUnavailable
	}
	r.logger.Tracef("fetching track from Spotify API: %s", trackID)

	span := sentry.StartSpan(ctx, "spotify.get_track")
	span.Description = "Get track from Spotify API"
	span.SetTag("track_id", trackID)
	defer span.Finish()

	track, err := r.client.GetTrack(ctx, spotifyclient.ID(trackID))
	if err != nil {
		r.logger.Errorf("failed to fetch Spotify track %s: %v", trackID, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	r.logger.Debugf("fetched Spotify track: '%s' by %v", track.Name, artists)
	span.Status = sentry.SpanStatusOK
	return &TrackInfo{
		Title:   track.Name,
		Artists: artists,
	}, nil
}

func IsSpotifyURL(query string) bool {
	return strings.HasPrefix(query, "https://open.spotify.com/")
}

func ParseSpotifyURL(url string) (SpotifyRequest, error) {
	if !IsSpotifyURL(url) {
		return SpotifyRequest{}, ErrInvalidURL
	}

	parts := strings.Split(url, "/")
	if len(parts) < 5 {
		return SpotifyRequest{}, ErrInvalidURL
	}

	// Strip query parameters from ID (e.g., ?si=tracking_id)
	id, _, _ := strings.Cut(parts[4], "?")

	request := SpotifyRequest{}
	switch parts[3] {
	case "track":
		request.TrackID = id
	case "playlist":
		request.PlaylistID = id
	case "album":
		request.AlbumID = id
	case "artist":
		request.ArtistID = id
	}
	return request, nil
}
