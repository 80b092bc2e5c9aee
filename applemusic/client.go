package applemusic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"trackbot/models"
)

const defaultBaseURL = "https://music.apple.com"

// Searcher is the search backend Apple Music links are translated for.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Track, error)
}

// Resolver scrapes the song page behind an Apple Music link and searches
// for it on the next Searcher. Other queries pass straight through.
type Resolver struct {
	next       Searcher
	httpClient *http.Client
	baseURL    string
	logger     *log.Entry
}

func NewResolver(next Searcher) *Resolver {
	return &Resolver{
		next:       next,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		logger:     log.WithFields(log.Fields{"module": "applemusic"}),
	}
}

func (r *Resolver) Search(ctx context.Context, query string) ([]models.Track, error) {
	if !IsAppleMusicURL(query) {
		return r.next.Search(ctx, query)
	}

	request, err := ParseLink(query)
	if err != nil {
		return nil, err
	}
	if !request.IsTrack() {
		return nil, ErrUnsupportedLink
	}

	info, err := r.GetTrack(ctx, request)
	if err != nil {
		return nil, err
	}
	r.logger.Debugf("searching for apple music track: %s", info.Query())
	return r.next.Search(ctx, info.Query())
}

func (r *Resolver) GetTrack(ctx context.Context, request LinkRequest) (*TrackInfo, error) {
	span := sentry.StartSpan(ctx, "applemusic.get_track")
	span.Description = "Scrape song page from Apple Music"
	span.SetTag("country", request.Country)
	span.SetTag("track_id", request.TrackID)
	defer span.Finish()

	info, err := r.scrapeTrack(span.Context(), r.pageURL(request))
	if err != nil {
		r.logger.Errorf("failed to fetch Apple Music track %s: %v", request.TrackID, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	r.logger.Debugf("fetched Apple Music track: '%s' by %v", info.Title, info.Artists)
	span.Status = sentry.SpanStatusOK
	span.SetData("track_title", info.Title)
	return info, nil
}

func (r *Resolver) pageURL(request LinkRequest) string {
	if request.AlbumID != "" {
		return fmt.Sprintf("%s/%s/album/%s?i=%s", r.baseURL, request.Country, request.AlbumID, request.TrackID)
	}
	return fmt.Sprintf("%s/%s/song/%s", r.baseURL, request.Country, request.TrackID)
}
