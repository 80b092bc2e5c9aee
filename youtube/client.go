package youtube

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"trackbot/models"
)

var (
	ErrVideoNotFound        = errors.New("no video found")
	ErrPlaylistNotSupported = errors.New("playlist links are not supported, link a single video")
)

const watchURL = "https://www.youtube.com/watch?v="

type YouTubeURLResult struct {
	VideoID    string
	PlaylistID string
}

// ParseYouTubeURL extracts the video and playlist IDs from a YouTube link.
// Anything that is not a YouTube link yields the zero value.
func ParseYouTubeURL(rawURL string) YouTubeURLResult {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return YouTubeURLResult{}
	}

	switch parsedURL.Host {
	case "www.youtube.com", "youtube.com", "m.youtube.com", "music.youtube.com":
		query := parsedURL.Query()
		return YouTubeURLResult{
			VideoID:    query.Get("v"),
			PlaylistID: query.Get("list"),
		}
	case "youtu.be":
		return YouTubeURLResult{
			VideoID:    strings.Trim(parsedURL.Path, "/"),
			PlaylistID: parsedURL.Query().Get("list"),
		}
	}
	return YouTubeURLResult{}
}

// Client searches YouTube through the Data API and resolves playable
// stream URLs with yt-dlp.
type Client struct {
	service    *ytapi.Service
	maxResults int64
	command    string
	logger     *log.Entry
}

func NewClient(ctx context.Context, apiKey string, maxResults int) (*Client, error) {
	service, err := ytapi.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		sentry.CaptureException(err)
		return nil, fmt.Errorf("error creating YouTube client: %w", err)
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{
		service:    service,
		maxResults: int64(maxResults),
		command:    "yt-dlp",
		logger:     log.WithFields(log.Fields{"module": "youtube"}),
	}, nil
}

// Search returns candidates for a free-text query, or the single video a
// YouTube link points at.
func (c *Client) Search(ctx context.Context, query string) ([]models.Track, error) {
	logger := c.logger.WithField("function", "Search")

	if parsed := ParseYouTubeURL(query); parsed != (YouTubeURLResult{}) {
		if parsed.VideoID == "" {
			return nil, ErrPlaylistNotSupported
		}
		track, err := c.GetVideoByID(ctx, parsed.VideoID)
		if err != nil {
			return nil, err
		}
		return []models.Track{track}, nil
	}

	span := sentry.StartSpan(ctx, "youtube.search")
	span.Description = "Search YouTube API"
	span.SetTag("query", query)
	defer span.Finish()

	response, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		MaxResults(c.maxResults).
		Type("video").
		Context(ctx).
		Do()
	if err != nil {
		logger.Errorf("error querying YouTube: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("error querying YouTube: %w", err)
	}

	videoIDs := make([]string, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id.Kind == "youtube#video" {
			videoIDs = append(videoIDs, item.Id.VideoId)
		}
	}
	if len(videoIDs) == 0 {
		span.Status = sentry.SpanStatusOK
		return nil, nil
	}

	// one batched call for every result's duration
	details, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoIDs...).
		Context(ctx).
		Do()
	if err != nil {
		logger.Errorf("error getting video details: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("error getting video details: %w", err)
	}

	tracks := orderTracks(videoIDs, details.Items)
	span.Status = sentry.SpanStatusOK
	span.SetData("results_count", len(tracks))
	logger.Tracef("found %d videos", len(tracks))
	return tracks, nil
}

func (c *Client) GetVideoByID(ctx context.Context, videoID string) (models.Track, error) {
	response, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		c.logger.Errorf("error querying YouTube: %v", err)
		sentry.CaptureException(err)
		return models.Track{}, fmt.Errorf("error querying YouTube: %w", err)
	}
	if len(response.Items) == 0 {
		return models.Track{}, ErrVideoNotFound
	}

	c.logger.Tracef("video found: %v", response.Items[0].Snippet.Title)
	return trackFromVideo(response.Items[0]), nil
}

// orderTracks keeps the search ranking; the videos endpoint does not.
func orderTracks(videoIDs []string, videos []*ytapi.Video) []models.Track {
	byID := make(map[string]*ytapi.Video, len(videos))
	for _, video := range videos {
		byID[video.Id] = video
	}

	tracks := make([]models.Track, 0, len(videoIDs))
	for _, id := range videoIDs {
		if video, ok := byID[id]; ok {
			tracks = append(tracks, trackFromVideo(video))
		}
	}
	return tracks
}

func trackFromVideo(video *ytapi.Video) models.Track {
	track := models.Track{SourceRef: watchURL + video.Id}
	if video.Snippet != nil {
		track.Title = html.UnescapeString(video.Snippet.Title)
		track.Author = html.UnescapeString(video.Snippet.ChannelTitle)
	}
	if video.ContentDetails != nil {
		track.Duration = parseYoutubeDuration(video.ContentDetails.Duration)
	}
	return track
}

// StreamURL resolves a direct audio URL for the track. Non-YouTube source
// references are assumed to be playable as they are.
func (c *Client) StreamURL(ctx context.Context, track models.Track) (string, error) {
	if ParseYouTubeURL(track.SourceRef).VideoID == "" {
		return track.SourceRef, nil
	}

	logger := c.logger.WithFields(log.Fields{"source": track.SourceRef, "function": "StreamURL"})

	span := sentry.StartSpan(ctx, "youtube.get_stream")
	span.Description = "Get video stream URL via yt-dlp"
	span.SetTag("source", track.SourceRef)
	defer span.Finish()

	cmd := exec.CommandContext(ctx, c.command,
		"-f", "bestaudio",
		"--no-playlist",
		"--socket-timeout", "10",
		"--no-audio-multistreams",
		"-g",
		"--no-warnings",
		track.SourceRef)

	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		logger.WithFields(log.Fields{
			"error":  err,
			"output": stderr,
		}).Error("yt-dlp command failed")
		span.Status = sentry.SpanStatusInternalError
		err = fmt.Errorf("yt-dlp error: %w, output: %s", err, stderr)
		sentry.CaptureException(err)
		return "", err
	}

	// yt-dlp may print one URL per format; the first is the audio one
	streamURL, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	span.Status = sentry.SpanStatusOK
	return streamURL, nil
}

var isoDurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseYoutubeDuration reads the ISO 8601 durations the Data API returns,
// e.g. "PT1H2M3S". Unparseable input yields 0.
func parseYoutubeDuration(iso string) time.Duration {
	match := isoDurationRegex.FindStringSubmatch(iso)
	if match == nil {
		return 0
	}

	var duration time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if match[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(match[i+1])
		duration += time.Duration(n) * unit
	}
	return duration
}
