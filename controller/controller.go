package controller

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"trackbot/audio"
	"trackbot/models"
)

const (
	DefaultChooserTimeout = 60 * time.Second
	DefaultVolume         = 100
	MaxChoices            = 5
)

// Backend is the playback handle a GuildPlayer drives: a voice connection
// plus whatever decodes and streams audio into it.
type Backend interface {
	Play(ctx context.Context, track models.Track) error
	Stop(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Seek(ctx context.Context, ms int) error
	SetVolume(ctx context.Context, percent int) error
	SetEqualizer(ctx context.Context, gains [EQBands]float64) error
	IsPlaying() bool
	IsPaused() bool
	PositionMs() int
	Volume() int
}

// Notifier is implemented by backends that report playback progress.
// Generation is the generation of the most recent stream the backend
// started, successful or not; notifications carrying an older one are stale.
type Notifier interface {
	Events() <-chan audio.PlaybackNotification
	Generation() uint64
}

// Searcher turns a free-text query or URL into candidate tracks.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Track, error)
}

// Requester identifies who asked for a track and where the prompt should go.
type Requester struct {
	UserID    string
	Username  string
	ChannelID string
}

// TrackChooser asks the requester to pick one of the candidates. It returns
// nil without an error when the wait ends without a selection.
type TrackChooser interface {
	Choose(ctx context.Context, requester Requester, candidates []models.Track) (*models.Track, error)
}

type PlayRecorder interface {
	RecordPlay(guildID string, track models.Track) error
}

type SettingsStore interface {
	LoadSettings(guildID string) (models.GuildSettings, bool, error)
	SaveSettings(guildID string, settings models.GuildSettings) error
}

type Options struct {
	Chooser        TrackChooser
	Recorder       PlayRecorder
	Settings       SettingsStore
	ChooserTimeout time.Duration
	DefaultVolume  int
}

type Controller struct {
	// This is a map of guildID to the player for that guild
	sessions map[string]*GuildPlayer
	options  Options
	mutex    sync.RWMutex
}

func NewController(options Options) *Controller {
	if options.ChooserTimeout <= 0 {
		options.ChooserTimeout = DefaultChooserTimeout
	}
	if options.DefaultVolume < MinVolume || options.DefaultVolume > MaxVolume {
		options.DefaultVolume = DefaultVolume
	}

	return &Controller{
		sessions: make(map[string]*GuildPlayer),
		options:  options,
	}
}

// GetPlayer returns the guild's player, creating it on first use. The
// controller lock only guards the map; player bodies have their own lock.
func (c *Controller) GetPlayer(guildID string) *GuildPlayer {
	c.mutex.RLock()
	player, ok := c.sessions[guildID]
	c.mutex.RUnlock()
	if ok {
		return player
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if player, ok := c.sessions[guildID]; ok {
		return player
	}

	player = newGuildPlayer(guildID, c.options)
	c.sessions[guildID] = player

	log.WithFields(log.Fields{
		"module":  "controller",
		"guildID": guildID,
	}).Debug("created guild player")

	return player
}

// Lookup returns the guild's player without creating one.
func (c *Controller) Lookup(guildID string) (*GuildPlayer, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	player, ok := c.sessions[guildID]
	return player, ok
}

func (c *Controller) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.sessions)
}
