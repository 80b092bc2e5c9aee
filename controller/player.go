package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"trackbot/models"
	"trackbot/queue"
)

// GuildPlayer is one guild's playback session. Every queue mutation and the
// backend command that follows it happen under mutex, so two commands for
// the same guild never interleave.
type GuildPlayer struct {
	GuildID string

	queue          *queue.Queue
	backend        Backend
	chooser        TrackChooser
	chooserTimeout time.Duration
	recorder       PlayRecorder
	settings       SettingsStore
	volume         int
	eq             [EQBands]float64
	mutex          sync.Mutex
	logger         *log.Entry
}

type NowPlaying struct {
	Track      *models.Track
	PositionMs int
	Playing    bool
	Paused     bool
	Volume     int
	RepeatMode queue.RepeatMode
}

type QueueView struct {
	Current  *models.Track
	Upcoming []models.Track
	Position int
	Length   int
}

func newGuildPlayer(guildID string, options Options) *GuildPlayer {
	p := &GuildPlayer{
		GuildID:        guildID,
		queue:          queue.New(),
		chooser:        options.Chooser,
		chooserTimeout: options.ChooserTimeout,
		recorder:       options.Recorder,
		settings:       options.Settings,
		volume:         options.DefaultVolume,
		logger: log.WithFields(log.Fields{
			"module":  "controller",
			"guildID": guildID,
		}),
	}
	if p.chooserTimeout <= 0 {
		p.chooserTimeout = DefaultChooserTimeout
	}
	p.restoreSettings()
	return p
}

func (p *GuildPlayer) restoreSettings() {
	if p.settings == nil {
		return
	}
	saved, ok, err := p.settings.LoadSettings(p.GuildID)
	if err != nil {
		p.logger.Warnf("failed to load guild settings: %v", err)
		return
	}
	if !ok {
		return
	}
	if validateVolume(saved.Volume) == nil {
		p.volume = saved.Volume
	}
	p.queue.SetRepeatMode(saved.RepeatMode)
	for i, gain := range saved.EQ {
		if validateEQGain(gain) == nil {
			p.eq[i] = gain
		}
	}
	p.logger.Tracef("restored settings: volume=%d repeat=%s", p.volume, p.queue.RepeatMode())
}

func (p *GuildPlayer) persistSettings() {
	if p.settings == nil {
		return
	}
	err := p.settings.SaveSettings(p.GuildID, models.GuildSettings{
		Volume:     p.volume,
		RepeatMode: p.queue.RepeatMode().String(),
		EQ:         p.eq,
	})
	if err != nil {
		p.logger.Warnf("failed to save guild settings: %v", err)
	}
}

// Attach binds a playback backend, pushing the stored volume and equalizer
// to it. Backends that implement Notifier drive automatic advancing.
func (p *GuildPlayer) Attach(ctx context.Context, backend Backend) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	previous := p.backend
	p.backend = backend
	if backend == nil {
		return nil
	}

	if notifier, ok := backend.(Notifier); ok && backend != previous {
		p.listenForPlaybackEvents(backend, notifier.Events())
	}

	if err := backend.SetVolume(ctx, p.volume); err != nil {
		return p.backendError("set volume", err)
	}
	if err := backend.SetEqualizer(ctx, p.eq); err != nil {
		return p.backendError("set equalizer", err)
	}
	p.logger.Debug("backend attached")
	return nil
}

// Detach stops and forgets the backend after the bot left the voice channel.
// The queue is kept; the next Attach resumes from it.
func (p *GuildPlayer) Detach() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.backend == nil {
		return
	}
	if err := p.backend.Stop(context.Background()); err != nil {
		p.logger.Warnf("failed to stop detached backend: %v", err)
	}
	p.backend = nil
	p.logger.Debug("backend detached")
}

func (p *GuildPlayer) Connected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.backend != nil
}

func (p *GuildPlayer) IsEmpty() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.queue.IsEmpty()
}

func (p *GuildPlayer) backendIdle() bool {
	return p.backend != nil && !p.backend.IsPlaying() && !p.backend.IsPaused()
}

func (p *GuildPlayer) backendError(op string, err error) error {
	sentry.CaptureException(err)
	p.logger.WithField("op", op).Errorf("backend failure: %v", err)
	return err
}

func (p *GuildPlayer) play(ctx context.Context, track models.Track) error {
	if p.backend == nil {
		p.logger.Tracef("no backend, not playing %s", track.Title)
		return nil
	}
	p.logger.Debugf("playing: %s", track.Title)
	if err := p.backend.Play(ctx, track); err != nil {
		return p.backendError("play", err)
	}
	if p.recorder != nil {
		if err := p.recorder.RecordPlay(p.GuildID, track); err != nil {
			p.logger.Warnf("failed to record play: %v", err)
		}
	}
	return nil
}

// StartPlayback plays the current track if the backend is idle.
func (p *GuildPlayer) StartPlayback(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.startPlayback(ctx)
}

func (p *GuildPlayer) startPlayback(ctx context.Context) error {
	if !p.backendIdle() {
		return nil
	}
	current, err := p.queue.CurrentTrack()
	if err != nil || current == nil {
		return nil
	}
	return p.play(ctx, *current)
}

// Advance moves to the next track and plays it. Running off the end of the
// queue, or an empty queue, is not an error.
func (p *GuildPlayer) Advance(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.advance(ctx)
}

func (p *GuildPlayer) advance(ctx context.Context) error {
	next, err := p.queue.GetNextTrack()
	if errors.Is(err, queue.ErrQueueEmpty) {
		return nil
	}
	if err != nil {
		return err
	}
	if next == nil {
		p.logger.Trace("no more tracks in queue, stopping")
		return nil
	}
	return p.play(ctx, *next)
}

// RepeatTrack replays the current track without moving the cursor.
func (p *GuildPlayer) RepeatTrack(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.repeatTrack(ctx)
}

func (p *GuildPlayer) repeatTrack(ctx context.Context) error {
	current, err := p.queue.CurrentTrack()
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	return p.play(ctx, *current)
}

// AddTracks queues one of the candidates. With several candidates the
// chooser decides; a chooser that gives up adds nothing and is not an error.
// The returned track is nil when nothing was added.
func (p *GuildPlayer) AddTracks(ctx context.Context, requester Requester, candidates []models.Track) (*models.Track, error) {
	if len(candidates) == 0 {
		return nil, ErrNoTracksFound
	}

	selected := candidates[0]
	if len(candidates) > 1 && p.chooser != nil {
		choice, err := p.choose(ctx, requester, candidates)
		if err != nil {
			return nil, err
		}
		if choice == nil {
			p.logger.Debugf("no selection from %s, nothing added", requester.UserID)
			return nil, nil
		}
		selected = *choice
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	position := p.queue.Position()
	idleCursor := p.queue.IsEmpty() || position < 0 || position > p.queue.Length()-1

	p.queue.Add(selected)
	p.logger.Tracef("track added: %s", selected.Title)

	if !p.backendIdle() {
		return &selected, nil
	}
	if idleCursor {
		return &selected, p.advance(ctx)
	}
	return &selected, p.startPlayback(ctx)
}

// choose runs without the guild lock held; the wait is bounded by chooserTimeout.
func (p *GuildPlayer) choose(ctx context.Context, requester Requester, candidates []models.Track) (*models.Track, error) {
	if len(candidates) > MaxChoices {
		candidates = candidates[:MaxChoices]
	}

	ctx, cancel := context.WithTimeout(ctx, p.chooserTimeout)
	defer cancel()

	choice, err := p.chooser.Choose(ctx, requester, candidates)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, nil
	}
	return choice, err
}

// SkipTo plays the index-th track, counting from 1.
func (p *GuildPlayer) SkipTo(ctx context.Context, index int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.queue.IsEmpty() {
		return queue.ErrQueueEmpty
	}
	if index < 1 || index > p.queue.Length() {
		return ErrIndexOutOfRange
	}

	p.queue.SetPosition(index - 1)
	return p.repeatTrack(ctx)
}

// Previous steps the cursor back one track and plays it. From an exhausted
// queue it lands on the last track.
func (p *GuildPlayer) Previous(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	history, err := p.queue.History()
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return ErrNoPreviousTracks
	}

	position := p.queue.Position()
	if position > p.queue.Length() {
		position = p.queue.Length()
	}
	p.queue.SetPosition(position - 1)
	return p.repeatTrack(ctx)
}

// Next skips to the following track. The returned track is nil if the
// cursor moved but nothing is left to play.
func (p *GuildPlayer) Next(ctx context.Context) (*models.Track, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	upcoming, err := p.queue.Upcoming()
	if err != nil {
		return nil, err
	}
	if len(upcoming) == 0 && p.queue.RepeatMode() != queue.RepeatAll {
		return nil, ErrNoMoreTracks
	}

	next, err := p.queue.GetNextTrack()
	if err != nil || next == nil {
		return nil, err
	}
	return next, p.play(ctx, *next)
}

func (p *GuildPlayer) Shuffle(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.queue.Shuffle()
}

// SetRepeatMode is the strict variant: unknown literals are rejected.
func (p *GuildPlayer) SetRepeatMode(ctx context.Context, mode string) error {
	if _, err := queue.ParseRepeatMode(mode); err != nil {
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.queue.SetRepeatMode(mode)
	p.persistSettings()
	return nil
}

func (p *GuildPlayer) RepeatMode() queue.RepeatMode {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.queue.RepeatMode()
}

// Stop empties the queue and halts the backend.
func (p *GuildPlayer) Stop(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.queue.Empty()
	if p.backend == nil {
		return nil
	}
	if err := p.backend.Stop(ctx); err != nil {
		return p.backendError("stop", err)
	}
	return nil
}

func (p *GuildPlayer) Pause(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.backend == nil {
		return ErrNotConnected
	}
	if p.backend.IsPaused() {
		return ErrAlreadyPaused
	}
	if !p.backend.IsPlaying() {
		return ErrNothingPlaying
	}
	if err := p.backend.Pause(ctx); err != nil {
		return p.backendError("pause", err)
	}
	return nil
}

func (p *GuildPlayer) Resume(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.backend == nil {
		return ErrNotConnected
	}
	if !p.backend.IsPaused() {
		return ErrNotPaused
	}
	if err := p.backend.Resume(ctx); err != nil {
		return p.backendError("resume", err)
	}
	return nil
}

func (p *GuildPlayer) Seek(ctx context.Context, targetMs int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.queue.IsEmpty() {
		return queue.ErrQueueEmpty
	}
	if p.backend == nil {
		return ErrNotConnected
	}
	if targetMs < 0 {
		targetMs = 0
	}
	if err := p.backend.Seek(ctx, targetMs); err != nil {
		return p.backendError("seek", err)
	}
	return nil
}

// SeekString seeks to a position written as "m:ss", "1m30s" or "45".
func (p *GuildPlayer) SeekString(ctx context.Context, value string) error {
	targetMs, err := ParseTimeString(value)
	if err != nil {
		return err
	}
	return p.Seek(ctx, targetMs)
}

// Restart seeks the current track back to the start.
func (p *GuildPlayer) Restart(ctx context.Context) error {
	return p.Seek(ctx, 0)
}

func (p *GuildPlayer) Volume() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.volume
}

func (p *GuildPlayer) SetVolume(ctx context.Context, volume int) error {
	if err := validateVolume(volume); err != nil {
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.applyVolume(ctx, volume)
}

func (p *GuildPlayer) VolumeUp(ctx context.Context) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.volume >= MaxVolume {
		return p.volume, ErrMaxVolume
	}
	if err := p.applyVolume(ctx, min(p.volume+VolumeStep, MaxVolume)); err != nil {
		return p.volume, err
	}
	return p.volume, nil
}

func (p *GuildPlayer) VolumeDown(ctx context.Context) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.volume <= MinVolume {
		return p.volume, ErrMinVolume
	}
	if err := p.applyVolume(ctx, max(p.volume-VolumeStep, MinVolume)); err != nil {
		return p.volume, err
	}
	return p.volume, nil
}

func (p *GuildPlayer) applyVolume(ctx context.Context, volume int) error {
	if p.backend != nil {
		if err := p.backend.SetVolume(ctx, volume); err != nil {
			return p.backendError("set volume", err)
		}
	}
	p.volume = volume
	p.persistSettings()
	return nil
}

// SetEQBand sets one band's gain in dB. band is either a band index or a
// frequency from EQFrequencies; the resolved index is returned.
func (p *GuildPlayer) SetEQBand(ctx context.Context, band int, gain float64) (int, error) {
	index, err := ResolveEQBand(band)
	if err != nil {
		return 0, err
	}
	if err := validateEQGain(gain); err != nil {
		return 0, err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	gains := p.eq
	gains[index-1] = gain
	return index, p.applyEqualizer(ctx, gains)
}

func (p *GuildPlayer) SetEQPreset(ctx context.Context, name string) error {
	gains, ok := EQPresets[name]
	if !ok {
		return ErrInvalidEQPreset
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.applyEqualizer(ctx, gains)
}

func (p *GuildPlayer) applyEqualizer(ctx context.Context, gains [EQBands]float64) error {
	if p.backend != nil {
		if err := p.backend.SetEqualizer(ctx, gains); err != nil {
			return p.backendError("set equalizer", err)
		}
	}
	p.eq = gains
	p.persistSettings()
	return nil
}

func (p *GuildPlayer) Equalizer() [EQBands]float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.eq
}

func (p *GuildPlayer) NowPlaying() NowPlaying {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	np := NowPlaying{
		Volume:     p.volume,
		RepeatMode: p.queue.RepeatMode(),
	}
	np.Track, _ = p.queue.CurrentTrack()
	if p.backend != nil {
		np.Playing = p.backend.IsPlaying()
		np.Paused = p.backend.IsPaused()
		np.PositionMs = p.backend.PositionMs()
	}
	return np
}

// View returns the current track and up to limit upcoming tracks.
func (p *GuildPlayer) View(limit int) (QueueView, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	current, err := p.queue.CurrentTrack()
	if err != nil {
		return QueueView{}, err
	}
	upcoming, err := p.queue.Upcoming()
	if err != nil {
		return QueueView{}, err
	}
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return QueueView{
		Current:  current,
		Upcoming: upcoming,
		Position: p.queue.Position(),
		Length:   p.queue.Length(),
	}, nil
}
