package audio

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"gopkg.in/hraban/opus.v2"

	"trackbot/models"
)

// StreamLoader starts decoding a track. *Loader is the production one.
type StreamLoader interface {
	Load(ctx context.Context, job LoadJob) (*LoadResult, error)
}

// Speaker is the part of a voice connection the player toggles.
type Speaker interface {
	Speaking(b bool) error
}

// Player streams one track at a time into a guild's voice connection.
// Play and Seek replace the running stream; every replacement bumps the
// generation so a superseded stream cannot report completion.
type Player struct {
	events     chan PlaybackNotification
	logger     *log.Entry
	encoder    *opus.Encoder
	speaker    Speaker
	opusSend   chan<- []byte
	loader     StreamLoader
	generation atomic.Uint64
	playing    atomic.Bool
	paused     atomic.Bool
	volume     atomic.Int32
	framesSent atomic.Int64
	current    *playback
	gains      [EQBands]float64
	mutex      sync.Mutex
}

type playback struct {
	generation uint64
	track      models.Track
	stream     *LoadResult
	startMs    int
	done       chan struct{}
}

// NewPlayer binds a player to a joined voice connection. A bitrate of 0
// keeps the encoder at its maximum.
func NewPlayer(vc *discordgo.VoiceConnection, loader StreamLoader, bitrate int) (*Player, error) {
	return newPlayer(vc, vc.OpusSend, loader, bitrate)
}

func newPlayer(speaker Speaker, opusSend chan<- []byte, loader StreamLoader, bitrate int) (*Player, error) {
	encoder, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	encoder.SetComplexity(10)
	if bitrate > 0 {
		encoder.SetBitrate(bitrate)
	} else {
		encoder.SetBitrateToMax()
	}

	player := &Player{
		events: make(chan PlaybackNotification, 100),
		logger: log.WithFields(log.Fields{
			"module": "player",
		}),
		encoder:  encoder,
		speaker:  speaker,
		opusSend: opusSend,
		loader:   loader,
	}
	player.volume.Store(100)
	return player, nil
}

func (p *Player) Events() <-chan PlaybackNotification {
	return p.events
}

// Generation identifies the latest Play or Seek, including ones that failed
// to load.
func (p *Player) Generation() uint64 {
	return p.generation.Load()
}

func (p *Player) notify(notification PlaybackNotification) {
	select {
	case p.events <- notification:
	default:
		p.logger.Warnf("notification buffer full, dropping %s", notification.Event)
	}
}

// Play replaces whatever is playing with track, from the start.
func (p *Player) Play(ctx context.Context, track models.Track) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.paused.Store(false)
	return p.start(ctx, track, 0)
}

func (p *Player) start(ctx context.Context, track models.Track, startMs int) error {
	p.halt()
	generation := p.generation.Add(1)

	p.notify(PlaybackNotification{Event: PlaybackLoading, Track: &track, Generation: generation})

	stream, err := p.loader.Load(ctx, LoadJob{Track: track, StartMs: startMs, Gains: p.gains})
	if err != nil {
		p.playing.Store(false)
		p.notify(PlaybackNotification{Event: PlaybackLoadError, Track: &track, Generation: generation, Error: err})
		return err
	}

	pb := &playback{
		generation: generation,
		track:      track,
		stream:     stream,
		startMs:    startMs,
		done:       make(chan struct{}),
	}
	p.current = pb
	p.framesSent.Store(0)
	p.playing.Store(true)

	go p.stream(pb)
	return nil
}

// halt tears down the running stream without reporting anything. Callers
// hold p.mutex.
func (p *Player) halt() {
	if p.current == nil {
		return
	}
	close(p.current.done)
	p.current.stream.Close()
	p.current = nil
}

func (p *Player) stream(pb *playback) {
	defer pb.stream.Close()

	if err := p.speaker.Speaking(true); err != nil {
		p.logger.Warnf("failed to set speaking: %v", err)
	}

	buffer := make([]int16, frameSamples)
	byteBuffer := make([]byte, frameSamples*2)
	opusBuffer := make([]byte, frameSamples*2)
	firstPacket := true

	for {
		select {
		case <-pb.done:
			p.logger.Trace("playback replaced or stopped")
			return
		default:
		}

		if p.paused.Load() {
			select {
			case <-pb.done:
				return
			case <-time.After(frameDuration):
			}
			continue
		}

		// io.ReadFull: a pipe may return short reads mid-frame
		_, err := io.ReadFull(pb.stream, byteBuffer)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			p.logger.Trace("reached end of audio stream")
			p.finish(pb, PlaybackNotification{Event: PlaybackCompleted})
			return
		}
		if err != nil {
			select {
			case <-pb.done:
				return
			default:
			}
			p.logger.Warnf("error reading audio stream: %v", err)
			sentry.CaptureException(err)
			p.finish(pb, PlaybackNotification{Event: PlaybackError, Error: err})
			return
		}

		decodeFrame(byteBuffer, buffer)
		applyVolume(buffer, int(p.volume.Load()))

		encoded, err := p.encoder.Encode(buffer, opusBuffer)
		if err != nil {
			p.logger.Warnf("error encoding to opus: %v", err)
			sentry.CaptureException(err)
			continue
		}

		if firstPacket {
			p.notify(PlaybackNotification{Event: PlaybackStarted, Track: &pb.track, Generation: pb.generation})
			firstPacket = false
		}

		frame := make([]byte, encoded)
		copy(frame, opusBuffer[:encoded])
		select {
		case p.opusSend <- frame:
			p.framesSent.Add(1)
		case <-pb.done:
			return
		}
	}
}

// finish reports the end of pb unless it has already been replaced.
func (p *Player) finish(pb *playback, notification PlaybackNotification) {
	p.mutex.Lock()
	select {
	case <-pb.done:
		p.mutex.Unlock()
		return
	default:
	}
	if p.current != pb || p.generation.Load() != pb.generation {
		p.mutex.Unlock()
		return
	}
	p.current = nil
	p.playing.Store(false)
	p.paused.Store(false)
	p.mutex.Unlock()

	if err := p.speaker.Speaking(false); err != nil {
		p.logger.Warnf("failed to unset speaking: %v", err)
	}

	notification.Track = &pb.track
	notification.Generation = pb.generation
	p.notify(notification)
}

func (p *Player) Stop(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.logger.Info("stopping playback")
	var track *models.Track
	if p.current != nil {
		track = &p.current.track
	}
	p.halt()
	generation := p.generation.Add(1)
	p.playing.Store(false)
	p.paused.Store(false)
	p.framesSent.Store(0)

	p.notify(PlaybackNotification{Event: PlaybackStopped, Track: track, Generation: generation})
	return nil
}

func (p *Player) Pause(ctx context.Context) error {
	p.logger.Info("pausing playback")
	p.paused.Store(true)
	p.notify(PlaybackNotification{Event: PlaybackPaused, Generation: p.generation.Load()})
	return nil
}

func (p *Player) Resume(ctx context.Context) error {
	p.logger.Info("resuming playback")
	p.paused.Store(false)
	p.notify(PlaybackNotification{Event: PlaybackResumed, Generation: p.generation.Load()})
	return nil
}

// Seek restarts the current track's decoder at ms. Idle players ignore it.
func (p *Player) Seek(ctx context.Context, ms int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.current == nil {
		return nil
	}
	return p.start(ctx, p.current.track, ms)
}

// SetEqualizer stores the curve and, if a track is playing, restarts its
// decoder at the current position with the new filter.
func (p *Player) SetEqualizer(ctx context.Context, gains [EQBands]float64) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.gains == gains {
		return nil
	}
	p.gains = gains
	if p.current == nil {
		return nil
	}
	return p.start(ctx, p.current.track, p.positionMs())
}

func (p *Player) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 150 {
		volume = 150
	}
	p.volume.Store(int32(volume))
	return nil
}

func (p *Player) Volume() int {
	return int(p.volume.Load())
}

func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}

func (p *Player) IsPaused() bool {
	return p.paused.Load()
}

func (p *Player) PositionMs() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.positionMs()
}

func (p *Player) positionMs() int {
	if p.current == nil {
		return 0
	}
	return p.current.startMs + int(p.framesSent.Load())*int(frameDuration/time.Millisecond)
}
