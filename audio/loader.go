package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"trackbot/models"
)

// StreamResolver turns a track's source reference into something ffmpeg
// can open, usually a direct media URL.
type StreamResolver interface {
	StreamURL(ctx context.Context, track models.Track) (string, error)
}

type LoadJob struct {
	Track   models.Track
	StartMs int
	Gains   [EQBands]float64
}

// LoadResult is a running ffmpeg process streaming raw PCM.
type LoadResult struct {
	pcm      io.ReadCloser
	cmd      *exec.Cmd
	Track    models.Track
	StartMs  int
	Duration time.Duration
	once     sync.Once
}

func (r *LoadResult) Read(p []byte) (int, error) {
	return r.pcm.Read(p)
}

// Close kills the decoder and reaps it. Safe to call more than once.
func (r *LoadResult) Close() error {
	var err error
	r.once.Do(func() {
		err = r.pcm.Close()
		if r.cmd != nil && r.cmd.Process != nil {
			r.cmd.Process.Kill()
			r.cmd.Wait()
		}
	})
	return err
}

type Loader struct {
	resolver StreamResolver
	command  string
	timeout  time.Duration
	logger   *log.Entry
}

func NewLoader(resolver StreamResolver) *Loader {
	return &Loader{
		resolver: resolver,
		command:  "ffmpeg",
		timeout:  30 * time.Second,
		logger: log.WithFields(log.Fields{
			"module": "audio-loader",
		}),
	}
}

// Load resolves the stream and starts decoding it. The returned stream is
// read incrementally; the caller must Close it.
func (l *Loader) Load(ctx context.Context, job LoadJob) (*LoadResult, error) {
	start := time.Now()
	l.logger.Debugf("starting load for %s", job.Track.Title)

	resolveCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	streamURL, err := l.resolver.StreamURL(resolveCtx, job.Track)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("resolving stream timed out after %v: %w", l.timeout, err)
		}
		l.logger.Errorf("error resolving %s: %v", job.Track.SourceRef, err)
		sentry.CaptureException(err)
		return nil, err
	}

	ffmpeg := exec.Command(l.command, ffmpegArgs(streamURL, job.StartMs, job.Gains)...)
	stdout, err := ffmpeg.StdoutPipe()
	if err != nil {
		sentry.CaptureException(err)
		return nil, fmt.Errorf("error creating ffmpeg pipe: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		l.logger.Errorf("error starting ffmpeg for %s: %v", job.Track.Title, err)
		sentry.CaptureException(err)
		return nil, fmt.Errorf("error starting ffmpeg: %w", err)
	}

	l.logger.Tracef("loaded %s in %v", job.Track.Title, time.Since(start))
	return &LoadResult{
		pcm:      stdout,
		cmd:      ffmpeg,
		Track:    job.Track,
		StartMs:  job.StartMs,
		Duration: time.Since(start),
	}, nil
}
