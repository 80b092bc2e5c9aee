package controller

import (
	"context"
	"errors"

	"trackbot/audio"
	"trackbot/queue"
)

// listenForPlaybackEvents advances the queue whenever backend finishes a
// track on its own. It exits when the events channel closes or another
// backend is attached.
func (p *GuildPlayer) listenForPlaybackEvents(backend Backend, events <-chan audio.PlaybackNotification) {
	go func() {
		for notification := range events {
			if !p.handlePlaybackEvent(backend, notification) {
				return
			}
		}
	}()
}

func (p *GuildPlayer) handlePlaybackEvent(backend Backend, notification audio.PlaybackNotification) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.backend != backend {
		p.logger.Trace("backend replaced, listener exiting")
		return false
	}

	if notifier, ok := backend.(Notifier); ok && notification.Generation < notifier.Generation() {
		p.logger.Tracef("dropping stale %s for %s", notification.Event, titleOf(notification))
		return true
	}

	switch notification.Event {
	case audio.PlaybackStarted:
		p.logger.Debugf("playback started: %s", titleOf(notification))
	case audio.PlaybackCompleted:
		if backend.IsPlaying() {
			// a newer Play already replaced the finished stream
			return true
		}
		p.logger.Debugf("playback completed: %s", titleOf(notification))
		var err error
		if p.queue.RepeatMode() == queue.RepeatOne {
			err = p.repeatTrack(context.Background())
		} else {
			err = p.advance(context.Background())
		}
		if err != nil && !errors.Is(err, queue.ErrQueueEmpty) {
			p.logger.Errorf("failed to continue after completion: %v", err)
		}
	case audio.PlaybackError, audio.PlaybackLoadError:
		p.logger.Warnf("playback error on %s: %v", titleOf(notification), notification.Error)
		if notification.Event == audio.PlaybackLoadError || backend.IsPlaying() {
			// Play already returned the load error to its caller
			return true
		}
		if err := p.advance(context.Background()); err != nil {
			p.logger.Errorf("failed to skip broken track: %v", err)
		}
	default:
		p.logger.Tracef("playback event: %s", notification.Event)
	}
	return true
}

func titleOf(notification audio.PlaybackNotification) string {
	if notification.Track == nil {
		return "<none>"
	}
	return notification.Track.Title
}
