package audio

import "trackbot/models"

type PlaybackNotificationType string

const (
	PlaybackLoading   PlaybackNotificationType = "loading"
	PlaybackLoadError PlaybackNotificationType = "load_error"
	PlaybackStarted   PlaybackNotificationType = "started"
	PlaybackPaused    PlaybackNotificationType = "paused"
	PlaybackResumed   PlaybackNotificationType = "resumed"
	PlaybackCompleted PlaybackNotificationType = "completed"
	PlaybackStopped   PlaybackNotificationType = "stopped"
	PlaybackError     PlaybackNotificationType = "error"
)

// PlaybackNotification reports a state change of one playback. Generation
// identifies the Play/Seek call that produced it; stale generations mean the
// stream has since been replaced.
type PlaybackNotification struct {
	Event      PlaybackNotificationType
	Track      *models.Track
	Generation uint64
	Error      error
}
