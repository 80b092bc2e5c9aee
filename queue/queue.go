// Package queue holds the per-guild track list and its playback cursor.
// It does no I/O and no locking; the owning GuildPlayer serialises access.
package queue

import (
	"errors"
	"math/rand"

	"trackbot/models"
)

var (
	ErrQueueEmpty        = errors.New("queue is empty")
	ErrInvalidRepeatMode = errors.New("invalid repeat mode")
)

type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

// beforeStart is the cursor value of a queue nothing has been played from yet.
const beforeStart = -1

func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "1"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// ParseRepeatMode accepts exactly "none", "1" and "all".
func ParseRepeatMode(mode string) (RepeatMode, error) {
	switch mode {
	case "none":
		return RepeatNone, nil
	case "1":
		return RepeatOne, nil
	case "all":
		return RepeatAll, nil
	}
	return RepeatNone, ErrInvalidRepeatMode
}

type Queue struct {
	items    []models.Track
	position int
	repeat   RepeatMode
	shuffle  func(n int, swap func(i, j int))
}

func New() *Queue {
	return &Queue{
		position: beforeStart,
		shuffle:  rand.Shuffle,
	}
}

func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}

func (q *Queue) Length() int {
	return len(q.items)
}

// Position returns the raw cursor. It may be -1 before the first track and
// may run past the end once a non-repeating queue has been exhausted.
func (q *Queue) Position() int {
	return q.position
}

// SetPosition moves the cursor without bounds checks; callers validate.
func (q *Queue) SetPosition(position int) {
	q.position = position
}

func (q *Queue) RepeatMode() RepeatMode {
	return q.repeat
}

// Add appends tracks to the tail. A cursor that ran off the end is pulled back
// to the last pre-add track so the next GetNextTrack lands on the first new one.
func (q *Queue) Add(tracks ...models.Track) {
	if len(tracks) == 0 {
		return
	}
	if len(q.items) > 0 && q.position > len(q.items)-1 {
		q.position = len(q.items) - 1
	}
	q.items = append(q.items, tracks...)
}

// CurrentTrack returns nil when the cursor is outside the list.
func (q *Queue) CurrentTrack() (*models.Track, error) {
	if q.IsEmpty() {
		return nil, ErrQueueEmpty
	}
	if q.position < 0 || q.position > len(q.items)-1 {
		return nil, nil
	}
	track := q.items[q.position]
	return &track, nil
}

func (q *Queue) Upcoming() ([]models.Track, error) {
	if q.IsEmpty() {
		return nil, ErrQueueEmpty
	}
	start := q.position + 1
	if start < 0 {
		start = 0
	}
	if start > len(q.items) {
		start = len(q.items)
	}
	return append([]models.Track(nil), q.items[start:]...), nil
}

func (q *Queue) History() ([]models.Track, error) {
	if q.IsEmpty() {
		return nil, ErrQueueEmpty
	}
	end := q.position
	if end < 0 {
		end = 0
	}
	if end > len(q.items) {
		end = len(q.items)
	}
	return append([]models.Track(nil), q.items[:end]...), nil
}

// GetNextTrack moves the cursor forward one step and returns the track under it.
// A nil track means playback should stop. Under RepeatAll the cursor wraps to 0;
// otherwise it is left past the end and keeps growing on repeated calls.
func (q *Queue) GetNextTrack() (*models.Track, error) {
	if q.IsEmpty() {
		return nil, ErrQueueEmpty
	}

	q.position++

	if q.position < 0 {
		return nil, nil
	}
	if q.position > len(q.items)-1 {
		if q.repeat != RepeatAll {
			return nil, nil
		}
		q.position = 0
	}

	track := q.items[q.position]
	return &track, nil
}

// Shuffle permutes the tracks after the cursor. History and the current
// track keep their positions.
func (q *Queue) Shuffle() error {
	if q.IsEmpty() {
		return ErrQueueEmpty
	}
	start := q.position + 1
	if start < 0 {
		start = 0
	}
	if start >= len(q.items) {
		return nil
	}
	upcoming := q.items[start:]
	q.shuffle(len(upcoming), func(i, j int) {
		upcoming[i], upcoming[j] = upcoming[j], upcoming[i]
	})
	return nil
}

// SetRepeatMode ignores anything but the three accepted literals.
func (q *Queue) SetRepeatMode(mode string) {
	parsed, err := ParseRepeatMode(mode)
	if err != nil {
		return
	}
	q.repeat = parsed
}

// Empty drops every track and rewinds the cursor. Repeat mode is kept.
func (q *Queue) Empty() {
	q.items = nil
	q.position = beforeStart
}
