package discord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"trackbot/controller"
	"trackbot/models"
)

type fakeChooserSession struct {
	mutex     sync.Mutex
	sent      []string
	deleted   []string
	reactions []string
	ready     chan struct{}
	want      int
}

func newFakeChooserSession(want int) *fakeChooserSession {
	return &fakeChooserSession{ready: make(chan struct{}), want: want}
}

func (f *fakeChooserSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: "m1", ChannelID: channelID}, nil
}

func (f *fakeChooserSession) ChannelMessageDelete(channelID string, messageID string, options ...discordgo.RequestOption) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeChooserSession) MessageReactionAdd(channelID string, messageID string, emojiID string, options ...discordgo.RequestOption) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.reactions = append(f.reactions, emojiID)
	if len(f.reactions) == f.want {
		close(f.ready)
	}
	return nil
}

func reaction(messageID, userID, emoji string) *discordgo.MessageReactionAdd {
	return &discordgo.MessageReactionAdd{
		MessageReaction: &discordgo.MessageReaction{
			MessageID: messageID,
			UserID:    userID,
			Emoji:     discordgo.Emoji{Name: emoji},
		},
	}
}

var candidates = []models.Track{
	{Title: "A", Duration: time.Minute},
	{Title: "B", Duration: 2 * time.Minute},
	{Title: "C", Duration: 3 * time.Minute},
}

func TestReactionChooserPicks(t *testing.T) {
	session := newFakeChooserSession(len(candidates))
	c := newReactionChooser(session)
	requester := controller.Requester{UserID: "u1", ChannelID: "c1"}

	type result struct {
		track *models.Track
		err   error
	}
	done := make(chan result, 1)
	go func() {
		track, err := c.Choose(context.Background(), requester, candidates)
		done <- result{track, err}
	}()

	<-session.ready
	c.handleReaction(reaction("m1", "someone-else", NumberEmoji[0]))
	c.handleReaction(reaction("m1", "u1", NumberEmoji[4]))
	c.handleReaction(reaction("m1", "u1", NumberEmoji[1]))

	r := <-done
	if r.err != nil {
		t.Fatal(r.err)
	}
	if r.track == nil || r.track.Title != "B" {
		t.Fatalf("Choose() = %v, want B", r.track)
	}
	if len(session.deleted) != 1 {
		t.Errorf("prompt should be deleted once, got %v", session.deleted)
	}
	if len(c.pending) != 0 {
		t.Errorf("pending choices leaked: %v", c.pending)
	}
}

func TestReactionChooserTimeout(t *testing.T) {
	session := newFakeChooserSession(len(candidates))
	c := newReactionChooser(session)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	track, err := c.Choose(ctx, controller.Requester{UserID: "u1", ChannelID: "c1"}, candidates)
	if err != nil || track != nil {
		t.Fatalf("Choose() = %v, %v; want nil, nil", track, err)
	}
}

func TestReactionChooserCancelled(t *testing.T) {
	session := newFakeChooserSession(len(candidates))
	c := newReactionChooser(session)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Choose(ctx, controller.Requester{UserID: "u1"}, candidates); !errors.Is(err, context.Canceled) {
		t.Fatalf("Choose() err = %v, want context.Canceled", err)
	}
}

func TestEmojiIndex(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{NumberEmoji[0], 0},
		{NumberEmoji[4], 4},
		{"👍", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := emojiIndex(tt.name); got != tt.want {
			t.Errorf("emojiIndex(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestFormatChoices(t *testing.T) {
	got := FormatChoices(controller.Requester{UserID: "u1"}, []models.Track{
		{Title: "Song", Author: "Band", Duration: 65 * time.Second},
		{Title: "Other", Duration: time.Hour},
	})
	want := "<@u1> pick a track:\n" +
		NumberEmoji[0] + " **Song (1:05)** by Band\n" +
		NumberEmoji[1] + " **Other (1:00:00)**\n"
	if got != want {
		t.Errorf("FormatChoices() =\n%s\nwant\n%s", got, want)
	}
}

func TestVoiceChannelOf(t *testing.T) {
	states := []*discordgo.VoiceState{
		{UserID: "a", ChannelID: "v1"},
		{UserID: "b", ChannelID: ""},
	}
	if got, err := voiceChannelOf(states, "a"); err != nil || got != "v1" {
		t.Errorf("voiceChannelOf(a) = %q, %v", got, err)
	}
	if _, err := voiceChannelOf(states, "b"); !errors.Is(err, ErrNotInVoiceChannel) {
		t.Errorf("voiceChannelOf(b) err = %v", err)
	}
	if _, err := voiceChannelOf(nil, "c"); !errors.Is(err, ErrNotInVoiceChannel) {
		t.Errorf("voiceChannelOf(c) err = %v", err)
	}
}
