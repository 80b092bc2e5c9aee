package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"

	"trackbot/controller"
	"trackbot/models"
)

type stubBackend struct {
	stopped bool
}

func (b *stubBackend) Play(ctx context.Context, track models.Track) error { return nil }
func (b *stubBackend) Stop(ctx context.Context) error                     { b.stopped = true; return nil }
func (b *stubBackend) Pause(ctx context.Context) error                    { return nil }
func (b *stubBackend) Resume(ctx context.Context) error                   { return nil }
func (b *stubBackend) Seek(ctx context.Context, ms int) error             { return nil }
func (b *stubBackend) SetVolume(ctx context.Context, percent int) error   { return nil }
func (b *stubBackend) SetEqualizer(ctx context.Context, gains [controller.EQBands]float64) error {
	return nil
}
func (b *stubBackend) IsPlaying() bool { return false }
func (b *stubBackend) IsPaused() bool  { return false }
func (b *stubBackend) PositionMs() int { return 0 }
func (b *stubBackend) Volume() int     { return 100 }

func voiceUpdate(guildID, userID, channelID string) *discordgo.VoiceStateUpdate {
	return &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{
		GuildID:   guildID,
		UserID:    userID,
		ChannelID: channelID,
	}}
}

func TestDetachOnDisconnect(t *testing.T) {
	players := controller.NewController(controller.Options{})
	player := players.GetPlayer("g1")
	backend := &stubBackend{}
	if err := player.Attach(context.Background(), backend); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		update *discordgo.VoiceStateUpdate
	}{
		{"someone else left", voiceUpdate("g1", "user", "")},
		{"bot moved channels", voiceUpdate("g1", "bot", "v2")},
		{"unknown guild", voiceUpdate("g2", "bot", "")},
		{"no voice state", &discordgo.VoiceStateUpdate{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if detachOnDisconnect("bot", players, tt.update) {
				t.Error("expected no detach")
			}
			if !player.Connected() {
				t.Error("player should still be connected")
			}
		})
	}

	if !detachOnDisconnect("bot", players, voiceUpdate("g1", "bot", "")) {
		t.Fatal("expected detach when the bot leaves voice")
	}
	if player.Connected() {
		t.Error("player still connected after the bot left voice")
	}
	if !backend.stopped {
		t.Error("detached backend was not stopped")
	}
	if _, ok := players.Lookup("g2"); ok {
		t.Error("lookup created a player for an unknown guild")
	}
}
