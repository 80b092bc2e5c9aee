package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"trackbot/audio"
	"trackbot/controller"
)

var ErrNotInVoiceChannel = errors.New("user is not in a voice channel")

// FindUserVoiceChannel returns the voice channel the user is connected to,
// reading the gateway state cache.
func FindUserVoiceChannel(session *discordgo.Session, guildID string, userID string) (string, error) {
	guild, err := session.State.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("error retrieving guild: %w", err)
	}
	return voiceChannelOf(guild.VoiceStates, userID)
}

func voiceChannelOf(states []*discordgo.VoiceState, userID string) (string, error) {
	for _, vs := range states {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", ErrNotInVoiceChannel
}

// JoinVoiceChannel connects deafened; an existing connection in the guild
// is moved to channelID.
func JoinVoiceChannel(session *discordgo.Session, guildID string, channelID string) (*discordgo.VoiceConnection, error) {
	vc, err := session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("error joining voice channel: %w", err)
	}
	log.WithFields(log.Fields{
		"module":    "discord",
		"guildID":   guildID,
		"channelID": channelID,
	}).Debug("joined voice channel")
	return vc, nil
}

// VoiceConnector joins the requester's voice channel and wraps the
// connection in an audio player.
type VoiceConnector struct {
	session *discordgo.Session
	loader  audio.StreamLoader
	bitrate int
}

func NewVoiceConnector(session *discordgo.Session, loader audio.StreamLoader, bitrate int) *VoiceConnector {
	return &VoiceConnector{session: session, loader: loader, bitrate: bitrate}
}

func (v *VoiceConnector) Connect(ctx context.Context, guildID string, userID string) (controller.Backend, error) {
	channelID, err := FindUserVoiceChannel(v.session, guildID, userID)
	if err != nil {
		return nil, err
	}
	vc, err := JoinVoiceChannel(v.session, guildID, channelID)
	if err != nil {
		sentry.CaptureException(err)
		return nil, err
	}
	player, err := audio.NewPlayer(vc, v.loader, v.bitrate)
	if err != nil {
		vc.Close()
		return nil, fmt.Errorf("error creating audio player: %w", err)
	}
	return player, nil
}

// PlayerLookup finds an existing guild player without creating one.
type PlayerLookup interface {
	Lookup(guildID string) (*controller.GuildPlayer, bool)
}

// WatchVoiceDisconnects detaches a guild's backend when the bot itself is
// disconnected from voice (kicked, channel deleted, or moved out).
func WatchVoiceDisconnects(session *discordgo.Session, players PlayerLookup) {
	session.AddHandler(func(s *discordgo.Session, update *discordgo.VoiceStateUpdate) {
		if s.State == nil || s.State.User == nil {
			return
		}
		detachOnDisconnect(s.State.User.ID, players, update)
	})
}

func detachOnDisconnect(botID string, players PlayerLookup, update *discordgo.VoiceStateUpdate) bool {
	if update == nil || update.VoiceState == nil {
		return false
	}
	if update.UserID != botID || update.ChannelID != "" {
		return false
	}
	player, ok := players.Lookup(update.GuildID)
	if !ok {
		return false
	}
	log.WithFields(log.Fields{
		"module":  "discord",
		"guildID": update.GuildID,
	}).Info("disconnected from voice, detaching player")
	player.Detach()
	return true
}
