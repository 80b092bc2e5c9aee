package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// NewSession opens the gateway connection used for voice, chooser prompts
// and reactions. Slash commands arrive over HTTP, not the gateway.
func NewSession(botToken string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("error opening Discord session: %w", err)
	}
	log.WithField("module", "discord").Info("gateway session opened")
	return session, nil
}
