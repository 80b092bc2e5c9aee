package discord

import (
	"github.com/bwmarrin/discordgo"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

type FollowUpRequest struct {
	Token      string
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Ephemeral  bool
}

// Followups posts interaction followup messages for one application.
type Followups struct {
	session *discordgo.Session
	appID   string
}

func NewFollowups(session *discordgo.Session, appID string) *Followups {
	return &Followups{session: session, appID: appID}
}

func (f *Followups) SendFollowup(request *FollowUpRequest) {
	params := &discordgo.WebhookParams{
		Content:    request.Content,
		Embeds:     request.Embeds,
		Components: request.Components,
	}
	if request.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}

	interaction := &discordgo.Interaction{AppID: f.appID, Token: request.Token}
	if _, err := f.session.FollowupMessageCreate(interaction, false, params); err != nil {
		sentry.CaptureException(err)
		log.WithField("module", "discord").Errorf("Error sending followup: %v", err)
	}
}
