package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Button actions carried in "np:action:guildID" custom IDs.
const (
	ActionPrevious  = "prev"
	ActionPlayPause = "playpause"
	ActionSkip      = "skip"
	ActionStop      = "stop"
	ActionVolDown   = "voldown"
	ActionVolUp     = "volup"
	ActionQueue     = "queue"
	ActionShuffle   = "shuffle"
)

// ParseButtonCustomID extracts action and guildID from button custom ID
// Format: "np:action:guildID"
func ParseButtonCustomID(customID string) (action, guildID string, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != "np" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func buttonCustomID(action, guildID string) string {
	return "np:" + action + ":" + guildID
}

func getPlayPauseEmoji(isPlaying bool) string {
	if isPlaying {
		return "⏸️"
	}
	return "▶️"
}

// BuildPlaybackButtons returns the transport and volume rows attached to a
// now-playing card.
func BuildPlaybackButtons(guildID string, isPlaying bool) []discordgo.MessageComponent {
	button := func(action, emoji, label string, style discordgo.ButtonStyle) discordgo.Button {
		return discordgo.Button{
			CustomID: buttonCustomID(action, guildID),
			Emoji:    &discordgo.ComponentEmoji{Name: emoji},
			Label:    label,
			Style:    style,
		}
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button(ActionPrevious, "⏮️", "", discordgo.SecondaryButton),
			button(ActionPlayPause, getPlayPauseEmoji(isPlaying), "", discordgo.PrimaryButton),
			button(ActionSkip, "⏭️", "", discordgo.SecondaryButton),
			button(ActionStop, "⏹️", "", discordgo.DangerButton),
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button(ActionVolDown, "🔉", "Vol -", discordgo.SecondaryButton),
			button(ActionVolUp, "🔊", "Vol +", discordgo.SecondaryButton),
			button(ActionQueue, "📜", "Queue", discordgo.SecondaryButton),
			button(ActionShuffle, "🔀", "Shuffle", discordgo.SecondaryButton),
		}},
	}
}
