package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"trackbot/controller"
	"trackbot/models"
	"trackbot/youtube"
)

// ProgressBarWidth is the number of characters in the progress bar
const ProgressBarWidth = 15

const (
	colorPlaying = 0x1DB954
	colorPaused  = 0x808080
)

// BuildNowPlayingEmbed renders a player snapshot as a card.
func BuildNowPlayingEmbed(np controller.NowPlaying) *discordgo.MessageEmbed {
	if np.Track == nil {
		return &discordgo.MessageEmbed{
			Title: "Nothing is playing",
			Color: colorPaused,
		}
	}
	track := np.Track

	artist := track.Author
	if fromTitle := artistFromTitle(track.Title); fromTitle != "" {
		artist = fromTitle
	}

	color := colorPlaying
	status := "▶️ Playing"
	switch {
	case np.Paused:
		color = colorPaused
		status = "⏸️ Paused"
	case !np.Playing:
		color = colorPaused
		status = "⏹️ Idle"
	}

	embed := &discordgo.MessageEmbed{
		Title: track.Title,
		Color: color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: RenderProgressBar(time.Duration(np.PositionMs)*time.Millisecond, track.Duration, ProgressBarWidth),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Duration", Value: models.FormatDuration(track.Duration), Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", np.Volume), Inline: true},
			{Name: "Repeat", Value: np.RepeatMode.String(), Inline: true},
			{Name: "Status", Value: status, Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if artist != "" {
		embed.Description = fmt.Sprintf("**Artist:** %s", artist)
	}
	if strings.HasPrefix(track.SourceRef, "http") {
		embed.URL = track.SourceRef
	}
	if videoID := youtube.ParseYouTubeURL(track.SourceRef).VideoID; videoID != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL: fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID),
		}
	}
	return embed
}

// RenderProgressBar creates a Unicode progress bar
func RenderProgressBar(current, total time.Duration, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width) + " 0:00 / 0:00"
	}

	percentage := float64(current) / float64(total)
	if percentage > 1.0 {
		percentage = 1.0
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(percentage * float64(width))
	bar := strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s / %s", bar, models.FormatDuration(current), models.FormatDuration(total))
}

var titleSuffixes = []string{
	"(Official Video)", "(Official Music Video)", "(Official Audio)",
	"(Lyrics)", "(Lyric Video)", "(Audio)", "(Visualizer)",
	"[Official Video]", "[Official Music Video]", "[Official Audio]",
	"[Lyrics]", "[Lyric Video]", "[Audio]",
}

var featuring = []string{" ft.", " feat.", " ft ", " feat ", " featuring "}

// artistFromTitle reads the artist out of "Artist - Song" video titles.
// Returns "" when the title has no such prefix.
func artistFromTitle(title string) string {
	cleaned := title
	for _, suffix := range titleSuffixes {
		cleaned = strings.Replace(cleaned, suffix, "", 1)
	}

	artist, _, found := strings.Cut(strings.TrimSpace(cleaned), " - ")
	if !found {
		return ""
	}
	for _, feat := range featuring {
		if idx := strings.Index(strings.ToLower(artist), feat); idx != -1 {
			artist = artist[:idx]
		}
	}
	return strings.TrimSpace(artist)
}
