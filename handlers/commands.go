package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"trackbot/controller"
	"trackbot/discord"
	"trackbot/models"
	"trackbot/queue"
	"trackbot/sentryhelper"
)

const (
	defaultListLength = 10
	maxListLength     = 25
	maxEmbedText      = 4096
)

func (manager *Manager) commandTable() map[string]command {
	next := command{run: manager.handleNext, deferred: true}
	return map[string]command{
		"ping":        {run: manager.handlePing},
		"help":        {run: manager.handleHelp},
		"play":        {run: manager.handlePlay, deferred: true},
		"skip":        next,
		"next":        next,
		"previous":    {run: manager.handlePrevious, deferred: true},
		"skipto":      {run: manager.handleSkipTo, deferred: true},
		"shuffle":     {run: manager.handleShuffle},
		"repeat":      {run: manager.handleRepeat},
		"pause":       {run: manager.handlePause},
		"resume":      {run: manager.handleResume},
		"stop":        {run: manager.handleStop},
		"seek":        {run: manager.handleSeek, deferred: true},
		"restart":     {run: manager.handleRestart, deferred: true},
		"volume":      {run: manager.handleVolume},
		"eq":          {run: manager.handleEQ, deferred: true},
		"adveq":       {run: manager.handleAdvEQ, deferred: true},
		"queue":       {run: manager.handleQueue},
		"playing":     {run: manager.handlePlaying},
		"lyrics":      {run: manager.handleLyrics, deferred: true},
		"history":     {run: manager.handleHistory},
		"leaderboard": {run: manager.handleLeaderboard},
	}
}

func message(format string, args ...interface{}) reply {
	return reply{Content: fmt.Sprintf(format, args...)}
}

func failure(err error) reply {
	return reply{Content: errorMessage(err), Ephemeral: true}
}

func (manager *Manager) player(interaction *discordgo.Interaction) *controller.GuildPlayer {
	return manager.Controller.GetPlayer(interaction.GuildID)
}

// ensureConnected attaches a voice backend on first use. Joins for one
// guild are serialised; other guilds connect in parallel.
func (manager *Manager) ensureConnected(ctx context.Context, player *controller.GuildPlayer, userID string) error {
	if player.Connected() {
		return nil
	}

	lock := manager.connectLock(player.GuildID)
	lock.Lock()
	defer lock.Unlock()

	if player.Connected() {
		return nil
	}
	backend, err := manager.voice.Connect(ctx, player.GuildID, userID)
	if err != nil {
		return err
	}
	return player.Attach(ctx, backend)
}

func (manager *Manager) connectLock(guildID string) *sync.Mutex {
	manager.connectMutex.RLock()
	lock, ok := manager.connectLocks[guildID]
	manager.connectMutex.RUnlock()
	if ok {
		return lock
	}

	manager.connectMutex.Lock()
	defer manager.connectMutex.Unlock()
	if lock, ok := manager.connectLocks[guildID]; ok {
		return lock
	}
	lock = &sync.Mutex{}
	manager.connectLocks[guildID] = lock
	return lock
}

func (manager *Manager) handlePing(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	return message("Pong! 🏓")
}

func (manager *Manager) handleHelp(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	return message("**🎵 TrackBot Commands**\n\n" +
		"**`/play <song>`** add a song (search, YouTube, Spotify or Apple Music link); no song resumes\n" +
		"**`/skip`** play the next track\n" +
		"**`/previous`** play the previous track\n" +
		"**`/skipto <position>`** jump to a queue position\n" +
		"**`/shuffle`** shuffle the upcoming tracks\n" +
		"**`/repeat <none|1|all>`** set the repeat mode\n" +
		"**`/pause`**, **`/resume`**, **`/stop`**\n" +
		"**`/seek <time>`** jump within the track (1:30, 1m30s, 90)\n" +
		"**`/restart`** start the track over\n" +
		"**`/volume [level|up|down]`** show or change the volume\n" +
		"**`/eq <preset>`** " + strings.Join(controller.EQPresetNames(), ", ") + "\n" +
		"**`/adveq <band> <gain>`** set one of 15 bands (number or Hz) to -10..10 dB\n" +
		"**`/queue [show]`**, **`/playing`**, **`/lyrics [name]`**\n" +
		"**`/history`**, **`/leaderboard`**\n")
}

func (manager *Manager) handlePlay(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	player := manager.player(interaction)
	user := interactionUser(interaction)

	if err := manager.ensureConnected(ctx, player, user.ID); err != nil {
		return failure(err)
	}

	query := strings.TrimSpace(args["query"])
	if query == "" {
		if player.IsEmpty() {
			return failure(queue.ErrQueueEmpty)
		}
		if player.NowPlaying().Track == nil {
			return failure(controller.ErrNoMoreTracks)
		}
		err := player.Resume(ctx)
		if errors.Is(err, controller.ErrNotPaused) {
			err = player.StartPlayback(ctx)
		}
		if err != nil {
			return failure(err)
		}
		return message("Playback resumed.")
	}

	tracks, err := manager.searcher.Search(ctx, query)
	if err != nil {
		sentryhelper.AddBreadcrumb(ctx, "search", err.Error())
		return failure(err)
	}

	np := player.NowPlaying()
	idle := !np.Playing && !np.Paused

	added, err := player.AddTracks(ctx, controller.Requester{
		UserID:    user.ID,
		Username:  user.Username,
		ChannelID: interaction.ChannelID,
	}, tracks)
	if err != nil {
		return failure(err)
	}
	if added == nil {
		return reply{Content: "No track was chosen.", Ephemeral: true}
	}
	if idle {
		return message("**%s** comin right up", added.Title)
	}
	return message("**%s** has been added", added.Title)
}

func (manager *Manager) handleNext(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	track, err := manager.player(interaction).Next(ctx)
	if err != nil {
		return failure(err)
	}
	if track == nil {
		return failure(controller.ErrNoMoreTracks)
	}
	return message("Playing next track: **%s**", track.Title)
}

func (manager *Manager) handlePrevious(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if err := manager.player(interaction).Previous(ctx); err != nil {
		return failure(err)
	}
	return message("Playing previous track in queue.")
}

func (manager *Manager) handleSkipTo(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	index, err := strconv.Atoi(args["index"])
	if err != nil {
		return failure(controller.ErrIndexOutOfRange)
	}
	if err := manager.player(interaction).SkipTo(ctx, index); err != nil {
		return failure(err)
	}
	return message("Playing track in position %d.", index)
}

func (manager *Manager) handleShuffle(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if err := manager.player(interaction).Shuffle(ctx); err != nil {
		return failure(err)
	}
	return message("Queue shuffled.")
}

func (manager *Manager) handleRepeat(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	mode := args["mode"]
	if mode == "" {
		return reply{Content: "Please provide a repeat mode. " + repeatModes, Ephemeral: true}
	}
	if err := manager.player(interaction).SetRepeatMode(ctx, mode); err != nil {
		return failure(err)
	}
	return message("The repeat mode has been set to %s.", mode)
}

func (manager *Manager) handlePause(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if err := manager.player(interaction).Pause(ctx); err != nil {
		return failure(err)
	}
	return message("@%s paused the current song", interactionUser(interaction).Username)
}

func (manager *Manager) handleResume(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if err := manager.player(interaction).Resume(ctx); err != nil {
		return failure(err)
	}
	return message("@%s resumed the current song", interactionUser(interaction).Username)
}

func (manager *Manager) handleStop(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if err := manager.player(interaction).Stop(ctx); err != nil {
		return failure(err)
	}
	return message("Playback stopped.")
}

func (manager *Manager) handleSeek(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if err := manager.player(interaction).SeekString(ctx, args["position"]); err != nil {
		return failure(err)
	}
	return message("Seeked.")
}

func (manager *Manager) handleRestart(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if err := manager.player(interaction).Restart(ctx); err != nil {
		return failure(err)
	}
	return message("Track restarted.")
}

func (manager *Manager) handleVolume(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	player := manager.player(interaction)

	level := args["level"]
	if level == "" {
		level = args["subcommand"]
	}

	var (
		volume int
		err    error
	)
	switch strings.ToLower(level) {
	case "":
		return message("Volume is at %s%%", humanize.Comma(int64(player.Volume())))
	case "up":
		volume, err = player.VolumeUp(ctx)
	case "down":
		volume, err = player.VolumeDown(ctx)
	default:
		volume, err = strconv.Atoi(strings.TrimSuffix(level, "%"))
		if err != nil {
			return reply{Content: "The volume must be a number, 'up' or 'down'.", Ephemeral: true}
		}
		err = player.SetVolume(ctx, volume)
	}
	if err != nil {
		return failure(err)
	}
	return message("Volume set to %s%%", humanize.Comma(int64(volume)))
}

func (manager *Manager) handleEQ(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	preset := strings.ToLower(args["preset"])
	if err := manager.player(interaction).SetEQPreset(ctx, preset); err != nil {
		return failure(err)
	}
	return message("Equaliser adjusted to the %s preset.", preset)
}

func (manager *Manager) handleAdvEQ(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	band, err := strconv.Atoi(args["band"])
	if err != nil {
		return failure(controller.ErrNonExistentEQBand)
	}
	gain, err := strconv.ParseFloat(args["gain"], 64)
	if err != nil {
		return failure(controller.ErrEQGainOutOfBounds)
	}

	index, err := manager.player(interaction).SetEQBand(ctx, band, gain)
	if err != nil {
		return failure(err)
	}
	return message("Equaliser band %d (%d Hz) adjusted to %s dB.",
		index, controller.EQFrequencies[index-1], strconv.FormatFloat(gain, 'f', -1, 64))
}

func (manager *Manager) handleQueue(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	show := listLength(args["show"])
	view, err := manager.player(interaction).View(show)
	if err != nil {
		return failure(err)
	}
	return message("%s", formatQueue(view))
}

func formatQueue(view controller.QueueView) string {
	var b strings.Builder
	if view.Current != nil {
		fmt.Fprintf(&b, "**Now playing:** %s\n", view.Current.String())
	} else {
		b.WriteString("**Now playing:** nothing\n")
	}

	remaining := view.Length - view.Position - 1
	if view.Position < 0 {
		remaining = view.Length
	}
	if len(view.Upcoming) == 0 {
		b.WriteString("\nNo upcoming tracks.")
		return b.String()
	}

	b.WriteString("\n**Next up:**\n")
	for i, track := range view.Upcoming {
		fmt.Fprintf(&b, "%d. %s\n", view.Position+i+2, track.String())
	}
	if remaining > len(view.Upcoming) {
		fmt.Fprintf(&b, "\n*Showing %d of %d upcoming tracks*", len(view.Upcoming), remaining)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (manager *Manager) handlePlaying(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	np := manager.player(interaction).NowPlaying()
	if np.Track == nil {
		return failure(controller.ErrNothingPlaying)
	}
	return reply{
		Embeds:     []*discordgo.MessageEmbed{discord.BuildNowPlayingEmbed(np)},
		Components: discord.BuildPlaybackButtons(interaction.GuildID, np.Playing && !np.Paused),
	}
}

func (manager *Manager) handleLyrics(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if manager.lyrics == nil {
		return reply{Content: "Lyrics aren't available.", Ephemeral: true}
	}

	name := strings.TrimSpace(args["name"])
	if name == "" {
		np := manager.player(interaction).NowPlaying()
		if np.Track == nil {
			return failure(controller.ErrNothingPlaying)
		}
		name = np.Track.Title
	}

	found, err := manager.lyrics.Search(ctx, name)
	if err != nil {
		return failure(err)
	}

	text := found.Text
	if len(text) > maxEmbedText {
		text = text[:maxEmbedText-3] + "..."
	}
	title := found.Title
	if found.Artist != "" {
		title += " by " + found.Artist
	}
	return reply{Embeds: []*discordgo.MessageEmbed{{
		Title:       title,
		Description: text,
	}}}
}

func (manager *Manager) handleHistory(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if manager.history == nil {
		return reply{Content: "History isn't available.", Ephemeral: true}
	}
	records, err := manager.history.GetHistory(interaction.GuildID, listLength(args["show"]))
	if err != nil {
		sentryhelper.CaptureException(ctx, err)
		return failure(err)
	}
	if len(records) == 0 {
		return message("Nothing has been played yet.")
	}

	var b strings.Builder
	b.WriteString("**Recently played:**\n")
	for i, record := range records {
		fmt.Fprintf(&b, "%d. **%s** (%s) %s\n", i+1, record.Title,
			models.FormatDuration(record.Duration), humanize.Time(record.PlayedAt))
	}
	return message("%s", strings.TrimRight(b.String(), "\n"))
}

func (manager *Manager) handleLeaderboard(ctx context.Context, interaction *discordgo.Interaction, args map[string]string) reply {
	if manager.history == nil {
		return reply{Content: "History isn't available.", Ephemeral: true}
	}
	records, err := manager.history.GetMostPlayed(interaction.GuildID, listLength(args["show"]))
	if err != nil {
		sentryhelper.CaptureException(ctx, err)
		return failure(err)
	}
	if len(records) == 0 {
		return message("Nothing has been played yet.")
	}

	var b strings.Builder
	b.WriteString("**Most played:**\n")
	for i, record := range records {
		fmt.Fprintf(&b, "%d. **%s**: %s plays, last %s\n", i+1, record.Title,
			humanize.Comma(int64(record.PlayCount)), humanize.Time(record.LastPlayed))
	}
	return message("%s", strings.TrimRight(b.String(), "\n"))
}

func listLength(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultListLength
	}
	if n > maxListLength {
		return maxListLength
	}
	return n
}
