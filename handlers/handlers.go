package handlers

// handlers are the functions that handle the interactions from discord
// they are responsible for parsing the interaction, verifying the request,
// and turning each command into calls on the guild's player.

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"trackbot/controller"
	"trackbot/database"
	"trackbot/discord"
	"trackbot/lyrics"
	"trackbot/sentryhelper"
)

// VoiceConnector joins the requester's voice channel and returns a backend
// playing into it.
type VoiceConnector interface {
	Connect(ctx context.Context, guildID string, userID string) (controller.Backend, error)
}

type Followups interface {
	SendFollowup(request *discord.FollowUpRequest)
}

type LyricsSearcher interface {
	Search(ctx context.Context, query string) (*lyrics.Lyrics, error)
}

type HistoryStore interface {
	GetHistory(guildID string, limit int) ([]database.HistoryRecord, error)
	GetMostPlayed(guildID string, limit int) ([]database.MostPlayedRecord, error)
}

type Dependencies struct {
	Searcher  controller.Searcher
	Voice     VoiceConnector
	Followups Followups
	Lyrics    LyricsSearcher
	History   HistoryStore
	Limiter   *CommandLimiter
}

type Manager struct {
	AppID      string
	PublicKey  string
	Controller *controller.Controller

	searcher  controller.Searcher
	voice     VoiceConnector
	followups Followups
	lyrics    LyricsSearcher
	history   HistoryStore
	limiter   *CommandLimiter
	commands  map[string]command
	logger    *log.Entry

	connectLocks map[string]*sync.Mutex
	connectMutex sync.RWMutex
}

// reply is what a command produces; HandleInteraction turns it into either
// the interaction response or a followup.
type reply struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Ephemeral  bool
}

type command struct {
	run func(ctx context.Context, i *discordgo.Interaction, args map[string]string) reply
	// deferred commands may start a stream, which can outlast Discord's
	// three second response window.
	deferred bool
}

func NewManager(appID string, publicKey string, controller *controller.Controller, deps Dependencies) *Manager {
	if publicKey == "" {
		log.Fatal("DISCORD_PUBLIC_KEY must be set")
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = NewCommandLimiter(DefaultCommandRate, DefaultCommandBurst)
	}

	manager := &Manager{
		AppID:        appID,
		PublicKey:    publicKey,
		Controller:   controller,
		searcher:     deps.Searcher,
		voice:        deps.Voice,
		followups:    deps.Followups,
		lyrics:       deps.Lyrics,
		history:      deps.History,
		limiter:      limiter,
		connectLocks: make(map[string]*sync.Mutex),
		logger:       log.WithFields(log.Fields{"module": "handlers"}),
	}
	manager.commands = manager.commandTable()
	return manager
}

func (manager *Manager) ParseInteraction(body []byte) (*discordgo.Interaction, error) {
	var interaction discordgo.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		manager.logger.Errorf("Error unmarshalling interaction: %v", err)
		return nil, err
	}
	return &interaction, nil
}

func (manager *Manager) HandleInteraction(ctx context.Context, interaction *discordgo.Interaction) (response *discordgo.InteractionResponse) {
	// Defer a recover function that will catch any panics
	defer func() {
		if err := recover(); err != nil {
			manager.logger.Errorf("Panic in command handling: %v", err)
			response = toResponse(reply{
				Content:   "An error occurred while processing your command",
				Ephemeral: true,
			})
		}
	}()

	switch interaction.Type {
	case discordgo.InteractionPing:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
	case discordgo.InteractionApplicationCommand:
		data := interaction.ApplicationCommandData()
		return manager.dispatch(ctx, interaction, data.Name, optionArgs(data.Options))
	case discordgo.InteractionMessageComponent:
		return manager.handleButton(ctx, interaction)
	default:
		return toResponse(reply{
			Content:   "Sorry, I don't know how to handle this type of interaction",
			Ephemeral: true,
		})
	}
}

func (manager *Manager) dispatch(ctx context.Context, interaction *discordgo.Interaction, name string, args map[string]string) *discordgo.InteractionResponse {
	user := interactionUser(interaction)
	logger := manager.logger.WithFields(log.Fields{
		"command": name,
		"guildID": interaction.GuildID,
		"userID":  user.ID,
	})
	logger.Debug("received command")

	cmd, ok := manager.commands[name]
	if !ok {
		return toResponse(reply{
			Content:   "Sorry, I don't know how to handle this command",
			Ephemeral: true,
		})
	}
	if interaction.GuildID == "" && name != "ping" && name != "help" {
		return toResponse(reply{Content: "Commands only work inside a server", Ephemeral: true})
	}
	if !manager.limiter.Allow(interaction.GuildID, user.ID) {
		logger.Warn("rate limited")
		return toResponse(reply{Content: "Slow down! Try again in a moment.", Ephemeral: true})
	}

	ctx, transaction := sentryhelper.StartCommandTransaction(ctx, name, interaction.GuildID, user.ID)
	defer transaction.Finish()
	sentryhelper.AddBreadcrumb(ctx, "command", fmt.Sprintf("/%s %v", name, args))

	if !cmd.deferred {
		return toResponse(cmd.run(ctx, interaction, args))
	}

	detached := sentryhelper.DetachFromTransaction(ctx)
	go func() {
		r := cmd.run(detached, interaction, args)
		manager.followups.SendFollowup(&discord.FollowUpRequest{
			Token:      interaction.Token,
			Content:    r.Content,
			Embeds:     r.Embeds,
			Components: r.Components,
			Ephemeral:  r.Ephemeral,
		})
	}()
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
}

func (manager *Manager) handleButton(ctx context.Context, interaction *discordgo.Interaction) *discordgo.InteractionResponse {
	action, guildID, ok := discord.ParseButtonCustomID(interaction.MessageComponentData().CustomID)
	if !ok || guildID != interaction.GuildID {
		return toResponse(reply{Content: "That button has expired", Ephemeral: true})
	}

	name, args := buttonCommand(action, manager.Controller.GetPlayer(guildID).NowPlaying().Paused)
	if name == "" {
		return toResponse(reply{Content: "That button has expired", Ephemeral: true})
	}
	return manager.dispatch(ctx, interaction, name, args)
}

func buttonCommand(action string, paused bool) (string, map[string]string) {
	switch action {
	case discord.ActionPrevious:
		return "previous", nil
	case discord.ActionPlayPause:
		if paused {
			return "resume", nil
		}
		return "pause", nil
	case discord.ActionSkip:
		return "skip", nil
	case discord.ActionStop:
		return "stop", nil
	case discord.ActionVolDown:
		return "volume", map[string]string{"level": "down"}
	case discord.ActionVolUp:
		return "volume", map[string]string{"level": "up"}
	case discord.ActionQueue:
		return "queue", nil
	case discord.ActionShuffle:
		return "shuffle", nil
	}
	return "", nil
}

func (manager *Manager) VerifyDiscordRequest(signature, timestamp string, body []byte) bool {
	pubKeyBytes, err := hex.DecodeString(manager.PublicKey)
	if err != nil || len(pubKeyBytes) != ed25519.PublicKeySize {
		manager.logger.Errorf("Error decoding public key: %v", err)
		return false
	}

	signatureBytes, err := hex.DecodeString(signature)
	if err != nil {
		manager.logger.Debugf("Error decoding signature: %v", err)
		return false
	}

	message := []byte(timestamp + string(body))
	return ed25519.Verify(pubKeyBytes, message, signatureBytes)
}

func toResponse(r reply) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{
		Content:    r.Content,
		Embeds:     r.Embeds,
		Components: r.Components,
	}
	if r.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

func interactionUser(interaction *discordgo.Interaction) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	if interaction.User != nil {
		return interaction.User
	}
	return &discordgo.User{}
}

// optionArgs flattens options (and one level of subcommand) into name/value
// strings. Numbers arrive as float64 and print without a trailing ".0".
func optionArgs(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	args := make(map[string]string, len(options))
	for _, option := range options {
		if option == nil {
			continue
		}
		if option.Type == discordgo.ApplicationCommandOptionSubCommand {
			args["subcommand"] = option.Name
			for name, value := range optionArgs(option.Options) {
				args[name] = value
			}
			continue
		}
		if option.Value != nil {
			args[option.Name] = fmt.Sprint(option.Value)
		}
	}
	return args
}
