package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"trackbot/controller"
	"trackbot/models"
)

// NumberEmoji are the reactions offered on a chooser prompt, one per candidate.
var NumberEmoji = [controller.MaxChoices]string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣"}

type chooserSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID string, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID string, messageID string, emojiID string, options ...discordgo.RequestOption) error
}

type pendingChoice struct {
	userID  string
	options int
	picks   chan int
}

// ReactionChooser posts the candidates to the requester's channel and waits
// for the requester to react with one of the number emoji.
type ReactionChooser struct {
	session chooserSession
	pending map[string]*pendingChoice
	mutex   sync.Mutex
	logger  *log.Entry
}

func NewReactionChooser(session *discordgo.Session) *ReactionChooser {
	c := newReactionChooser(session)
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		c.handleReaction(r)
	})
	return c
}

func newReactionChooser(session chooserSession) *ReactionChooser {
	return &ReactionChooser{
		session: session,
		pending: make(map[string]*pendingChoice),
		logger:  log.WithFields(log.Fields{"module": "chooser"}),
	}
}

// Choose blocks until the requester picks or ctx ends. A deadline yields
// nil with no error.
func (c *ReactionChooser) Choose(ctx context.Context, requester controller.Requester, candidates []models.Track) (*models.Track, error) {
	if len(candidates) > len(NumberEmoji) {
		candidates = candidates[:len(NumberEmoji)]
	}

	msg, err := c.session.ChannelMessageSend(requester.ChannelID, FormatChoices(requester, candidates))
	if err != nil {
		return nil, fmt.Errorf("error sending chooser prompt: %w", err)
	}
	defer func() {
		if err := c.session.ChannelMessageDelete(msg.ChannelID, msg.ID); err != nil {
			c.logger.Warnf("failed to delete chooser prompt %s: %v", msg.ID, err)
		}
	}()

	pending := &pendingChoice{
		userID:  requester.UserID,
		options: len(candidates),
		picks:   make(chan int, 1),
	}
	c.mutex.Lock()
	c.pending[msg.ID] = pending
	c.mutex.Unlock()
	defer func() {
		c.mutex.Lock()
		delete(c.pending, msg.ID)
		c.mutex.Unlock()
	}()

	for i := range candidates {
		if err := c.session.MessageReactionAdd(msg.ChannelID, msg.ID, NumberEmoji[i]); err != nil {
			c.logger.Warnf("failed to add reaction %d: %v", i+1, err)
		}
	}

	select {
	case index := <-pending.picks:
		choice := candidates[index]
		c.logger.Tracef("%s chose %s", requester.UserID, choice.Title)
		return &choice, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, ctx.Err()
	}
}

func (c *ReactionChooser) handleReaction(r *discordgo.MessageReactionAdd) {
	if r == nil || r.MessageReaction == nil {
		return
	}

	c.mutex.Lock()
	pending, ok := c.pending[r.MessageID]
	c.mutex.Unlock()
	if !ok || r.UserID != pending.userID {
		return
	}

	index := emojiIndex(r.Emoji.Name)
	if index < 0 || index >= pending.options {
		return
	}

	select {
	case pending.picks <- index:
	default:
	}
}

func emojiIndex(name string) int {
	for i, emoji := range NumberEmoji {
		if emoji == name {
			return i
		}
	}
	return -1
}

// FormatChoices renders the numbered prompt shown to the requester.
func FormatChoices(requester controller.Requester, candidates []models.Track) string {
	var b strings.Builder
	if requester.UserID != "" {
		fmt.Fprintf(&b, "<@%s> pick a track:\n", requester.UserID)
	} else {
		b.WriteString("Pick a track:\n")
	}
	for i, track := range candidates {
		fmt.Fprintf(&b, "%s **%s**", NumberEmoji[i], track.String())
		if track.Author != "" {
			fmt.Fprintf(&b, " by %s", track.Author)
		}
		b.WriteString("\n")
	}
	return b.String()
}
