// Package discord is the Discord channel adapter. It answers direct
// messages and guild messages that mention the bot.
package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/quorumhub/quorum-gateway/internal/channel"
)

// Adapter bridges Discord into the gateway
type Adapter struct {
	token    string
	session  *discordgo.Session
	incoming chan *channel.Message
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Discord adapter; it connects on Start
func New(token string) *Adapter {
	return &Adapter{
		token:    token,
		incoming: make(chan *channel.Message, 100),
		done:     make(chan struct{}),
	}
}

func (a *Adapter) Name() string {
	return "discord"
}

func (a *Adapter) Enabled() bool {
	return a.token != ""
}

// Start opens the gateway session and registers the message handler
func (a *Adapter) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + a.token)
	if err != nil {
		return err
	}
	a.session = session

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author.Bot {
			return
		}
		// guild chatter is ignored unless the bot is mentioned
		if m.GuildID != "" && !mentioned(s.State.User.ID, m.Mentions) {
			return
		}
		a.deliver(&channel.Message{
			ID:      m.ID,
			Channel: "discord",
			UserID:  m.Author.ID,
			Content: m.Content,
			Metadata: map[string]string{
				"guild_id":    m.GuildID,
				"channel_id":  m.ChannelID,
				"author_name": m.Author.Username,
			},
			Timestamp: m.Timestamp.Unix(),
		})
	})

	if err := session.Open(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		session.Close()
	}()
	return nil
}

// Stop closes the gateway session. The incoming channel stays open so a
// handler still running can never hit a closed channel; readers stop via
// their own context.
func (a *Adapter) Stop() error {
	if a.session != nil {
		a.session.Close()
	}
	a.stopOnce.Do(func() { close(a.done) })
	return nil
}

// deliver enqueues a message unless the adapter has been stopped
func (a *Adapter) deliver(msg *channel.Message) bool {
	select {
	case <-a.done:
		return false
	case a.incoming <- msg:
		return true
	}
}

// Send delivers a response over a direct message channel
func (a *Adapter) Send(userID string, resp *channel.Response) error {
	ch, err := a.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = a.session.ChannelMessageSend(ch.ID, resp.Content)
	return err
}

func (a *Adapter) Incoming() <-chan *channel.Message {
	return a.incoming
}

func mentioned(botID string, mentions []*discordgo.User) bool {
	for _, m := range mentions {
		if m.ID == botID {
			return true
		}
	}
	return false
}
