// Package telegram is the Telegram channel adapter, built on long polling.
package telegram

import (
	"context"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/quorumhub/quorum-gateway/internal/channel"
)

// Adapter bridges Telegram chats into the gateway
type Adapter struct {
	bot      *tgbotapi.BotAPI
	token    string
	incoming chan *channel.Message
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Telegram adapter; it connects on Start
func New(token string) *Adapter {
	return &Adapter{
		token:    token,
		incoming: make(chan *channel.Message, 100),
		done:     make(chan struct{}),
	}
}

func (a *Adapter) Name() string {
	return "telegram"
}

func (a *Adapter) Enabled() bool {
	return a.token != ""
}

// Start authenticates and begins long polling for updates
func (a *Adapter) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(a.token)
	if err != nil {
		return err
	}
	a.bot = bot

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.bot.GetUpdatesChan(u)

	go func() {
		for update := range updates {
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			ok := a.deliver(&channel.Message{
				ID:        strconv.Itoa(update.Message.MessageID),
				Channel:   "telegram",
				UserID:    strconv.FormatInt(update.Message.Chat.ID, 10),
				Content:   update.Message.Text,
				Metadata:  map[string]string{"from_id": strconv.FormatInt(update.Message.From.ID, 10)},
				Timestamp: int64(update.Message.Date),
			})
			if !ok {
				return
			}
		}
	}()
	return nil
}

// Stop ends long polling. The incoming channel stays open so an update
// still in flight can never hit a closed channel; readers stop via
// their own context.
func (a *Adapter) Stop() error {
	if a.bot != nil {
		a.bot.StopReceivingUpdates()
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

// Send replies to the chat identified by userID
func (a *Adapter) Send(userID string, resp *channel.Response) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	_, err = a.bot.Send(tgbotapi.NewMessage(chatID, resp.Content))
	return err
}

func (a *Adapter) Incoming() <-chan *channel.Message {
	return a.incoming
}
