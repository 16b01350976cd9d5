// Package agent fans in messages from every enabled channel adapter and
// answers them through the orchestrator, one session per channel user.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quorumhub/quorum-gateway/internal/channel"
	"github.com/quorumhub/quorum-gateway/internal/orchestrator"
)

// Loop routes channel messages to the orchestrator and replies
type Loop struct {
	orch     *orchestrator.Orchestrator
	adapters []channel.Adapter
	logger   *slog.Logger
}

// New creates the agent loop over the enabled adapters
func New(orch *orchestrator.Orchestrator, adapters []channel.Adapter, logger *slog.Logger) *Loop {
	return &Loop{orch: orch, adapters: adapters, logger: logger}
}

// Run starts every adapter and processes messages until the context ends.
// Each adapter gets its own reader goroutine; answers are produced inline
// so one user's slow question does not reorder their conversation.
func (l *Loop) Run(ctx context.Context) error {
	for _, a := range l.adapters {
		if err := a.Start(ctx); err != nil {
			return fmt.Errorf("failed to start %s adapter: %w", a.Name(), err)
		}
		l.logger.Info("Channel adapter started", "channel", a.Name())

		go func(a channel.Adapter) {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-a.Incoming():
					if !ok {
						return
					}
					l.handle(ctx, a, msg)
				}
			}
		}(a)
	}

	<-ctx.Done()
	for _, a := range l.adapters {
		if err := a.Stop(); err != nil {
			l.logger.Warn("Channel adapter stop failed", "channel", a.Name(), "error", err)
		}
	}
	return nil
}

// handle answers one message. The session key pins each channel user to
// their own conversation history.
func (l *Loop) handle(ctx context.Context, a channel.Adapter, msg *channel.Message) {
	res, err := l.orch.Ask(ctx, orchestrator.AskRequest{
		Question:  msg.Content,
		SessionID: fmt.Sprintf("%s:%s", msg.Channel, msg.UserID),
	})

	var content string
	if err != nil {
		l.logger.Warn("Channel ask failed", "channel", msg.Channel, "error", err)
		content = "Sorry, I could not process that."
	} else {
		content = res.Answer
	}

	if err := a.Send(msg.UserID, &channel.Response{Content: content}); err != nil {
		l.logger.Warn("Channel send failed", "channel", msg.Channel, "error", err)
	}
}
