package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/quorumhub/quorum-gateway/internal/agent"
	"github.com/quorumhub/quorum-gateway/internal/channel"
	"github.com/quorumhub/quorum-gateway/internal/channel/discord"
	"github.com/quorumhub/quorum-gateway/internal/channel/telegram"
	"github.com/quorumhub/quorum-gateway/internal/channel/webchat"
	"github.com/quorumhub/quorum-gateway/internal/config"
	"github.com/quorumhub/quorum-gateway/internal/creative"
	"github.com/quorumhub/quorum-gateway/internal/events"
	"github.com/quorumhub/quorum-gateway/internal/fastpath"
	"github.com/quorumhub/quorum-gateway/internal/logging"
	"github.com/quorumhub/quorum-gateway/internal/orchestrator"
	"github.com/quorumhub/quorum-gateway/internal/provider"
	"github.com/quorumhub/quorum-gateway/internal/retrieval"
	"github.com/quorumhub/quorum-gateway/internal/scheduler"
	"github.com/quorumhub/quorum-gateway/internal/server"
	"github.com/quorumhub/quorum-gateway/internal/store"
	"github.com/quorumhub/quorum-gateway/internal/tui"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	chatMode := flag.Bool("chat", false, "Run the local chat console instead of the server")
	flag.Parse()

	godotenv.Load()

	logger := logging.WithComponent("main")
	logger.Info("Starting Quorum-Gateway", "version", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		logger.Error("Failed to open conversation store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	registry := provider.NewRegistry(cfg, logging.WithComponent("provider"))
	resolver := fastpath.NewResolver(fastpath.NewMemory(0))

	index, err := retrieval.NewFileIndex(cfg.Retrieval.DataDir)
	if err != nil {
		logger.Error("Failed to build retrieval index", "error", err)
		os.Exit(1)
	}

	var stream *events.Stream
	if cfg.Redis.Addr != "" {
		stream, err = events.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			cfg.Redis.Stream, logging.WithComponent("events"))
		if err != nil {
			logger.Warn("Redis unavailable, exchange stream disabled", "error", err)
		} else {
			defer stream.Close()
		}
	}

	orch := orchestrator.New(orchestrator.Deps{
		Registry: registry,
		Resolver: resolver,
		Store:    st,
		Index:    index,
		Events:   stream,
		Config:   cfg,
		Logger:   logging.WithComponent("orchestrator"),
	})

	if *chatMode {
		if err := tui.NewChat(orch).Run(); err != nil {
			logger.Error("Chat console failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sampler := creative.New(registry, orch, cfg, logging.WithComponent("creative"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(st, orch, cfg, logging.WithComponent("scheduler"))
		if err != nil {
			logger.Error("Failed to create scheduler", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	var adapters []channel.Adapter
	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token != "" {
		adapters = append(adapters, telegram.New(cfg.Channels.Telegram.Token))
	}
	if cfg.Channels.Discord.Enabled && cfg.Channels.Discord.Token != "" {
		adapters = append(adapters, discord.New(cfg.Channels.Discord.Token))
	}
	if cfg.Channels.WebChat.Enabled {
		adapters = append(adapters, webchat.New(cfg.Channels.WebChat.Port, logging.WithComponent("webchat")))
	}
	if len(adapters) > 0 {
		loop := agent.New(orch, adapters, logging.WithComponent("agent"))
		go func() {
			if err := loop.Run(ctx); err != nil {
				logger.Error("Agent loop failed", "error", err)
			}
		}()
	}

	srv := server.New(cfg, orch, sampler, registry, st, logging.WithComponent("server"))
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Shutdown complete")
}
