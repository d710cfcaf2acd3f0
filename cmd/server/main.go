package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/checkpoint"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/conversation"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/core"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/directory"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/lease"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/llm"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/server"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/tools"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
	pkgredis "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/redis"
)

// AppConfig defines all configurable parameters for the helpdesk server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	L1 llm.L1ModelConfig
	L2 llm.L2ModelConfig

	Workflow workflow.Config
	Server   server.Config
	Ticket   tools.TicketConfig
	Email    tools.EmailConfig
	Lease    lease.Config

	// Customer records database
	DirectoryPath string `envconfig:"DIRECTORY_DB_PATH" default:"data/helpdesk.db"`
	DirectorySeed bool   `envconfig:"DIRECTORY_SEED" default:"true"`

	// Checkpoint store: sqlite, redis or memory
	CheckpointBackend string        `envconfig:"CHECKPOINT_BACKEND" default:"sqlite"`
	CheckpointPath    string        `envconfig:"CHECKPOINT_DB_PATH" default:"data/checkpoints.db"`
	CheckpointTTL     time.Duration `envconfig:"CHECKPOINT_TTL" default:"0"`

	// Conversation log: redis or memory
	ConversationBackend string        `envconfig:"CONVERSATION_BACKEND" default:"redis"`
	ConversationTTL     time.Duration `envconfig:"CONVERSATION_TTL" default:"720h"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg AppConfig) error {
	// Redis is only dialed when a selected backend needs it.
	var rdb interface {
		Close() error
	}
	needRedis := cfg.ConversationBackend == "redis" || cfg.CheckpointBackend == "redis"

	var (
		conversations workflow.ConversationLog
		checkpoints   checkpoint.Store
		engineOpts    []workflow.EngineOption
	)

	if needRedis {
		var rcfg pkgredis.Config
		if err := envconfig.Process("REDIS", &rcfg); err != nil {
			return fmt.Errorf("process redis config: %w", err)
		}
		client, err := rcfg.New()
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		rdb = client
		logx.Info().Msg("connected to redis")

		if cfg.ConversationBackend == "redis" {
			conversations = conversation.NewRedisStore(client, cfg.ConversationTTL)
		}
		if cfg.CheckpointBackend == "redis" {
			checkpoints = checkpoint.NewRedisStore(client, cfg.CheckpointTTL)
			// With a shared checkpoint store, per-thread serialization must
			// hold across instances, not just within this process.
			engineOpts = append(engineOpts, workflow.WithThreadLease(lease.NewRedisLease(client, cfg.Lease)))
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	switch cfg.ConversationBackend {
	case "redis":
		// wired above
	case "memory":
		conversations = conversation.NewMemoryStore()
	default:
		return fmt.Errorf("unknown conversation backend %q", cfg.ConversationBackend)
	}

	switch cfg.CheckpointBackend {
	case "redis":
		// wired above
	case "sqlite":
		store, err := checkpoint.NewSQLiteStore(cfg.CheckpointPath)
		if err != nil {
			return fmt.Errorf("open checkpoint store: %w", err)
		}
		checkpoints = store
	case "memory":
		checkpoints = checkpoint.NewMemoryStore()
	default:
		return fmt.Errorf("unknown checkpoint backend %q", cfg.CheckpointBackend)
	}
	defer checkpoints.Close()

	dir, err := directory.Open(cfg.DirectoryPath)
	if err != nil {
		return err
	}
	defer dir.Close()
	if cfg.DirectorySeed {
		if err := dir.Seed(ctx); err != nil {
			return fmt.Errorf("seed directory: %w", err)
		}
	}

	registry := tools.NewSupportRegistry(
		dir,
		tools.NewTicketClient(cfg.Ticket),
		tools.NewEmailSender(cfg.Email),
	)

	models, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		L1:      &cfg.L1,
		L2:      &cfg.L2,
	})
	if err != nil {
		return err
	}
	if err := models.BindToolsToL2Model(registry.ToolInfos()); err != nil {
		return err
	}

	engine := workflow.NewEngine(
		llm.NewGeminiReasoner(models),
		registry,
		checkpoints,
		conversations,
		cfg.Workflow,
		engineOpts...,
	)

	srv := server.NewServer(engine, cfg.Server)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(gctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logx.Info().Msg("server stopped")
	return nil
}
