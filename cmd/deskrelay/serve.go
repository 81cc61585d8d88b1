package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskrelay/deskrelay/internal/ai"
	"github.com/deskrelay/deskrelay/internal/channel"
	"github.com/deskrelay/deskrelay/internal/channel/adapters/avito"
	"github.com/deskrelay/deskrelay/internal/channel/adapters/max"
	"github.com/deskrelay/deskrelay/internal/channel/adapters/telegram"
	"github.com/deskrelay/deskrelay/internal/channel/adapters/webchat"
	"github.com/deskrelay/deskrelay/internal/channel/adapters/whatsapp"
	"github.com/deskrelay/deskrelay/internal/config"
	"github.com/deskrelay/deskrelay/internal/crm"
	"github.com/deskrelay/deskrelay/internal/db"
	dbsqlc "github.com/deskrelay/deskrelay/internal/db/sqlc"
	"github.com/deskrelay/deskrelay/internal/diagnostics"
	"github.com/deskrelay/deskrelay/internal/dialog"
	"github.com/deskrelay/deskrelay/internal/handlers"
	"github.com/deskrelay/deskrelay/internal/knowledge"
	"github.com/deskrelay/deskrelay/internal/logger"
	"github.com/deskrelay/deskrelay/internal/server"
	"github.com/deskrelay/deskrelay/internal/ws"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			ws.NewHub,
			provideChannelRegistry,
			diagnostics.NewService,
			provideRetention,
			provideDispatcher,
			provideLLM,
			provideEmbedder,
			provideKnowledgeStore,
			provideKnowledgeService,
			provideAIService,
			provideCRM,
			provideDialogService,
			handlers.NewPingHandler,
			provideAuthHandler,
			handlers.NewBotsHandler,
			provideChannelsHandler,
			handlers.NewDialogsHandler,
			handlers.NewKnowledgeHandler,
			handlers.NewDiagnosticsHandler,
			handlers.NewWebhookHandler,
			provideWebchatHandler,
			handlers.NewEventsHandler,
			provideServer,
		),
		fx.Invoke(
			ensureAdminAccount,
			startRetention,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries { return dbsqlc.New(conn) }

func provideChannelRegistry(log *slog.Logger, hub *ws.Hub) *channel.Registry {
	registry := channel.NewRegistry()
	registry.MustRegister(telegram.New(log))
	registry.MustRegister(whatsapp.NewGreen(log))
	registry.MustRegister(whatsapp.NewD360(log))
	registry.MustRegister(whatsapp.NewCustom(log))
	registry.MustRegister(avito.New(log))
	registry.MustRegister(max.New(log))
	registry.MustRegister(webchat.New(log, hub))
	return registry
}

func provideDispatcher(log *slog.Logger, registry *channel.Registry, diagnosticsService *diagnostics.Service) *channel.Dispatcher {
	return channel.NewDispatcher(log, registry, diagnosticsService)
}

func provideLLM(log *slog.Logger, cfg config.Config) *ai.Client {
	return ai.NewClient(log, cfg.LLM)
}

func provideEmbedder(log *slog.Logger, cfg config.Config) *ai.EmbeddingClient {
	return ai.NewEmbeddingClient(log, cfg.Embeddings)
}

func provideKnowledgeStore(log *slog.Logger, cfg config.Config) (*knowledge.Store, error) {
	store, err := knowledge.NewStore(context.Background(), log, cfg.Qdrant, cfg.Embeddings.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("qdrant init: %w", err)
	}
	return store, nil
}

func provideKnowledgeService(log *slog.Logger, queries *dbsqlc.Queries, store *knowledge.Store, embedder *ai.EmbeddingClient) *knowledge.Service {
	return knowledge.NewService(log, queries, store, embedder)
}

func provideAIService(log *slog.Logger, llm *ai.Client, embedder *ai.EmbeddingClient, knowledgeService *knowledge.Service) *ai.Service {
	return ai.NewService(log, llm, embedder, knowledgeService)
}

func provideCRM(log *slog.Logger, cfg config.Config) *crm.Client {
	return crm.NewClient(log, cfg.CRM.WebhookURL)
}

func provideRetention(log *slog.Logger, cfg config.Config, diagnosticsService *diagnostics.Service) *diagnostics.Retention {
	return diagnostics.NewRetention(log, diagnosticsService, cfg.Diagnostics.RetentionDays)
}

func provideDialogService(log *slog.Logger, conn *pgxpool.Pool, queries *dbsqlc.Queries, aiService *ai.Service, dispatcher *channel.Dispatcher, hub *ws.Hub, crmClient *crm.Client) *dialog.Service {
	return dialog.NewService(log, conn, queries, aiService, dispatcher, hub, crmClient)
}

func provideAuthHandler(log *slog.Logger, queries *dbsqlc.Queries, cfg config.Config) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, queries, cfg.Auth)
}

func provideChannelsHandler(log *slog.Logger, cfg config.Config, queries *dbsqlc.Queries, registry *channel.Registry) *handlers.ChannelsHandler {
	return handlers.NewChannelsHandler(log, queries, registry, cfg.Server.PublicBaseURL)
}

func provideWebchatHandler(log *slog.Logger, cfg config.Config, queries *dbsqlc.Queries, registry *channel.Registry, dialogService *dialog.Service, hub *ws.Hub) *handlers.WebchatHandler {
	return handlers.NewWebchatHandler(log, cfg.Server, queries, registry, dialogService, hub)
}

func provideServer(cfg config.Config, pingHandler *handlers.PingHandler, authHandler *handlers.AuthHandler, botsHandler *handlers.BotsHandler, channelsHandler *handlers.ChannelsHandler, dialogsHandler *handlers.DialogsHandler, knowledgeHandler *handlers.KnowledgeHandler, diagnosticsHandler *handlers.DiagnosticsHandler, webhookHandler *handlers.WebhookHandler, webchatHandler *handlers.WebchatHandler, eventsHandler *handlers.EventsHandler) *server.Server {
	return server.NewServer(cfg.Server.Addr, cfg.Auth.JWTSecret, pingHandler, authHandler, botsHandler, channelsHandler, dialogsHandler, knowledgeHandler, diagnosticsHandler, webhookHandler, webchatHandler, eventsHandler)
}

// ensureAdminAccount seeds the first admin from config on an empty database
// so a fresh install can log in.
func ensureAdminAccount(log *slog.Logger, cfg config.Config, queries *dbsqlc.Queries) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return nil
	}
	ctx := context.Background()
	count, err := queries.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	admin, err := queries.CreateAdmin(ctx, dbsqlc.CreateAdminParams{
		Email:        cfg.Admin.Email,
		PasswordHash: string(hash),
		DisplayName:  "Administrator",
	})
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	log.Info("seeded initial admin", slog.Int64("admin_id", admin.ID), slog.String("email", admin.Email))
	return nil
}

func startRetention(lc fx.Lifecycle, retention *diagnostics.Retention) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return retention.Start() },
		OnStop:  func(ctx context.Context) error { retention.Stop(); return nil },
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server stopped", slog.String("error", err.Error()))
				}
			}()
			log.Info("server listening", slog.String("addr", cfg.Server.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
