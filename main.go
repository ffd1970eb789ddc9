package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"presence-chat/internal/chat"
	"presence-chat/internal/config"
	"presence-chat/internal/database"
	"presence-chat/internal/logger"
	"presence-chat/internal/message"
	"presence-chat/internal/participant"
	"presence-chat/internal/presence"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "presence-chat: %v\n", err)
		os.Exit(1)
	}
}

// stores holds the repositories of the selected backend
type stores struct {
	participants participant.Repository
	messages     message.Repository
	health       chat.HealthChecker
	close        func(ctx context.Context) error
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfigLoader(os.Getenv("CHAT_CONFIG"), ".env").LoadConfig()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Env:   logger.ParseEnv(cfg.LogEnv),
		Level: logger.ParseLevel(cfg.LogLevel),
	})
	slog.SetDefault(log)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Error("❌ Closing store failed", "err", err)
		}
	}()

	metrics := config.NewServerMetrics()
	rateLimiter := config.NewRateLimiter(cfg)

	messages := message.NewService(st.messages, participant.NewDirectory(st.participants), metrics, log.With("component", "messages"),
		message.WithSendLimiter(rateLimiter.CheckRateLimit))
	participants := participant.NewService(st.participants, messages, metrics, log.With("component", "participants"))

	sweeper := presence.NewSweeper(participants, messages, metrics, log.With("component", "sweeper"),
		cfg.SweepInterval, cfg.StaleAfter, presence.OnEvict(rateLimiter.Forget))
	go sweeper.Run(ctx)

	handler := chat.NewHandler(chat.Deps{
		Participants: participants,
		Messages:     messages,
		Health:       st.health,
		Config:       cfg,
		Metrics:      metrics,
		Log:          log.With("component", "http"),
	})

	server := &http.Server{
		Addr:         cfg.Port,
		Handler:      chat.NewRouter(handler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("🚀 Starting presence chat server", "addr", cfg.Port, "store", cfg.Store)
		log.Info("⚙️ Configuration", "sweep_interval", cfg.SweepInterval, "stale_after", cfg.StaleAfter)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("🛑 Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	m := metrics.GetMetrics()
	log.Info("👋 Server stopped gracefully",
		"joins", m.TotalJoins, "messages", m.TotalMessages, "evictions", m.TotalEvictions, "uptime", m.Uptime)
	return nil
}

func openStores(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("⚠️ Using in-memory store, data is lost on restart")
		return &stores{
			participants: participant.NewInMemoryRepository(),
			messages:     message.NewInMemoryRepository(),
			close:        func(context.Context) error { return nil },
		}, nil
	}

	db, err := database.NewMongoDB(ctx, &database.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: cfg.MongoConnectTimeout,
		PingTimeout:    cfg.MongoPingTimeout,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
		MinPoolSize:    cfg.MongoMinPoolSize,
	})
	if err != nil {
		return nil, err
	}

	if err := db.CreateIndexes(ctx); err != nil {
		_ = db.Close(context.Background())
		return nil, err
	}

	log.Info("✅ Connected to MongoDB", "database", cfg.MongoDatabase)
	return &stores{
		participants: participant.NewMongoRepository(db, cfg.StoreTimeout),
		messages:     message.NewMongoRepository(db, cfg.StoreTimeout),
		health:       db,
		close:        db.Close,
	}, nil
}
