package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"uniquest/internal/app"
	"uniquest/internal/config"
	"uniquest/internal/genai"
	"uniquest/internal/infra/memory"
	pgstore "uniquest/internal/infra/postgres"
	redisstore "uniquest/internal/infra/redis"
	"uniquest/internal/logging"
	transport "uniquest/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	quizStore, err := buildQuizStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	// Corrupt or missing snapshots degrade inside Load; an unreachable
	// backend still leaves the shell usable with an empty list.
	if err := quizStore.Load(ctx); err != nil {
		logger.Warn("quiz snapshot unavailable, starting with an empty list", "err", err)
	}

	genTimeout, err := config.Duration(cfg.Gemini.Timeout, 60*time.Second)
	if err != nil {
		logger.Warn("ignoring malformed gemini timeout", "err", err)
	}
	generator := genai.NewClient(cfg.GeminiAPIKey(),
		genai.WithModel(cfg.Gemini.Model),
		genai.WithBaseURL(cfg.Gemini.BaseURL),
		genai.WithTimeout(genTimeout),
	)

	service := app.NewQuizService(quizStore, generator, logger)
	router := transport.NewRouter(service, logger)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Generation responses can take the better part of a minute; the
		// write timeout has to outlive the generation client's own timeout.
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Info("starting uniquest service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildQuizStore picks the persistence backend: postgres when configured,
// then redis, falling back to the in-process store.
func buildQuizStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (app.QuizStore, error) {
	namespace := cfg.Store.Namespace

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return pgstore.NewQuizStore(pool, namespace, logger), nil
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisstore.NewQuizStore(client, namespace, logger), nil
	}
	logger.Warn("no durable backend configured, quizzes will not survive restarts")
	return memory.NewQuizStore(logger), nil
}
