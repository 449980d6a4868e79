package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixml/factual"
	"github.com/helixml/factual/infrastructure/api"
	apimiddleware "github.com/helixml/factual/infrastructure/api/middleware"
	"github.com/helixml/factual/internal/config"
	"github.com/helixml/factual/internal/log"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
		warm    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Scrape profile (SCRAPE_PROFILE)
  5. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  CORS_ALLOWED_ORIGINS         Comma-separated allowed origins (default: *)
  PIPELINE_TIMEOUT             Whole-request budget in seconds (default: 45)
  FETCH_CONCURRENCY            Concurrent article fetches, 0 for one per link
  NEWS_FEEDS                   Comma-separated RSS/Atom feed URLs (%s is the query)
  REDIS_URL                    Redis URL for ARTICLE_CACHE=redis
  SCRAPE_PROFILE               YAML file with user_agents, excluded_hosts and feeds

  SEARCH_*                     Search result scraping
    BASE_URL                   Search engine URL (default: https://www.google.com/search)
    PAGES                      Result pages per query (default: 3)
    RENDERER                   http or chrome (default: http)
    CHROME_URL                 Remote Chrome DevTools URL (default: launch locally)

  ARTICLE_*                    Article retrieval
    TIMEOUT                    Per-article timeout in seconds (default: 15)
    READABILITY                Extract the main content with readability (default: true)
    CACHE                      none, memory or redis (default: none)
    CACHE_SIZE                 Memory cache entries (default: 1024)
    CACHE_TTL                  Cache entry lifetime in seconds (default: 3600)

  SENTIMENT_*                  Sentiment classifier
    PROVIDER                   hugot, remote or openai (default: hugot)
    MODEL_DIR                  Local model directory (default: ~/.factual/models)
    MAX_LENGTH                 Tokens classified per text (default: 128)
    POSITIVE_LABEL             Positive class label (default: POSITIVE)
    ENDPOINT_BASE_URL          Remote or OpenAI-compatible endpoint
    ENDPOINT_MODEL             Model identifier for openai
    ENDPOINT_API_KEY           API key for authentication
    ENDPOINT_TIMEOUT           Request timeout in seconds (default: 30)
    ENDPOINT_MAX_RETRIES       Retry attempts (default: 5)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port, warm)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")
	cmd.Flags().BoolVar(&warm, "warm", true, "Load the sentiment model before accepting requests")

	return cmd
}

func runServe(envFile, host string, port int, warm bool) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.NewLogger(cfg)
	logger.SetDefault()
	slogger := logger.Slog()

	opts, err := clientOptions(cfg, slogger)
	if err != nil {
		return err
	}

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting factual", attrs...)

	client, err := factual.New(opts...)
	if err != nil {
		return fmt.Errorf("create factual client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close factual client", slog.Any("error", err))
		}
	}()

	if warm {
		if err := client.Warm(); err != nil {
			slogger.Warn("sentiment model not loaded, requests will fail until it is available", slog.Any("error", err))
		}
	}

	apiServer := api.NewAPIServer(client, api.WithVersion(version))
	router := apiServer.Router()

	// Middleware must be registered before MountRoutes.
	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(slogger))

	apiServer.MountRoutes()

	server := api.NewServer(cfg.Addr(), slogger,
		api.WithWriteTimeout(api.WriteTimeoutFor(cfg.PipelineTimeout())),
		api.WithCORSOrigins(cfg.CORSAllowedOrigins()),
	)
	server.Router().Mount("/", router)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
