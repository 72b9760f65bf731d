package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/ipgeobot/internal/bot"
	"github.com/evyataryagoni/ipgeobot/internal/cache"
	"github.com/evyataryagoni/ipgeobot/internal/config"
	"github.com/evyataryagoni/ipgeobot/internal/format"
	"github.com/evyataryagoni/ipgeobot/internal/geoapi"
	"github.com/evyataryagoni/ipgeobot/internal/logger"
	"github.com/evyataryagoni/ipgeobot/internal/metrics"
	"github.com/evyataryagoni/ipgeobot/internal/models"
	"github.com/evyataryagoni/ipgeobot/internal/router"
	"github.com/evyataryagoni/ipgeobot/internal/service"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

const opsShutdownTimeout = 5 * time.Second

func main() {
	root := &cobra.Command{
		Use:   "ipgeobot",
		Short: "Telegram bot that reports the geolocation of an IPv4 address",
		Long: "ipgeobot answers Telegram messages with the country, region, city, organization,\n" +
			"coordinates and timezone of an IPv4 address, or of its own public address.",
		SilenceUsage: true,
		RunE:         runBot,
	}

	root.AddCommand(lookupCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ipgeobot", version)
		},
	}
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [ip]",
		Short: "Look up an address once and print the reply the bot would send",
		Long:  "Look up an address once. Without an argument the public address of this host is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig := config.Load()
			if err := appConfig.ValidateForLookup(); err != nil {
				return err
			}

			var query models.IPQuery
			if len(args) == 1 {
				query.Address = args[0]
			}

			return lookupOnce(cmd.Context(), appConfig, query, cmd.OutOrStdout(), setupLogger(appConfig))
		},
	}
}

// lookupOnce runs a single query through the same pipeline the bot uses
func lookupOnce(ctx context.Context, appConfig *config.Config, query models.IPQuery, out io.Writer, log *logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	lookupService := service.NewLookupService(setupGeoClient(appConfig, nil, log), nil, nil, log)
	defer lookupService.Close()

	result := lookupService.Lookup(ctx, query)
	_, err := fmt.Fprintln(out, format.Result(result))
	return err
}

func runBot(cmd *cobra.Command, args []string) error {
	appConfig := config.Load()
	if err := appConfig.Validate(); err != nil {
		return err
	}

	appLogger := setupLogger(appConfig)
	appLogger.Info().Str("version", version).Msg("Starting ipgeobot...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsCollector := setupMetrics(appLogger)

	geoCache, err := setupCache(ctx, appConfig, appLogger)
	if err != nil {
		return err
	}

	// Build application layers
	lookupService := service.NewLookupService(setupGeoClient(appConfig, metricsCollector, appLogger), geoCache, metricsCollector, appLogger)
	defer lookupService.Close()

	messageRouter := bot.NewRouter(lookupService, metricsCollector, appLogger)

	api, err := bot.NewBotAPI(appConfig.TelegramToken, appConfig.TelegramDebug)
	if err != nil {
		return err
	}
	appLogger.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	telegram := bot.NewTelegram(api, messageRouter, bot.TelegramConfig{
		AllowFrom:   appConfig.TelegramAllowFrom,
		BotUserName: api.Self.UserName,
	}, appLogger)

	opsServer := startOpsServer(appConfig, metricsCollector, appLogger)

	runErr := telegram.Run(ctx)

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn().Err(err).Msg("Ops server shutdown failed")
		}
	}

	appLogger.Info().Msg("ipgeobot stopped")
	return runErr
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:      appConfig.LogLevel,
		Pretty:     appConfig.LogPretty,
		OutputFile: appConfig.LogFile,
	})

	appLogger.Debug().
		Str("self_ip_url", appConfig.SelfIPURL).
		Str("geo_api_url", appConfig.GeoAPIURL).
		Dur("lookup_timeout", appConfig.LookupTimeout).
		Str("cache_type", appConfig.CacheType).
		Str("ops_port", appConfig.OpsPort).
		Int("allowed_users", len(appConfig.TelegramAllowFrom)).
		Msg("Configuration loaded")

	return appLogger
}

// setupMetrics initializes the Prometheus metrics collector
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New()
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// setupCache initializes the geolocation cache based on configuration
func setupCache(ctx context.Context, appConfig *config.Config, log *logger.Logger) (cache.Cache, error) {
	switch appConfig.CacheType {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB, appConfig.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis cache: %w", err)
		}
		log.Info().
			Str("addr", appConfig.RedisAddr).
			Dur("ttl", appConfig.CacheTTL).
			Msg("Redis cache initialized")
		return redisCache, nil

	case "none", "":
		return cache.NopCache{}, nil

	default:
		return nil, fmt.Errorf("unknown cache type %q", appConfig.CacheType)
	}
}

func setupGeoClient(appConfig *config.Config, m *metrics.Metrics, log *logger.Logger) *geoapi.Client {
	return geoapi.NewClient(geoapi.Config{
		SelfIPURL: appConfig.SelfIPURL,
		GeoAPIURL: appConfig.GeoAPIURL,
		Timeout:   appConfig.LookupTimeout,
	}, &http.Client{}, m, log)
}

// startOpsServer serves /health and /metrics in the background.
// Returns nil when OPS_PORT is empty.
func startOpsServer(appConfig *config.Config, m *metrics.Metrics, log *logger.Logger) *http.Server {
	if appConfig.OpsPort == "" {
		log.Info().Msg("Ops server disabled")
		return nil
	}

	server := &http.Server{
		Addr:              ":" + appConfig.OpsPort,
		Handler:           router.SetupRouter(m, nil, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().
			Str("health_check", "http://localhost:"+appConfig.OpsPort+"/health").
			Str("metrics", "http://localhost:"+appConfig.OpsPort+"/metrics").
			Msg("Ops server is running")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Ops server failed")
		}
	}()

	return server
}
