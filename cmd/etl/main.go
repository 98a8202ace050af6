package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/drugevents/internal/adapters/cache"
	"github.com/zatekoja/drugevents/internal/adapters/database"
	"github.com/zatekoja/drugevents/internal/application/services"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/domain/providers"
	"github.com/zatekoja/drugevents/internal/infrastructure/clients/openfda"
	"github.com/zatekoja/drugevents/internal/infrastructure/clients/redis"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
	"github.com/zatekoja/drugevents/pkg/config"
)

func main() {
	var configPath string
	var maxRows int
	var workers int
	var dryRun bool

	flag.StringVar(&configPath, "config", "", "Optional YAML config file overlaid on the environment")
	flag.IntVar(&maxRows, "max-rows", 0, "Override MAX_ROWS")
	flag.IntVar(&workers, "workers", 0, "Override WORKERS")
	flag.BoolVar(&dryRun, "dry-run", false, "Fetch and transform without writing to the sink")
	flag.Parse()

	// Load config
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if maxRows > 0 {
		cfg.Pipeline.MaxRows = maxRows
	}
	if workers > 0 {
		cfg.Pipeline.Workers = workers
	}
	if dryRun {
		cfg.Sink.Driver = config.SinkNone
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
		}
	}

	if cfg.App.MetricsAddr != "" {
		observability.StartMetricsServer(ctx, cfg.App.MetricsAddr)
	}

	dateRange, err := entities.ParseDateRange(cfg.Pipeline.StartDate, cfg.Pipeline.EndDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid event date range")
	}

	// Setup openFDA
	fda := openfda.NewClient(cfg.OpenFDA.BaseURL, cfg.OpenFDA.Timeout, openfda.WithAPIKey(cfg.OpenFDA.APIKey))

	var labelSource providers.LabelSource = fda
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Label cache unavailable, querying openFDA directly")
		} else {
			defer redisClient.Close()
			labelSource = cache.NewCachedLabelSource(fda, cache.NewRedisAdapter(redisClient), cfg.Redis.LabelTTL, log.Logger)
			log.Info().Dur("ttl", cfg.Redis.LabelTTL).Msg("Label cache enabled")
		}
	}

	// Setup sink
	repo, closeSink, err := database.OpenDrugEventRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Sink.Driver).Msg("Failed to open sink")
	}
	defer closeSink()

	// Setup services
	pipeline := services.NewPipelineService(
		services.NewEventFetchService(fda, cfg.OpenFDA.PageSize, cfg.OpenFDA.PageDelay),
		services.NewEnrichmentService(services.NewLabelService(labelSource)),
		services.NewTransformService(),
		repo,
		services.PipelineOptions{
			Range:   dateRange,
			MaxRows: cfg.Pipeline.MaxRows,
			Workers: cfg.Pipeline.Workers,
		},
		log.Logger,
	)

	summary, err := pipeline.Run(ctx)

	log.Info().
		Str("run_id", summary.RunID).
		Int("events", summary.EventsFetched).
		Int("pages", summary.Pages).
		Str("stop_reason", string(summary.StopReason)).
		Int("drugs", summary.DistinctDrugs).
		Int("labels_found", summary.LabelsFound).
		Int("rows_out", summary.RowsOut).
		Int("rows_dropped", summary.RowsDropped).
		Int("duplicates", summary.Duplicates).
		Bool("loaded", summary.Loaded).
		Dur("duration", summary.Duration).
		Msg("ETL run complete")

	if err != nil {
		log.Error().Err(err).Msg("ETL run failed")
		cancel()
		closeSink()
		os.Exit(1)
	}
}
