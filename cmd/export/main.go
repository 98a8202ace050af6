package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/drugevents/internal/adapters/database"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
	"github.com/zatekoja/drugevents/pkg/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Optional YAML config file overlaid on the environment")
		outPath    = flag.String("out", "fda_drug_event.csv", "Output CSV path")
	)
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-export", cfg.App.Env, cfg.App.LogLevel)

	if cfg.Sink.Driver == config.SinkNone {
		log.Fatal().Msg("SINK_DRIVER=none has nothing to export")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, closeSink, err := database.OpenDrugEventRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Sink.Driver).Msg("Failed to open sink")
	}
	defer closeSink()

	rows, err := repo.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read drug events")
	}

	if err := exportFile(*outPath, rows); err != nil {
		log.Fatal().Err(err).Str("out", *outPath).Msg("Export failed")
	}

	log.Info().Int("rows", len(rows)).Str("out", *outPath).Msg("Exported drug events")
}

func exportFile(outPath string, rows []entities.EnrichedRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeCSV(f, rows); err != nil {
		return err
	}
	return f.Close()
}

func writeCSV(out io.Writer, rows []entities.EnrichedRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(entities.SinkColumns); err != nil {
		return err
	}

	for _, row := range rows {
		if err := w.Write([]string{
			row.DrugName,
			row.PatientAge,
			row.AgeUnit,
			row.DrugReaction,
			strconv.FormatFloat(row.PatientAgeNumeric, 'f', -1, 64),
			row.DrugNameCleaned,
			string(row.ReactionSeverity),
			string(row.AgeGroup),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
