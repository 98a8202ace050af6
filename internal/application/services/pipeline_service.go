package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/domain/repositories"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// PipelineOptions are the run parameters of one extract-transform-load pass
type PipelineOptions struct {
	Range   entities.DateRange
	MaxRows int
	Workers int
}

// PipelineService runs fetch, enrich, transform and load in sequence
type PipelineService struct {
	events     *EventFetchService
	enrichment *EnrichmentService
	transform  *TransformService
	repo       repositories.DrugEventRepository
	opts       PipelineOptions
	logger     zerolog.Logger
}

// NewPipelineService creates a pipeline. A nil repo makes every run a dry run.
func NewPipelineService(
	events *EventFetchService,
	enrichment *EnrichmentService,
	transform *TransformService,
	repo repositories.DrugEventRepository,
	opts PipelineOptions,
	logger zerolog.Logger,
) *PipelineService {
	return &PipelineService{
		events:     events,
		enrichment: enrichment,
		transform:  transform,
		repo:       repo,
		opts:       opts,
		logger:     logger,
	}
}

// Run executes one pipeline pass. Only sink failures are returned as errors;
// the summary is filled in as far as the run got.
func (p *PipelineService) Run(ctx context.Context) (*entities.RunSummary, error) {
	start := time.Now()
	summary := &entities.RunSummary{RunID: uuid.NewString()}

	logger := p.logger.With().Str("run_id", summary.RunID).Logger()
	ctx = logger.WithContext(ctx)

	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.String("run_id", summary.RunID),
		attribute.String("range", p.opts.Range.String()),
		attribute.Int("max_rows", p.opts.MaxRows),
	)
	defer span.End()
	defer func() {
		summary.Duration = time.Since(start)
		observability.RecordRun(summary.Duration)
	}()

	logger.Info().
		Str("range", p.opts.Range.String()).
		Int("max_rows", p.opts.MaxRows).
		Int("workers", p.opts.Workers).
		Bool("dry_run", p.repo == nil).
		Msg("pipeline run started")

	fetchCtx, fetchSpan := observability.StartSpan(ctx, "events.fetch")
	events, fetchStats := p.events.FetchEventsWithStats(fetchCtx, p.opts.Range, p.opts.MaxRows)
	fetchSpan.SetAttributes(
		attribute.Int("records", len(events)),
		attribute.Int("pages", fetchStats.Pages),
		attribute.String("stop_reason", string(fetchStats.StopReason)),
	)
	fetchSpan.End()

	summary.EventsFetched = len(events)
	summary.Pages = fetchStats.Pages
	summary.StopReason = fetchStats.StopReason

	if len(events) == 0 {
		logger.Warn().Str("stop_reason", string(fetchStats.StopReason)).Msg("no adverse events fetched, nothing to load")
		return summary, nil
	}

	enrichCtx, enrichSpan := observability.StartSpan(ctx, "labels.enrich")
	labels, enrichStats := p.enrichment.EnrichAllWithStats(enrichCtx, DrugNames(events), p.opts.Workers)
	enrichSpan.SetAttributes(
		attribute.Int("drugs", enrichStats.Requested),
		attribute.Int("found", enrichStats.Found),
	)
	enrichSpan.End()

	summary.DistinctDrugs = enrichStats.Requested
	summary.LabelsFound = enrichStats.Found

	transformCtx, transformSpan := observability.StartSpan(ctx, "transform")
	rows, transformStats := p.transform.TransformEvents(transformCtx, events, labels)
	transformSpan.SetAttributes(
		attribute.Int("output", transformStats.Output),
		attribute.Int("dropped", transformStats.Dropped),
	)
	transformSpan.End()
	observability.RecordTransform(transformStats.Dropped)

	summary.RowsOut = len(rows)
	summary.RowsDropped = transformStats.Dropped
	summary.Duplicates = transformStats.Duplicates

	if p.repo == nil {
		logger.Info().Int("rows", len(rows)).Msg("dry run, skipping sink")
		return summary, nil
	}

	sinkCtx, sinkSpan := observability.StartSpan(ctx, "sink.replace", attribute.Int("rows", len(rows)))
	defer sinkSpan.End()
	if err := p.repo.Replace(sinkCtx, rows); err != nil {
		observability.RecordError(sinkSpan, err)
		observability.RecordError(span, err)
		return summary, fmt.Errorf("failed to load drug events: %w", err)
	}
	summary.Loaded = true
	observability.RecordLoad(len(rows))

	logger.Info().Int("rows", len(rows)).Msg("drug events loaded")
	return summary, nil
}
