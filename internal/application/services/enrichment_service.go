package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
)

// DefaultWorkers is the default number of concurrent label lookups
const DefaultWorkers = 5

// LabelFetcher fetches the label for one drug name
type LabelFetcher interface {
	FetchLabel(ctx context.Context, drugName string) (entities.LabelInfo, bool)
}

// EnrichStats summarizes one enrichment pass
type EnrichStats struct {
	Requested int
	Found     int
	Failed    int
}

// EnrichmentService fans label lookups out over a bounded worker pool
type EnrichmentService struct {
	labels LabelFetcher
}

// NewEnrichmentService creates a new enrichment service
func NewEnrichmentService(labels LabelFetcher) *EnrichmentService {
	return &EnrichmentService{labels: labels}
}

type labelResult struct {
	name  string
	info  entities.LabelInfo
	found bool
	err   error
}

// EnrichAll returns a label for every distinct name in names except the
// placeholder. Names whose lookup fails map to DefaultLabelInfo.
func (s *EnrichmentService) EnrichAll(ctx context.Context, names []string, concurrency int) map[string]entities.LabelInfo {
	labels, _ := s.EnrichAllWithStats(ctx, names, concurrency)
	return labels
}

// EnrichAllWithStats is EnrichAll that also counts found and failed lookups
func (s *EnrichmentService) EnrichAllWithStats(ctx context.Context, names []string, concurrency int) (map[string]entities.LabelInfo, EnrichStats) {
	logger := observability.LoggerFromContext(ctx)

	unique := UniqueDrugNames(names)
	labels := make(map[string]entities.LabelInfo, len(unique))
	stats := EnrichStats{Requested: len(unique)}
	if len(unique) == 0 {
		return labels, stats
	}

	if concurrency <= 0 {
		concurrency = DefaultWorkers
	}
	if concurrency > len(unique) {
		concurrency = len(unique)
	}

	nameChan := make(chan string)
	resultChan := make(chan labelResult, concurrency)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range nameChan {
				resultChan <- s.lookup(ctx, name)
			}
		}()
	}

	go func() {
		defer close(nameChan)
		for _, name := range unique {
			nameChan <- name
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Only this goroutine writes to labels
	for res := range resultChan {
		if !res.found {
			stats.Failed++
			event := logger.Warn().Str("drug", res.name)
			if res.err != nil {
				event = event.Err(res.err)
			}
			event.Msg("no label for drug, using defaults")
			labels[res.name] = entities.DefaultLabelInfo()
			continue
		}
		stats.Found++
		labels[res.name] = res.info
	}

	logger.Info().
		Int("drugs", stats.Requested).
		Int("found", stats.Found).
		Int("failed", stats.Failed).
		Int("workers", concurrency).
		Msg("label enrichment finished")

	return labels, stats
}

func (s *EnrichmentService) lookup(ctx context.Context, name string) (res labelResult) {
	res.name = name
	defer func() {
		if r := recover(); r != nil {
			res.info = entities.LabelInfo{}
			res.found = false
			res.err = fmt.Errorf("label lookup panicked: %v", r)
		}
	}()
	res.info, res.found = s.labels.FetchLabel(ctx, name)
	return res
}

// UniqueDrugNames deduplicates names in first-seen order and drops the placeholder
func UniqueDrugNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if name == entities.NotAvailable {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	return unique
}

// DrugNames returns the drug name of every record, in order
func DrugNames(events []entities.EventRecord) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.DrugName
	}
	return names
}
