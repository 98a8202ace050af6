package services

import (
	"context"
	"time"

	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/domain/providers"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/drugevents/pkg/errors"
	"golang.org/x/time/rate"
)

// DefaultPageSize is the number of reports requested per page
const DefaultPageSize = 100

// FetchStats describes how a paginated fetch went
type FetchStats struct {
	Pages      int
	Reports    int
	StopReason entities.StopReason
}

// EventFetchService pages through adverse-event reports and flattens them
// into one EventRecord per (report, drug) pair
type EventFetchService struct {
	source   providers.EventSource
	pageSize int
	limiter  *rate.Limiter
}

// NewEventFetchService creates a fetcher that waits pageDelay between page requests
func NewEventFetchService(source providers.EventSource, pageSize int, pageDelay time.Duration) *EventFetchService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	limit := rate.Inf
	if pageDelay > 0 {
		limit = rate.Every(pageDelay)
	}
	return &EventFetchService{
		source:   source,
		pageSize: pageSize,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// FetchEvents returns at most rowCap records received within r, in fetch order
func (s *EventFetchService) FetchEvents(ctx context.Context, r entities.DateRange, rowCap int) []entities.EventRecord {
	records, _ := s.FetchEventsWithStats(ctx, r, rowCap)
	return records
}

// FetchEventsWithStats is FetchEvents that also reports why pagination stopped.
// Remote failures end pagination; whatever was accumulated is returned.
func (s *EventFetchService) FetchEventsWithStats(ctx context.Context, r entities.DateRange, rowCap int) ([]entities.EventRecord, FetchStats) {
	logger := observability.LoggerFromContext(ctx)

	var stats FetchStats
	records := make([]entities.EventRecord, 0, min(max(rowCap, 0), s.pageSize))
	skip := 0

	for {
		if len(records) >= rowCap {
			stats.StopReason = entities.StopRowCap
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			stats.StopReason = entities.StopCancelled
			break
		}

		reports, err := s.source.SearchEvents(ctx, providers.EventQuery{Range: r, Limit: s.pageSize, Skip: skip})
		if err != nil {
			switch {
			case ctx.Err() != nil:
				stats.StopReason = entities.StopCancelled
			case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
				// openFDA reports an exhausted search as 404
				stats.StopReason = entities.StopEmptyPage
			default:
				stats.StopReason = entities.StopRemoteError
				logger.Warn().Err(err).Int("skip", skip).Int("records", len(records)).Msg("event page request failed, keeping partial results")
			}
			break
		}
		if len(reports) == 0 {
			stats.StopReason = entities.StopEmptyPage
			break
		}

		before := len(records)
		for _, report := range reports {
			records = append(records, flattenReport(report)...)
		}
		stats.Pages++
		stats.Reports += len(reports)
		observability.RecordPage(len(records) - before)

		logger.Info().
			Int("page", stats.Pages).
			Int("skip", skip).
			Int("reports", len(reports)).
			Int("records", len(records)).
			Msg("fetched event page")

		if len(records) >= rowCap {
			stats.StopReason = entities.StopRowCap
			break
		}
		if len(reports) < s.pageSize {
			stats.StopReason = entities.StopShortPage
			break
		}
		skip += s.pageSize
	}

	if rowCap >= 0 && len(records) > rowCap {
		records = records[:rowCap]
	}

	logger.Info().
		Str("range", r.String()).
		Int("records", len(records)).
		Int("pages", stats.Pages).
		Str("stop_reason", string(stats.StopReason)).
		Msg("event fetch finished")

	return records, stats
}

// flattenReport emits one record per listed drug. Only the first reaction of
// the report is kept.
func flattenReport(report entities.AdverseEventReport) []entities.EventRecord {
	patient := report.Patient
	if patient == nil || len(patient.Drugs) == 0 {
		return nil
	}

	age := flexOrNA(patient.OnsetAge)
	ageUnit := flexOrNA(patient.OnsetAgeUnit)
	reaction := entities.NotAvailable
	if len(patient.Reactions) > 0 {
		reaction = stringOrNA(patient.Reactions[0].Term)
	}

	records := make([]entities.EventRecord, 0, len(patient.Drugs))
	for _, drug := range patient.Drugs {
		records = append(records, entities.EventRecord{
			DrugName:     stringOrNA(drug.MedicinalProduct),
			PatientAge:   age,
			AgeUnit:      ageUnit,
			DrugReaction: reaction,
		})
	}
	return records
}

func flexOrNA(f *entities.FlexString) string {
	if f == nil {
		return entities.NotAvailable
	}
	return f.String()
}

func stringOrNA(s *string) string {
	if s == nil {
		return entities.NotAvailable
	}
	return *s
}
