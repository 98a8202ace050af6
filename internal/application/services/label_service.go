package services

import (
	"context"

	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/domain/providers"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/drugevents/pkg/errors"
)

// LabelService looks up label metadata for a single drug name
type LabelService struct {
	source providers.LabelSource
}

// NewLabelService creates a new label service
func NewLabelService(source providers.LabelSource) *LabelService {
	return &LabelService{source: source}
}

// FetchLabel returns the label fields for drugName. The second value is false
// when the lookup failed or matched nothing; the error itself is logged, not returned.
func (s *LabelService) FetchLabel(ctx context.Context, drugName string) (entities.LabelInfo, bool) {
	logger := observability.LoggerFromContext(ctx)

	label, err := s.source.SearchLabel(ctx, drugName)
	if err != nil {
		observability.RecordLabelLookup(observability.LabelAbsent)
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			logger.Debug().Str("drug", drugName).Msg("no label match")
		} else {
			logger.Warn().Err(err).Str("drug", drugName).Msg("label lookup failed")
		}
		return entities.LabelInfo{}, false
	}
	if label == nil {
		observability.RecordLabelLookup(observability.LabelAbsent)
		return entities.LabelInfo{}, false
	}

	observability.RecordLabelLookup(observability.LabelFound)
	return ToLabelInfo(label), true
}

// ToLabelInfo extracts the descriptive fields of a label document, defaulting
// each missing one to the placeholder. The overdose slot falls back to the
// warnings section only when the label has no overdosage section at all.
func ToLabelInfo(label *entities.DrugLabel) entities.LabelInfo {
	info := entities.LabelInfo{
		Dosage:              firstOrNA(label.DosageAndAdministration),
		IndicationsAndUsage: firstOrNA(label.IndicationsAndUsage),
		OverdoseSideEffects: firstOrNA(label.Overdosage),
		Manufacturer:        entities.NotAvailable,
		GenericName:         entities.NotAvailable,
	}
	if label.Overdosage == nil {
		info.OverdoseSideEffects = firstOrNA(label.Warnings)
	}
	if label.OpenFDA != nil {
		info.Manufacturer = firstOrNA(label.OpenFDA.ManufacturerName)
		info.GenericName = firstOrNA(label.OpenFDA.GenericName)
	}
	return info
}

func firstOrNA(values []string) string {
	if len(values) == 0 {
		return entities.NotAvailable
	}
	return values[0]
}
