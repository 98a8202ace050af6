package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
	"github.com/zatekoja/drugevents/pkg/normalize"
)

var (
	severeTerms   = []string{"death", "fatal", "severe", "hospital"}
	moderateTerms = []string{"rash", "fever", "nausea"}
)

// Normalized column keys of a merged record
var (
	colDrugName            = normalize.ColumnName(entities.ColumnDrugName)
	colPatientAge          = normalize.ColumnName(entities.ColumnPatientAge)
	colAgeUnit             = normalize.ColumnName(entities.ColumnAgeUnit)
	colDrugReaction        = normalize.ColumnName(entities.ColumnDrugReaction)
	colDosage              = normalize.ColumnName(entities.ColumnDosage)
	colIndicationsAndUsage = normalize.ColumnName(entities.ColumnIndicationsAndUsage)
	colOverdoseSideEffects = normalize.ColumnName(entities.ColumnOverdoseSideEffects)
	colManufacturer        = normalize.ColumnName(entities.ColumnManufacturer)
	colGenericName         = normalize.ColumnName(entities.ColumnGenericName)
)

// TransformStats counts what cleaning did to a batch
type TransformStats struct {
	Input      int
	Duplicates int
	Dropped    int
	Output     int
	NullCounts map[string]int
}

// frame is a column-oriented view of merged records with sentinels already nil
type frame struct {
	columns []string
	index   map[string]int
	rows    [][]*string
}

func (f *frame) get(row []*string, column string) *string {
	i, ok := f.index[column]
	if !ok {
		return nil
	}
	return row[i]
}

// TransformService joins labels onto events and cleans the result into typed rows
type TransformService struct{}

// NewTransformService creates a new transform service
func NewTransformService() *TransformService {
	return &TransformService{}
}

// Merge attaches the label of each event's drug. Events whose drug has no
// label entry get DefaultLabelInfo.
func (s *TransformService) Merge(events []entities.EventRecord, labels map[string]entities.LabelInfo) []entities.MergedRecord {
	merged := make([]entities.MergedRecord, len(events))
	for i, e := range events {
		label, ok := labels[e.DrugName]
		if !ok {
			label = entities.DefaultLabelInfo()
		}
		merged[i] = entities.MergedRecord{Event: e, Label: label}
	}
	return merged
}

// TransformEvents merges and cleans in one call
func (s *TransformService) TransformEvents(ctx context.Context, events []entities.EventRecord, labels map[string]entities.LabelInfo) ([]entities.EnrichedRow, TransformStats) {
	return s.Transform(ctx, s.Merge(events, labels))
}

// Transform cleans merged records into EnrichedRows. It never fails: values it
// cannot interpret become nulls and are then filtered or backfilled.
func (s *TransformService) Transform(ctx context.Context, merged []entities.MergedRecord) ([]entities.EnrichedRow, TransformStats) {
	logger := observability.LoggerFromContext(ctx)

	f := newFrame(merged)
	stats := TransformStats{Input: len(f.rows), NullCounts: nullCounts(f)}

	logger.Debug().Strs("columns", f.columns).Msg("normalized columns")
	logger.Info().Dict("nulls", nullDict(f.columns, stats.NullCounts)).Msg("nulls after canonicalization")

	deduped := dedupRows(f.rows)
	stats.Duplicates = len(f.rows) - len(deduped)

	out := make([]entities.EnrichedRow, 0, len(deduped))
	for _, row := range deduped {
		drugName := f.get(row, colDrugName)
		patientAge := f.get(row, colPatientAge)
		ageUnit := f.get(row, colAgeUnit)
		reaction := f.get(row, colDrugReaction)

		var ageNumeric *float64
		if patientAge != nil {
			if v, ok := normalize.ParseNumber(*patientAge); ok {
				ageNumeric = &v
			}
		}

		var cleaned *string
		if drugName != nil {
			c := strings.ToLower(strings.TrimSpace(*drugName))
			cleaned = &c
		}

		severity := ClassifyReaction(reaction)
		ageGroup := ClassifyAge(ageNumeric)

		// Essential fields
		if drugName == nil || reaction == nil || ageGroup == "" {
			stats.Dropped++
			continue
		}

		enriched := entities.EnrichedRow{
			DrugName:            *drugName,
			PatientAge:          normalize.Value(patientAge, "0"),
			AgeUnit:             normalize.Value(ageUnit, "unknown"),
			DrugReaction:        *reaction,
			Dosage:              f.get(row, colDosage),
			IndicationsAndUsage: f.get(row, colIndicationsAndUsage),
			OverdoseSideEffects: f.get(row, colOverdoseSideEffects),
			Manufacturer:        f.get(row, colManufacturer),
			GenericName:         f.get(row, colGenericName),
			DrugNameCleaned:     normalize.Value(cleaned, "unknown"),
			ReactionSeverity:    severity,
			AgeGroup:            ageGroup,
		}
		if ageNumeric != nil {
			enriched.PatientAgeNumeric = *ageNumeric
		}
		out = append(out, enriched)
	}
	stats.Output = len(out)

	logger.Info().
		Int("input", stats.Input).
		Int("duplicates", stats.Duplicates).
		Int("dropped", stats.Dropped).
		Int("output", stats.Output).
		Msg("transform finished")

	return out, stats
}

// ClassifyReaction buckets a reaction term by case-insensitive keyword match.
// Severe terms take priority over moderate ones.
func ClassifyReaction(reaction *string) entities.ReactionSeverity {
	if reaction == nil {
		return entities.SeverityUnknown
	}
	r := strings.ToLower(*reaction)
	if containsAny(r, severeTerms) {
		return entities.SeveritySevere
	}
	if containsAny(r, moderateTerms) {
		return entities.SeverityModerate
	}
	return entities.SeverityMild
}

// ClassifyAge buckets an age in years: [0,12) child, [12,60) adult, 60+ senior
func ClassifyAge(age *float64) entities.AgeGroup {
	switch {
	case age == nil:
		return entities.AgeGroupUnknown
	case *age < 12:
		return entities.AgeGroupChild
	case *age < 60:
		return entities.AgeGroupAdult
	default:
		return entities.AgeGroupSenior
	}
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func newFrame(merged []entities.MergedRecord) *frame {
	headings := entities.MergedRecord{}.Columns()
	f := &frame{
		columns: make([]string, len(headings)),
		index:   make(map[string]int, len(headings)),
		rows:    make([][]*string, len(merged)),
	}
	for i, h := range headings {
		f.columns[i] = normalize.ColumnName(h)
		f.index[f.columns[i]] = i
	}
	for i, m := range merged {
		values := m.Values()
		row := make([]*string, len(values))
		for j, v := range values {
			row[j] = normalize.Canonical(v)
		}
		f.rows[i] = row
	}
	return f
}

func nullCounts(f *frame) map[string]int {
	counts := make(map[string]int, len(f.columns))
	for _, c := range f.columns {
		counts[c] = 0
	}
	for _, row := range f.rows {
		for j, v := range row {
			if v == nil {
				counts[f.columns[j]]++
			}
		}
	}
	return counts
}

func nullDict(columns []string, counts map[string]int) *zerolog.Event {
	d := zerolog.Dict()
	for _, c := range columns {
		d = d.Int(c, counts[c])
	}
	return d
}

// dedupRows keeps the first of each group of rows identical in every column
func dedupRows(rows [][]*string) [][]*string {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]*string, 0, len(rows))
	for _, row := range rows {
		key := rowKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

func rowKey(row []*string) string {
	var b strings.Builder
	for _, v := range row {
		if v == nil {
			b.WriteString("-;")
			continue
		}
		b.WriteString(strconv.Itoa(len(*v)))
		b.WriteByte(':')
		b.WriteString(*v)
		b.WriteByte(';')
	}
	return b.String()
}
