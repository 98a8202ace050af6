package entities

// ReactionSeverity is the categorical severity derived from a reaction term
type ReactionSeverity string

const (
	SeveritySevere   ReactionSeverity = "severe"
	SeverityModerate ReactionSeverity = "moderate"
	SeverityMild     ReactionSeverity = "mild"
	SeverityUnknown  ReactionSeverity = "unknown"
)

// AgeGroup is the age bucket derived from the numeric patient age
type AgeGroup string

const (
	AgeGroupChild   AgeGroup = "child"
	AgeGroupAdult   AgeGroup = "adult"
	AgeGroupSenior  AgeGroup = "senior"
	AgeGroupUnknown AgeGroup = "unknown"
)

// Column headings of a merged record, as produced by the extract step.
const (
	ColumnDrugName            = "Drug Name"
	ColumnPatientAge          = "Patient Age"
	ColumnAgeUnit             = "Age Unit"
	ColumnDrugReaction        = "Drug Reaction"
	ColumnDosage              = "Dosage"
	ColumnIndicationsAndUsage = "Indications & Usage"
	ColumnOverdoseSideEffects = "Overdose Side Effects"
	ColumnManufacturer        = "Manufacturer"
	ColumnGenericName         = "Generic Name"
)

// MergedRecord is an event with the label attributes of its drug joined on
type MergedRecord struct {
	Event EventRecord
	Label LabelInfo
}

// Columns returns the record's headings in a fixed order
func (MergedRecord) Columns() []string {
	return []string{
		ColumnDrugName, ColumnPatientAge, ColumnAgeUnit, ColumnDrugReaction,
		ColumnDosage, ColumnIndicationsAndUsage, ColumnOverdoseSideEffects,
		ColumnManufacturer, ColumnGenericName,
	}
}

// Values returns the raw values in Columns order
func (m MergedRecord) Values() []string {
	return []string{
		m.Event.DrugName, m.Event.PatientAge, m.Event.AgeUnit, m.Event.DrugReaction,
		m.Label.Dosage, m.Label.IndicationsAndUsage, m.Label.OverdoseSideEffects,
		m.Label.Manufacturer, m.Label.GenericName,
	}
}

// EnrichedRow is a cleaned, typed output row. Label attributes stay nil when
// the source only had a placeholder for them.
type EnrichedRow struct {
	DrugName            string           `json:"drug_name"`
	PatientAge          string           `json:"patient_age"`
	AgeUnit             string           `json:"age_unit"`
	DrugReaction        string           `json:"drug_reaction"`
	Dosage              *string          `json:"dosage"`
	IndicationsAndUsage *string          `json:"indications_and_usage"`
	OverdoseSideEffects *string          `json:"overdose_side_effects"`
	Manufacturer        *string          `json:"manufacturer"`
	GenericName         *string          `json:"generic_name"`
	PatientAgeNumeric   float64          `json:"patient_age_numeric"`
	DrugNameCleaned     string           `json:"drug_name_cleaned"`
	ReactionSeverity    ReactionSeverity `json:"reaction_severity"`
	AgeGroup            AgeGroup         `json:"age_group"`
}

// SinkColumns is the fixed schema persisted for each row
var SinkColumns = []string{
	"drug_name", "patient_age", "age_unit", "drug_reaction",
	"patient_age_numeric", "drug_name_cleaned", "reaction_severity", "age_group",
}

// Merged rebuilds the pre-cleaning record a row was derived from. Nil label
// attributes turn back into the placeholder.
func (r EnrichedRow) Merged() MergedRecord {
	or := func(p *string) string {
		if p == nil {
			return NotAvailable
		}
		return *p
	}
	return MergedRecord{
		Event: EventRecord{
			DrugName:     r.DrugName,
			PatientAge:   r.PatientAge,
			AgeUnit:      r.AgeUnit,
			DrugReaction: r.DrugReaction,
		},
		Label: LabelInfo{
			Dosage:              or(r.Dosage),
			IndicationsAndUsage: or(r.IndicationsAndUsage),
			OverdoseSideEffects: or(r.OverdoseSideEffects),
			Manufacturer:        or(r.Manufacturer),
			GenericName:         or(r.GenericName),
		},
	}
}
