package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/drugevents/internal/domain/entities"
)

func event(drug, age, reaction string) entities.EventRecord {
	return entities.EventRecord{DrugName: drug, PatientAge: age, AgeUnit: "801", DrugReaction: reaction}
}

func TestTransform_EndToEndScenario(t *testing.T) {
	svc := NewTransformService()
	events := []entities.EventRecord{
		{DrugName: "Aspirin", PatientAge: "8", AgeUnit: "801", DrugReaction: "mild fever"},
		{DrugName: "N/A", PatientAge: "70", AgeUnit: "801", DrugReaction: "death reported"},
	}

	rows, stats := svc.TransformEvents(context.Background(), events, map[string]entities.LabelInfo{})

	require.Len(t, rows, 1)
	assert.Equal(t, "Aspirin", rows[0].DrugName)
	assert.Equal(t, "aspirin", rows[0].DrugNameCleaned)
	assert.Equal(t, 8.0, rows[0].PatientAgeNumeric)
	assert.Equal(t, entities.AgeGroupChild, rows[0].AgeGroup)
	assert.Equal(t, entities.SeverityModerate, rows[0].ReactionSeverity)
	assert.Nil(t, rows[0].Dosage)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 2, stats.NullCounts["dosage"])
	assert.Equal(t, 1, stats.NullCounts["drug_name"])
}

func TestClassifyReaction(t *testing.T) {
	tests := []struct {
		reaction *string
		want     entities.ReactionSeverity
	}{
		{strPtr("Death"), entities.SeveritySevere},
		{strPtr("FATAL arrhythmia"), entities.SeveritySevere},
		{strPtr("Hospitalisation"), entities.SeveritySevere},
		{strPtr("fever then death"), entities.SeveritySevere},
		{strPtr("Severe rash"), entities.SeveritySevere},
		{strPtr("Rash"), entities.SeverityModerate},
		{strPtr("NAUSEA"), entities.SeverityModerate},
		{strPtr("Pyrexia"), entities.SeverityMild},
		{strPtr(""), entities.SeverityMild},
		{nil, entities.SeverityUnknown},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.reaction != nil {
			name = *tt.reaction
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyReaction(tt.reaction))
		})
	}
}

func TestClassifyAge(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name string
		age  *float64
		want entities.AgeGroup
	}{
		{"zero", f(0), entities.AgeGroupChild},
		{"just under 12", f(11.99), entities.AgeGroupChild},
		{"12 is adult", f(12), entities.AgeGroupAdult},
		{"59.5", f(59.5), entities.AgeGroupAdult},
		{"60 is senior", f(60), entities.AgeGroupSenior},
		{"101", f(101), entities.AgeGroupSenior},
		{"nil", nil, entities.AgeGroupUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAge(tt.age))
		})
	}
}

func TestTransform_EssentialFieldFilter(t *testing.T) {
	svc := NewTransformService()
	events := []entities.EventRecord{
		event("ASPIRIN", "30", "Headache"),
		event("None", "30", "Headache"),
		event("WARFARIN", "30", "null"),
		event("IBUPROFEN", "N/A", "Rash"),
		event("", "45", "Rash"),
		event("NAPROXEN", "NA", " "),
	}

	rows, stats := svc.TransformEvents(context.Background(), events, nil)

	require.Len(t, rows, 2)
	assert.Equal(t, "ASPIRIN", rows[0].DrugName)
	assert.Equal(t, "IBUPROFEN", rows[1].DrugName)
	assert.Equal(t, 4, stats.Dropped)
	assert.Equal(t, 6, stats.Input)
	assert.Equal(t, 2, stats.Output)
}

func TestTransform_BackfillsNonEssentialFields(t *testing.T) {
	svc := NewTransformService()
	events := []entities.EventRecord{
		{DrugName: "IBUPROFEN", PatientAge: "N/A", AgeUnit: "N/A", DrugReaction: "Rash"},
		{DrugName: "  Tylenol PM ", PatientAge: "forty", AgeUnit: "801", DrugReaction: "Dizziness"},
	}

	rows, _ := svc.TransformEvents(context.Background(), events, nil)

	require.Len(t, rows, 2)
	assert.Equal(t, "0", rows[0].PatientAge)
	assert.Equal(t, "unknown", rows[0].AgeUnit)
	assert.Equal(t, 0.0, rows[0].PatientAgeNumeric)
	assert.Equal(t, entities.AgeGroupUnknown, rows[0].AgeGroup)

	assert.Equal(t, "forty", rows[1].PatientAge)
	assert.Equal(t, "tylenol pm", rows[1].DrugNameCleaned)
	assert.Equal(t, entities.AgeGroupUnknown, rows[1].AgeGroup)
	assert.Equal(t, entities.SeverityMild, rows[1].ReactionSeverity)
}

func TestTransform_RemovesExactDuplicates(t *testing.T) {
	svc := NewTransformService()
	labels := map[string]entities.LabelInfo{"ASPIRIN": labelFor("ASPIRIN")}
	events := []entities.EventRecord{
		event("ASPIRIN", "30", "Headache"),
		event("ASPIRIN", "30", "Headache"),
		event("ASPIRIN", "31", "Headache"),
		// "N/A" and "NA" canonicalize to the same null
		event("ASPIRIN", "N/A", "Headache"),
		event("ASPIRIN", "NA", "Headache"),
	}

	rows, stats := svc.TransformEvents(context.Background(), events, labels)

	assert.Len(t, rows, 3)
	assert.Equal(t, 2, stats.Duplicates)
	require.NotNil(t, rows[0].GenericName)
	assert.Equal(t, "ASPIRIN", *rows[0].GenericName)
}

func TestTransform_Idempotent(t *testing.T) {
	svc := NewTransformService()
	labels := map[string]entities.LabelInfo{
		"ASPIRIN":  labelFor("ASPIRIN"),
		"WARFARIN": entities.DefaultLabelInfo(),
	}
	events := []entities.EventRecord{
		event("ASPIRIN", "8", "mild fever"),
		event("ASPIRIN", "8", "mild fever"),
		event("WARFARIN", "71", "Death"),
		event("N/A", "40", "Rash"),
		event(" Lipitor ", "12", "Myalgia"),
	}

	first, _ := svc.TransformEvents(context.Background(), events, labels)

	merged := make([]entities.MergedRecord, len(first))
	for i, row := range first {
		merged[i] = row.Merged()
	}
	second, stats := svc.Transform(context.Background(), merged)

	assert.Equal(t, first, second)
	assert.Zero(t, stats.Duplicates)
	assert.Zero(t, stats.Dropped)
}

func TestMerge(t *testing.T) {
	svc := NewTransformService()
	labels := map[string]entities.LabelInfo{"ASPIRIN": labelFor("ASPIRIN")}

	merged := svc.Merge([]entities.EventRecord{
		event("ASPIRIN", "8", "Rash"),
		event("N/A", "8", "Rash"),
		event("aspirin", "8", "Rash"),
	}, labels)

	require.Len(t, merged, 3)
	assert.Equal(t, labelFor("ASPIRIN"), merged[0].Label)
	assert.Equal(t, entities.DefaultLabelInfo(), merged[1].Label)
	assert.Equal(t, entities.DefaultLabelInfo(), merged[2].Label, "join is exact on drug name")
	assert.Equal(t, entities.ColumnIndicationsAndUsage, merged[0].Columns()[5])
}
