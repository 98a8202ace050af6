package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	apperrors "github.com/zatekoja/drugevents/pkg/errors"
)

func TestLabelService_FetchLabel_Found(t *testing.T) {
	source := new(MockLabelSource)
	source.On("SearchLabel", mock.Anything, "TYLENOL").Return(&entities.DrugLabel{
		DosageAndAdministration: []string{"Take 2 caplets every 6 hours", "ignored"},
		IndicationsAndUsage:     []string{"Temporarily relieves minor aches"},
		Overdosage:              []string{"Liver damage may occur"},
		Warnings:                []string{"Liver warning"},
		OpenFDA: &entities.LabelOpenFDA{
			ManufacturerName: []string{"Kenvue"},
			GenericName:      []string{"ACETAMINOPHEN"},
		},
	}, nil)

	info, found := NewLabelService(source).FetchLabel(context.Background(), "TYLENOL")

	assert.True(t, found)
	assert.Equal(t, entities.LabelInfo{
		Dosage:              "Take 2 caplets every 6 hours",
		IndicationsAndUsage: "Temporarily relieves minor aches",
		OverdoseSideEffects: "Liver damage may occur",
		Manufacturer:        "Kenvue",
		GenericName:         "ACETAMINOPHEN",
	}, info)
}

func TestLabelService_FetchLabel_Absent(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "non-success status", err: apperrors.NewStatusError("openFDA", 500)},
		{name: "no matches", err: apperrors.NewNotFoundError("no label for UNOBTAINIUM")},
		{name: "transport failure", err: errors.New("dial tcp: i/o timeout")},
		{name: "nil label without error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockLabelSource)
			source.On("SearchLabel", mock.Anything, "UNOBTAINIUM").Return(nil, tt.err)

			info, found := NewLabelService(source).FetchLabel(context.Background(), "UNOBTAINIUM")

			assert.False(t, found)
			assert.Equal(t, entities.LabelInfo{}, info)
		})
	}
}

func TestToLabelInfo(t *testing.T) {
	t.Run("missing fields default individually", func(t *testing.T) {
		info := ToLabelInfo(&entities.DrugLabel{IndicationsAndUsage: []string{"Pain"}})

		assert.Equal(t, entities.LabelInfo{
			Dosage:              entities.NotAvailable,
			IndicationsAndUsage: "Pain",
			OverdoseSideEffects: entities.NotAvailable,
			Manufacturer:        entities.NotAvailable,
			GenericName:         entities.NotAvailable,
		}, info)
	})

	t.Run("warnings fill in for absent overdosage", func(t *testing.T) {
		info := ToLabelInfo(&entities.DrugLabel{Warnings: []string{"Reye's syndrome"}})
		assert.Equal(t, "Reye's syndrome", info.OverdoseSideEffects)
	})

	t.Run("empty overdosage does not fall back", func(t *testing.T) {
		info := ToLabelInfo(&entities.DrugLabel{Overdosage: []string{}, Warnings: []string{"Reye's syndrome"}})
		assert.Equal(t, entities.NotAvailable, info.OverdoseSideEffects)
	})

	t.Run("openfda block without names", func(t *testing.T) {
		info := ToLabelInfo(&entities.DrugLabel{OpenFDA: &entities.LabelOpenFDA{BrandName: []string{"BAYER"}}})
		assert.Equal(t, entities.NotAvailable, info.Manufacturer)
		assert.Equal(t, entities.NotAvailable, info.GenericName)
	})
}
