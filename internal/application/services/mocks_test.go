package services

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/domain/providers"
)

// Mocks

type MockEventSource struct {
	mock.Mock
}

func (m *MockEventSource) SearchEvents(ctx context.Context, query providers.EventQuery) ([]entities.AdverseEventReport, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.AdverseEventReport), args.Error(1)
}

type MockLabelSource struct {
	mock.Mock
}

func (m *MockLabelSource) SearchLabel(ctx context.Context, brandName string) (*entities.DrugLabel, error) {
	args := m.Called(ctx, brandName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DrugLabel), args.Error(1)
}

type MockLabelFetcher struct {
	mock.Mock
}

func (m *MockLabelFetcher) FetchLabel(ctx context.Context, drugName string) (entities.LabelInfo, bool) {
	args := m.Called(ctx, drugName)
	return args.Get(0).(entities.LabelInfo), args.Bool(1)
}

type MockDrugEventRepository struct {
	mock.Mock
}

func (m *MockDrugEventRepository) Replace(ctx context.Context, rows []entities.EnrichedRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockDrugEventRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockDrugEventRepository) List(ctx context.Context) ([]entities.EnrichedRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.EnrichedRow), args.Error(1)
}

// Fixtures

func strPtr(s string) *string { return &s }

func report(age any, reaction string, drugs ...string) entities.AdverseEventReport {
	patient := &entities.ReportPatient{
		OnsetAge:     entities.NewFlexString(age),
		OnsetAgeUnit: entities.NewFlexString("801"),
	}
	if reaction != "" {
		patient.Reactions = []entities.ReportReaction{{Term: strPtr(reaction)}}
	}
	for _, d := range drugs {
		patient.Drugs = append(patient.Drugs, entities.ReportDrug{MedicinalProduct: strPtr(d)})
	}
	return entities.AdverseEventReport{Patient: patient}
}

func reportPage(n, offset int) []entities.AdverseEventReport {
	reports := make([]entities.AdverseEventReport, n)
	for i := range reports {
		reports[i] = report(40, "headache", fmt.Sprintf("DRUG-%d", offset+i))
	}
	return reports
}

func atSkip(skip int) interface{} {
	return mock.MatchedBy(func(q providers.EventQuery) bool { return q.Skip == skip })
}
