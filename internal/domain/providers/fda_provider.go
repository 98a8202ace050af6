package providers

import (
	"context"

	"github.com/zatekoja/drugevents/internal/domain/entities"
)

// EventQuery selects one page of adverse-event reports
type EventQuery struct {
	Range entities.DateRange
	Limit int
	Skip  int
}

// EventSource searches adverse-event reports
type EventSource interface {
	SearchEvents(ctx context.Context, query EventQuery) ([]entities.AdverseEventReport, error)
}

// LabelSource looks up the label document for a brand name
type LabelSource interface {
	SearchLabel(ctx context.Context, brandName string) (*entities.DrugLabel, error)
}
