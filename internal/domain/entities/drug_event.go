package entities

import (
	"fmt"
	"time"
)

// NotAvailable is the placeholder openFDA payloads are mapped to when a field is missing.
const NotAvailable = "N/A"

// EventRecord is one (adverse-event report, administered drug) pair
type EventRecord struct {
	DrugName     string `json:"drug_name"`
	PatientAge   string `json:"patient_age"`
	AgeUnit      string `json:"age_unit"`
	DrugReaction string `json:"drug_reaction"`
}

// DateRange is a closed interval of report received dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

const dateLayout = "20060102"

// ParseDateRange parses two YYYYMMDD dates into a DateRange
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Query renders the range as an openFDA receivedate filter
func (r DateRange) Query() string {
	return fmt.Sprintf("receivedate:[%s TO %s]", r.Start.Format(dateLayout), r.End.Format(dateLayout))
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + "-" + r.End.Format(dateLayout)
}
