package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// AdverseEventReport is one report object from the drug event endpoint.
// Only the fields the pipeline reads are decoded.
type AdverseEventReport struct {
	SafetyReportID string         `json:"safetyreportid,omitempty"`
	ReceiveDate    string         `json:"receivedate,omitempty"`
	Patient        *ReportPatient `json:"patient,omitempty"`
}

// ReportPatient is the patient context of a report
type ReportPatient struct {
	OnsetAge     *FlexString      `json:"patientonsetage,omitempty"`
	OnsetAgeUnit *FlexString      `json:"patientonsetageunit,omitempty"`
	Reactions    []ReportReaction `json:"reaction,omitempty"`
	Drugs        []ReportDrug     `json:"drug,omitempty"`
}

// ReportReaction is one MedDRA reaction term
type ReportReaction struct {
	Term *string `json:"reactionmeddrapt,omitempty"`
}

// ReportDrug is one administered drug
type ReportDrug struct {
	MedicinalProduct *string `json:"medicinalproduct,omitempty"`
}

// DrugLabel is one document from the drug label endpoint. Text sections are
// lists, usually with a single element.
type DrugLabel struct {
	DosageAndAdministration []string      `json:"dosage_and_administration,omitempty"`
	IndicationsAndUsage     []string      `json:"indications_and_usage,omitempty"`
	Overdosage              []string      `json:"overdosage"`
	Warnings                []string      `json:"warnings,omitempty"`
	OpenFDA                 *LabelOpenFDA `json:"openfda,omitempty"`
}

// LabelOpenFDA is the harmonised openfda block of a label
type LabelOpenFDA struct {
	BrandName        []string `json:"brand_name,omitempty"`
	GenericName      []string `json:"generic_name,omitempty"`
	ManufacturerName []string `json:"manufacturer_name,omitempty"`
}

// FlexString decodes a JSON string or number into its string form
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the decoded value
func (f FlexString) String() string { return string(f) }

// NewFlexString is a convenience for building payloads in code
func NewFlexString(v any) *FlexString {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case int:
		s = strconv.Itoa(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil
	}
	f := FlexString(s)
	return &f
}
