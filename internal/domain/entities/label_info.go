package entities

// LabelInfo is the descriptive label metadata for one drug name
type LabelInfo struct {
	Dosage              string `json:"dosage"`
	IndicationsAndUsage string `json:"indications_and_usage"`
	OverdoseSideEffects string `json:"overdose_side_effects"`
	Manufacturer        string `json:"manufacturer_name"`
	GenericName         string `json:"generic_name"`
}

// DefaultLabelInfo is the record used when a label lookup fails or finds nothing
func DefaultLabelInfo() LabelInfo {
	return LabelInfo{
		Dosage:              NotAvailable,
		IndicationsAndUsage: NotAvailable,
		OverdoseSideEffects: NotAvailable,
		Manufacturer:        NotAvailable,
		GenericName:         NotAvailable,
	}
}
