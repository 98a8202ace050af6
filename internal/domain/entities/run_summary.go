package entities

import "time"

// StopReason records why event pagination ended
type StopReason string

const (
	StopRowCap      StopReason = "row_cap"
	StopEmptyPage   StopReason = "empty_page"
	StopShortPage   StopReason = "short_page"
	StopRemoteError StopReason = "remote_error"
	StopCancelled   StopReason = "cancelled"
)

// RunSummary describes one completed pipeline run
type RunSummary struct {
	RunID         string
	EventsFetched int
	Pages         int
	StopReason    StopReason
	DistinctDrugs int
	LabelsFound   int
	RowsOut       int
	RowsDropped   int
	Duplicates    int
	Loaded        bool
	Duration      time.Duration
}
