package model

// ProgressStatus is the lifecycle state of an analysis run.
type ProgressStatus string

const (
	ProgressIdle       ProgressStatus = "idle"
	ProgressProcessing ProgressStatus = "processing"
	ProgressComplete   ProgressStatus = "complete"
	ProgressError      ProgressStatus = "error"
)

// ProgressSnapshot is a point-in-time view of a running analysis, safe to
// hand to pollers. Current never decreases within a run.
type ProgressSnapshot struct {
	Current int            `json:"current"`
	Total   int            `json:"total"`
	Status  ProgressStatus `json:"status"`
	Message string         `json:"message"`
}
