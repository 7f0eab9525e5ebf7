package model

import "time"

// Run status values
const (
	StatusPending     = "pending"
	StatusLoading     = "loading"
	StatusCorrelating = "correlating"
	StatusExporting   = "exporting"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// StageMetrics represents metrics for a specific run stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
}

// RunSummary is what a completed (or failed) run reports back
type RunSummary struct {
	RunID        string         `json:"run_id"`
	Status       string         `json:"status"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Rows         int            `json:"rows"`
	ColumnIssues int            `json:"column_issues"`
	Stages       []StageMetrics `json:"stages"`
	Tables       []GroupTable   `json:"tables"`
	Exports      []ExportResult `json:"exports"`
}

// RunInfo is a stored run as listed by the store
type RunInfo struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Target    string    `json:"target"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
