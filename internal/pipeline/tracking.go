package pipeline

import (
	"time"

	"go.uber.org/zap"

	"go-correlation-report/internal/model"
)

// RunStore records run lifecycle and results
type RunStore interface {
	ResultStore
	SaveRun(runID string, spec model.ReportSpec) error
	UpdateRunStatus(runID string, status string) error
	SaveRunError(runID string, err error) error
}

// RunTracker follows one run through its stages, mirroring status into the
// store when one is attached. Store failures are logged, never fatal.
type RunTracker struct {
	store   RunStore
	logger  *zap.Logger
	summary *model.RunSummary
}

// NewRunTracker starts tracking runID
func NewRunTracker(runID string, store RunStore, logger *zap.Logger) *RunTracker {
	return &RunTracker{
		store:  store,
		logger: logger,
		summary: &model.RunSummary{
			RunID:     runID,
			Status:    model.StatusPending,
			StartTime: time.Now().UTC(),
		},
	}
}

// Summary returns the run summary collected so far
func (t *RunTracker) Summary() *model.RunSummary {
	return t.summary
}

// Register saves the run and its spec
func (t *RunTracker) Register(spec model.ReportSpec) {
	if t.store == nil {
		return
	}
	if err := t.store.SaveRun(t.summary.RunID, spec); err != nil {
		t.logger.Warn("Failed to save run", zap.String("run_id", t.summary.RunID), zap.Error(err))
	}
}

// SetStatus updates the run status
func (t *RunTracker) SetStatus(status string) {
	t.summary.Status = status
	if t.store == nil {
		return
	}
	if err := t.store.UpdateRunStatus(t.summary.RunID, status); err != nil {
		t.logger.Warn("Failed to update run status",
			zap.String("run_id", t.summary.RunID),
			zap.String("status", status),
			zap.Error(err))
	}
}

// StartStage sets the stage status and returns a func that closes the stage
// with its processed and failed counts.
func (t *RunTracker) StartStage(name, status string) func(records, errors int64) {
	t.SetStatus(status)
	start := time.Now()
	t.logger.Debug("Stage started", zap.String("stage", name))

	return func(records, errors int64) {
		end := time.Now()
		m := model.StageMetrics{
			StageName:        name,
			StartTime:        start,
			EndTime:          end,
			Duration:         end.Sub(start),
			RecordsProcessed: records,
			ErrorCount:       errors,
		}
		t.summary.Stages = append(t.summary.Stages, m)
		t.logger.Info("Stage completed",
			zap.String("stage", name),
			zap.Duration("duration", m.Duration),
			zap.Int64("records", records),
			zap.Int64("errors", errors))
	}
}

// Fail marks the run failed and records err
func (t *RunTracker) Fail(err error) {
	t.summary.EndTime = time.Now().UTC()
	t.SetStatus(model.StatusFailed)
	if t.store == nil {
		return
	}
	if serr := t.store.SaveRunError(t.summary.RunID, err); serr != nil {
		t.logger.Warn("Failed to save run error", zap.String("run_id", t.summary.RunID), zap.Error(serr))
	}
}

// Complete marks the run completed
func (t *RunTracker) Complete() {
	t.summary.EndTime = time.Now().UTC()
	t.SetStatus(model.StatusCompleted)
}
