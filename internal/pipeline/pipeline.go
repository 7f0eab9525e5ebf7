package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-correlation-report/internal/model"
)

var ErrInvalidSpec = errors.New("invalid report spec")

// Options carries the collaborators of a run
type Options struct {
	Logger *zap.Logger
	Store  RunStore // optional
}

// ------------------- Report Runner -------------------

// Run executes one report: load the dataset, build a correlation table per
// predictor group, and export the tables. Load and export failures are
// returned and recorded; per-predictor failures are not errors and show up
// as failed rows in the tables.
func Run(ctx context.Context, runID string, spec model.ReportSpec, opts Options) (summary *model.RunSummary, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", runID))

	tracker := NewRunTracker(runID, opts.Store, logger)
	tracker.Register(spec)
	summary = tracker.Summary()

	start := time.Now()
	logger.Info("Starting report run",
		zap.String("source", spec.Source.Path),
		zap.String("target", spec.Target),
		zap.Int("groups", len(spec.Groups)))

	defer func() {
		if err != nil {
			tracker.Fail(err)
			logger.Error("Report run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		tracker.Complete()
		logger.Info("Report run completed", zap.Duration("elapsed", time.Since(start)))
	}()

	if err = validateSpec(spec, opts); err != nil {
		return summary, err
	}

	// --- LOAD STAGE ---
	done := tracker.StartStage("load", model.StatusLoading)
	ds, err := LoadDataset(ctx, spec.Source, logger)
	if err != nil {
		done(0, 1)
		return summary, fmt.Errorf("load dataset: %w", err)
	}
	done(int64(ds.Len()), 0)
	summary.Rows = ds.Len()

	issues := ValidateColumns(ds, spec)
	summary.ColumnIssues = len(issues)
	logColumnIssues(logger, issues)

	// --- CORRELATION STAGE ---
	done = tracker.StartStage("correlate", model.StatusCorrelating)
	tables, err := buildTables(ctx, ds, spec, logger)
	if err != nil {
		done(0, 1)
		return summary, fmt.Errorf("build correlation tables: %w", err)
	}
	var failed int64
	for _, t := range tables {
		failed += int64(t.FailedCount())
	}
	done(int64(countResults(tables)), failed)
	summary.Tables = tables

	// --- EXPORT STAGE ---
	done = tracker.StartStage("export", model.StatusExporting)
	var rs ResultStore
	if opts.Store != nil {
		rs = opts.Store
	}
	exports, err := NewExportManager(runID, spec, rs, logger).Export(ctx, tables)
	summary.Exports = exports
	if err != nil {
		done(0, 1)
		return summary, err
	}
	done(int64(countResults(tables)), 0)

	return summary, nil
}

func validateSpec(spec model.ReportSpec, opts Options) error {
	switch {
	case spec.Source.Path == "":
		return fmt.Errorf("%w: source path is required", ErrInvalidSpec)
	case spec.Target == "":
		return fmt.Errorf("%w: target column is required", ErrInvalidSpec)
	case spec.Export.File == "" && opts.Store == nil:
		return fmt.Errorf("%w: an output file or database is required", ErrInvalidSpec)
	}
	return nil
}
