package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-correlation-report/internal/dataset"
	"go-correlation-report/internal/model"
	"go-correlation-report/pkg/stats"
)

// DefaultSignificanceLevel is used when no level in (0, 1) is given.
const DefaultSignificanceLevel = 0.05

const (
	correlationPlaces = 2
	pValuePlaces      = 5
)

// BuildCorrelationTable correlates target against each predictor in order and
// returns one result per predictor, skipping any predictor named target.
// A predictor that cannot be computed yields a failed row instead of an
// error, so the result always has one row per analyzed predictor. Duplicate
// predictors each get their own row. ds is only read.
func BuildCorrelationTable(ds *dataset.Dataset, target string, predictors []string, level float64) []model.CorrelationResult {
	if !(level > 0 && level < 1) {
		level = DefaultSignificanceLevel
	}

	y, targetErr := ds.Column(target)

	results := make([]model.CorrelationResult, 0, len(predictors))
	for _, col := range predictors {
		if col == target {
			continue
		}

		st, err := correlate(ds, col, y, targetErr)
		if err != nil {
			results = append(results, model.CorrelationResult{
				Variable: col,
				N:        st.N,
				Err:      err.Error(),
			})
			continue
		}

		results = append(results, model.CorrelationResult{
			Variable:    col,
			Correlation: stats.Round(st.R, correlationPlaces),
			PValue:      stats.Round(st.P, pValuePlaces),
			N:           st.N,
			Significant: st.P < level,
		})
	}
	return results
}

// correlate returns the statistics for one predictor or a
// *stats.ComputationError describing why there are none.
func correlate(ds *dataset.Dataset, col string, y []float64, targetErr error) (stats.CorrelationStats, error) {
	if targetErr != nil {
		return stats.CorrelationStats{}, &stats.ComputationError{Variable: col, Err: targetErr}
	}
	x, err := ds.Column(col)
	if err != nil {
		return stats.CorrelationStats{}, &stats.ComputationError{Variable: col, Err: err}
	}
	// target first, matching the column order of the report
	st, err := stats.Pearson(y, x)
	if err != nil {
		return st, &stats.ComputationError{Variable: col, Err: err}
	}
	return st, nil
}

// buildTables computes one table per group with at most workers groups in
// flight. Tables come back in group order.
func buildTables(ctx context.Context, ds *dataset.Dataset, spec model.ReportSpec, logger *zap.Logger) ([]model.GroupTable, error) {
	tables := make([]model.GroupTable, len(spec.Groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(spec.Concurrency.Workers, len(spec.Groups)))

	for i, group := range spec.Groups {
		i, group := i, group
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results := BuildCorrelationTable(ds, spec.Target, group.Predictors, spec.SignificanceLevel)
			tables[i] = model.GroupTable{Sheet: group.Name, Target: spec.Target, Results: results}

			logger.Info("Correlation table built",
				zap.String("group", group.Name),
				zap.Int("predictors", len(results)),
				zap.Int("failed", tables[i].FailedCount()))
			for _, r := range results {
				if r.Failed() {
					logger.Warn("Predictor could not be analyzed",
						zap.String("group", group.Name),
						zap.String("variable", r.Variable),
						zap.String("error", r.Err))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func workerCount(configured, groups int) int {
	if configured <= 0 || configured > groups {
		configured = groups
	}
	if configured < 1 {
		return 1
	}
	return configured
}
