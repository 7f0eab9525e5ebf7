package pipeline

import (
	"errors"

	"go.uber.org/zap"

	"go-correlation-report/internal/dataset"
	"go-correlation-report/internal/model"
)

// ColumnIssue is a configured column that cannot be correlated as loaded
type ColumnIssue struct {
	Column string   `json:"column"`
	Groups []string `json:"groups"`
	Reason string   `json:"reason"` // "missing" or "non-numeric"
}

// ValidateColumns checks the target and every configured predictor against
// the dataset once, before any table is built. Issues are reported in first
// configured order; they do not stop the run, the builder turns the same
// problems into failed rows.
func ValidateColumns(ds *dataset.Dataset, spec model.ReportSpec) []ColumnIssue {
	var issues []ColumnIssue
	seen := make(map[string]int)

	check := func(col, group string) {
		if i, ok := seen[col]; ok {
			if i >= 0 && group != "" {
				issues[i].Groups = appendUnique(issues[i].Groups, group)
			}
			return
		}
		reason := columnProblem(ds, col)
		if reason == "" {
			seen[col] = -1
			return
		}
		seen[col] = len(issues)
		issue := ColumnIssue{Column: col, Reason: reason}
		if group != "" {
			issue.Groups = []string{group}
		}
		issues = append(issues, issue)
	}

	check(spec.Target, "")
	for _, g := range spec.Groups {
		for _, col := range g.Predictors {
			check(col, g.Name)
		}
	}
	return issues
}

func columnProblem(ds *dataset.Dataset, col string) string {
	_, err := ds.Column(col)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, dataset.ErrColumnNotFound):
		return "missing"
	default:
		return "non-numeric"
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func logColumnIssues(logger *zap.Logger, issues []ColumnIssue) {
	for _, is := range issues {
		logger.Warn("Column cannot be correlated",
			zap.String("column", is.Column),
			zap.String("reason", is.Reason),
			zap.Strings("groups", is.Groups))
	}
}
