package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-correlation-report/internal/model"
	"go-correlation-report/internal/pipeline"
)

func TestValidateColumns(t *testing.T) {
	spec := model.ReportSpec{
		Target: "Attrition",
		Groups: []model.PredictorGroup{
			{Name: "Demo", Predictors: []string{"Attrition", "Age", "Department", "Salary"}},
			{Name: "Comp", Predictors: []string{"Salary", "Monthly Income", "Salary"}},
		},
	}

	issues := pipeline.ValidateColumns(employees(), spec)
	assert.Equal(t, []pipeline.ColumnIssue{
		{Column: "Department", Groups: []string{"Demo"}, Reason: "non-numeric"},
		{Column: "Salary", Groups: []string{"Demo", "Comp"}, Reason: "missing"},
	}, issues)
}

func TestValidateColumnsMissingTarget(t *testing.T) {
	spec := model.ReportSpec{
		Target: "Turnover",
		Groups: []model.PredictorGroup{{Name: "Demo", Predictors: []string{"Age", "Turnover"}}},
	}

	issues := pipeline.ValidateColumns(employees(), spec)
	assert.Equal(t, []pipeline.ColumnIssue{{Column: "Turnover", Groups: []string{"Demo"}, Reason: "missing"}}, issues)
}
