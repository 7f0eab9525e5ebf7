package pipeline_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"go-correlation-report/internal/model"
	"go-correlation-report/internal/pipeline"
)

func exportTables() []model.GroupTable {
	ds := employees()
	return []model.GroupTable{
		{Sheet: "Attr_Demo", Target: "Attrition", Results: pipeline.BuildCorrelationTable(ds, "Attrition", []string{"Attrition", "Age", "Education"}, 0.05)},
		{Sheet: "Attr_Sat", Target: "Attrition", Results: pipeline.BuildCorrelationTable(ds, "Attrition", []string{"Job Satisfaction", "Constant"}, 0.05)},
	}
}

func exportSpec(file string) model.ReportSpec {
	return model.ReportSpec{
		Source:            model.Source{Path: "employees.xlsx", Sheet: "Cleaned Data"},
		Target:            "Attrition",
		SignificanceLevel: 0.05,
		Export:            model.Export{File: file},
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "correlation_results.xlsx")
	em := pipeline.NewExportManager("run-1", exportSpec(path), nil, zap.NewNop())

	results, err := em.Export(context.Background(), exportTables())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "xlsx", results[0].Type)
	assert.Equal(t, 4, results[0].RecordCount)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Attr_Demo", "Attr_Sat", "Run Info"}, f.GetSheetList())

	rows, err := f.GetRows("Attr_Demo")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Variable", "Correlation (r)", "P-value", "Significant (p < 0.05)"}, rows[0])
	require.Len(t, rows[1], 4)
	assert.Equal(t, "Age", rows[1][0])
	assert.Equal(t, "Yes", rows[1][3])
	r, err := strconv.ParseFloat(rows[1][1], 64)
	require.NoError(t, err, "r is stored as a number")
	assert.Equal(t, -0.85, r)
	p, err := strconv.ParseFloat(rows[1][2], 64)
	require.NoError(t, err, "p is stored as a number")
	assert.InDelta(t, 0.00192, p, 1e-9)
	assert.Equal(t, "Education", rows[2][0])
	assert.Equal(t, "No", rows[2][3])

	rows, err = f.GetRows("Attr_Sat")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows[1:] {
		assert.Equal(t, model.CorrelationErrorSentinel, row[1])
		assert.NotEmpty(t, row[2])
		assert.Equal(t, "No", row[3])
	}
	assert.Contains(t, rows[1][2], "column not found")

	info, err := f.GetRows("Run Info")
	require.NoError(t, err)
	assert.Equal(t, []string{"Run ID", "run-1"}, info[0])
	assert.Equal(t, []string{"Target", "Attrition"}, info[3])
}

func TestExportXLSXSheetNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	em := pipeline.NewExportManager("run-1", exportSpec(path), nil, zap.NewNop())

	long := strings.Repeat("Compensation", 4)
	tables := []model.GroupTable{
		{Sheet: long},
		{Sheet: long},
		{Sheet: "Pay/Benefits"},
		{Sheet: "run info"},
	}
	_, err := em.Export(context.Background(), tables)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 5)
	assert.Equal(t, long[:31], sheets[0])
	assert.Equal(t, long[:29]+"_2", sheets[1])
	assert.Equal(t, "Pay_Benefits", sheets[2])
	assert.Equal(t, "run info", sheets[3])
	assert.Equal(t, "Run Info_2", sheets[4])
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	em := pipeline.NewExportManager("run-1", exportSpec(filepath.Join(dir, "results.csv")), nil, zap.NewNop())

	results, err := em.Export(context.Background(), exportTables())
	require.NoError(t, err)
	assert.Equal(t, 4, results[0].RecordCount)

	file, err := os.Open(filepath.Join(dir, "results_Attr_Sat.csv"))
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Job Satisfaction", records[1][0])
	assert.Equal(t, "ERROR", records[1][1])

	assert.FileExists(t, filepath.Join(dir, "results_Attr_Demo.csv"))
}

func TestExportJSON(t *testing.T) {
	base := t.TempDir()
	spec := exportSpec("report.json")
	spec.Export.Dir = base
	em := pipeline.NewExportManager("run-7", spec, nil, zap.NewNop())

	results, err := em.Export(context.Background(), exportTables())
	require.NoError(t, err)
	path := filepath.Join(base, "run-7", "report.json")
	assert.Equal(t, path, results[0].Path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		ExportInfo struct {
			RunID  string `json:"run_id"`
			Target string `json:"target"`
		} `json:"export_info"`
		Tables []model.GroupTable `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "run-7", doc.ExportInfo.RunID)
	assert.Equal(t, "Attrition", doc.ExportInfo.Target)
	assert.Equal(t, exportTables(), doc.Tables)

	// failed rows carry the sentinel, never a numeric 0
	var raw struct {
		Tables []struct {
			Results []map[string]interface{} `json:"results"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(body, &raw))
	failed := raw.Tables[1].Results[0]
	assert.Equal(t, "Job Satisfaction", failed["variable"])
	assert.Equal(t, model.CorrelationErrorSentinel, failed["correlation"])
	assert.Equal(t, failed["error"], failed["p_value"])
	assert.Contains(t, failed["p_value"], "column not found")
	assert.Equal(t, false, failed["significant"])

	ok := raw.Tables[0].Results[0]
	assert.Equal(t, "Age", ok["variable"])
	assert.IsType(t, float64(0), ok["correlation"])
	assert.IsType(t, float64(0), ok["p_value"])
}

func TestExportUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	em := pipeline.NewExportManager("run-1", exportSpec(path), nil, zap.NewNop())

	results, err := em.Export(context.Background(), exportTables())
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
}
