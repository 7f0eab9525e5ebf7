package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"go-correlation-report/internal/model"
	"go-correlation-report/pkg/utils"
)

const (
	runInfoSheet      = "Run Info"
	maxSheetNameRunes = 31
)

// ResultStore persists correlation tables for a run
type ResultStore interface {
	SaveResults(runID string, tables []model.GroupTable) error
}

// ExportManager handles writing correlation tables to their targets
type ExportManager struct {
	RunID      string
	Spec       model.ReportSpec
	Store      ResultStore
	Output     *utils.OutputManager
	Logger     *zap.Logger
	ExportedAt time.Time
}

// NewExportManager creates an export manager for one run
func NewExportManager(runID string, spec model.ReportSpec, store ResultStore, logger *zap.Logger) *ExportManager {
	return &ExportManager{
		RunID:      runID,
		Spec:       spec,
		Store:      store,
		Output:     utils.NewOutputManager(spec.Export.Dir),
		Logger:     logger,
		ExportedAt: time.Now().UTC(),
	}
}

// Export writes the tables to the configured file and, when a store is
// attached, to the database. Each target reports its own ExportResult; the
// returned error is the first failure, if any.
func (em *ExportManager) Export(ctx context.Context, tables []model.GroupTable) ([]model.ExportResult, error) {
	var (
		results  []model.ExportResult
		firstErr error
	)

	if em.Spec.Export.File != "" {
		res := em.exportToFile(ctx, tables)
		results = append(results, res)
		if !res.Success && firstErr == nil {
			firstErr = fmt.Errorf("export to %s failed: %s", res.Path, res.Error)
		}
	}

	if em.Store != nil {
		res := em.exportToDatabase(ctx, tables)
		results = append(results, res)
		if !res.Success && firstErr == nil {
			firstErr = fmt.Errorf("export to database failed: %s", res.Error)
		}
	}

	return results, firstErr
}

// exportToFile dispatches on the output file extension
func (em *ExportManager) exportToFile(ctx context.Context, tables []model.GroupTable) model.ExportResult {
	result := model.ExportResult{Type: utils.GetFileType(em.Spec.Export.File), Path: em.Spec.Export.File}

	path, err := em.Output.GetOutputFilePath(em.RunID, em.Spec.Export.File)
	if err == nil {
		result.Path = path
		err = ctx.Err()
	}

	var recordCount int
	if err == nil {
		switch result.Type {
		case "xlsx":
			recordCount, err = em.exportToXLSX(path, tables)
		case "json":
			recordCount, err = em.exportToJSON(path, tables)
		case "csv":
			recordCount, err = em.exportToCSV(path, tables)
		default:
			err = fmt.Errorf("unsupported output type: %s", em.Spec.Export.File)
		}
	}

	result.RecordCount = recordCount
	result.Success = err == nil
	result.ExportedAt = time.Now().UTC()
	if err != nil {
		result.Error = err.Error()
		em.Logger.Error("Export to file failed", zap.String("path", result.Path), zap.Error(err))
	} else {
		em.Logger.Info("Export to file successful", zap.String("path", result.Path), zap.Int("records", recordCount))
	}
	return result
}

// exportToXLSX writes one sheet per table plus a run info sheet
func (em *ExportManager) exportToXLSX(path string, tables []model.GroupTable) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	names := make([]string, 0, len(tables)+1)
	for _, t := range tables {
		names = append(names, t.Sheet)
	}
	names = sheetNames(append(names, runInfoSheet))

	// the new workbook starts with one default sheet; reuse it for the first name
	if err := f.SetSheetName(f.GetSheetName(0), names[0]); err != nil {
		return 0, fmt.Errorf("failed to name sheet %q: %w", names[0], err)
	}
	for _, name := range names[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return 0, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}

	level := em.significanceLevel()
	recordCount := 0
	for i, t := range tables {
		sheet := names[i]
		rows := make([][]interface{}, 0, len(t.Results)+1)
		rows = append(rows, toCells(model.TableHeader(level)))
		for _, r := range t.Results {
			rows = append(rows, r.Cells())
		}
		if err := writeRows(f, sheet, rows); err != nil {
			return recordCount, err
		}
		if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
			return recordCount, fmt.Errorf("failed to style sheet %q: %w", sheet, err)
		}
		if err := f.SetColWidth(sheet, "A", "D", 24); err != nil {
			return recordCount, fmt.Errorf("failed to size sheet %q: %w", sheet, err)
		}
		recordCount += len(t.Results)
	}

	info := [][]interface{}{
		{"Run ID", em.RunID},
		{"Source", em.Spec.Source.Path},
		{"Sheet", em.Spec.Source.Sheet},
		{"Target", em.Spec.Target},
		{"Significance level", level},
		{"Generated at", em.ExportedAt.Format(time.RFC3339)},
	}
	infoSheet := names[len(names)-1]
	if err := writeRows(f, infoSheet, info); err != nil {
		return recordCount, err
	}
	if err := f.SetColWidth(infoSheet, "A", "B", 28); err != nil {
		return recordCount, fmt.Errorf("failed to size sheet %q: %w", infoSheet, err)
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return recordCount, fmt.Errorf("failed to save workbook: %w", err)
	}
	return recordCount, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %q: %w", i+1, sheet, err)
		}
	}
	return nil
}

// exportToJSON writes all tables to one JSON document
func (em *ExportManager) exportToJSON(path string, tables []model.GroupTable) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":             em.RunID,
			"exported_at":        em.ExportedAt,
			"source":             em.Spec.Source.Path,
			"target":             em.Spec.Target,
			"significance_level": em.significanceLevel(),
		},
		"tables": tables,
	}

	if err := encoder.Encode(exportData); err != nil {
		return 0, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return countResults(tables), nil
}

// exportToCSV writes one CSV per table next to path: <base>_<sheet>.csv
func (em *ExportManager) exportToCSV(path string, tables []model.GroupTable) (int, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	level := em.significanceLevel()

	recordCount := 0
	for _, t := range tables {
		n, err := writeCSVTable(base+"_"+fileSafe(t.Sheet)+".csv", level, t)
		recordCount += n
		if err != nil {
			return recordCount, err
		}
	}
	return recordCount, nil
}

func writeCSVTable(path string, level float64, t model.GroupTable) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(model.TableHeader(level)); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	recordCount := 0
	for _, r := range t.Results {
		row := []string{r.Variable, r.CorrelationLabel(), r.PValueLabel(), r.SignificantLabel()}
		if err := writer.Write(row); err != nil {
			return recordCount, fmt.Errorf("failed to write row: %w", err)
		}
		recordCount++
	}

	writer.Flush()
	return recordCount, writer.Error()
}

// exportToDatabase stores the tables in the run store
func (em *ExportManager) exportToDatabase(ctx context.Context, tables []model.GroupTable) model.ExportResult {
	result := model.ExportResult{Type: "database", Path: em.Spec.Export.DB}

	err := ctx.Err()
	if err == nil {
		err = em.Store.SaveResults(em.RunID, tables)
	}

	result.Success = err == nil
	result.ExportedAt = time.Now().UTC()
	if err != nil {
		result.Error = err.Error()
		em.Logger.Error("Export to database failed", zap.Error(err))
	} else {
		result.RecordCount = countResults(tables)
		em.Logger.Info("Export to database successful", zap.Int("records", result.RecordCount))
	}
	return result
}

func (em *ExportManager) significanceLevel() float64 {
	if l := em.Spec.SignificanceLevel; l > 0 && l < 1 {
		return l
	}
	return DefaultSignificanceLevel
}

func countResults(tables []model.GroupTable) int {
	n := 0
	for _, t := range tables {
		n += len(t.Results)
	}
	return n
}

func toCells(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// sheetNames makes names valid and unique as worksheet names: no
// []:*?/\ characters, at most 31 characters, case-insensitively distinct.
func sheetNames(names []string) []string {
	replacer := strings.NewReplacer("[", "_", "]", "_", ":", "_", "*", "_", "?", "_", "/", "_", `\`, "_")
	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		name = strings.Trim(replacer.Replace(name), "'")
		if name == "" {
			name = "Sheet" + strconv.Itoa(i+1)
		}
		name = truncateRunes(name, maxSheetNameRunes)

		candidate := name
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			suffix := "_" + strconv.Itoa(n)
			candidate = truncateRunes(name, maxSheetNameRunes-len(suffix)) + suffix
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
