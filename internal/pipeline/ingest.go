package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"go-correlation-report/internal/dataset"
	"go-correlation-report/internal/model"
	"go-correlation-report/pkg/utils"
)

var (
	ErrUnsupportedSource = errors.New("unsupported source type")
	ErrEmptySource       = errors.New("source has no header row")
)

// ------------------- Ingestion -------------------

// LoadDataset reads the whole source into memory. The format is chosen by
// file extension: .xlsx (named sheet), .csv, or .json (array of objects).
func LoadDataset(ctx context.Context, source model.Source, logger *zap.Logger) (*dataset.Dataset, error) {
	logger.Info("Starting ingestion", zap.String("source", source.Path), zap.String("sheet", source.Sheet))

	var (
		ds  *dataset.Dataset
		err error
	)
	switch utils.GetFileType(source.Path) {
	case "xlsx":
		ds, err = ingestXLSX(ctx, source.Path, source.Sheet)
	case "csv":
		ds, err = ingestCSV(ctx, source.Path)
	case "json":
		ds, err = ingestJSON(ctx, source.Path)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedSource, source.Path)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Finished ingestion",
		zap.String("source", source.Path),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(ds.Columns())))
	return ds, nil
}

// ------------------- XLSX Ingestion -------------------
func ingestXLSX(ctx context.Context, path, sheet string) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return fromStringRows(ctx, path, rows)
}

// ------------------- CSV Ingestion -------------------
func ingestCSV(ctx context.Context, pathOrURL string) (*dataset.Dataset, error) {
	var reader io.Reader
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build CSV request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to GET CSV: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to GET CSV: %s", resp.Status)
		}
		reader = resp.Body
	} else {
		file, err := os.Open(pathOrURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV read error: %w", err)
	}
	return fromStringRows(ctx, pathOrURL, rows)
}

// fromStringRows treats the first row as the header. Rows shorter than the
// header leave the trailing cells missing; blank rows are skipped.
func fromStringRows(ctx context.Context, src string, rows [][]string) (*dataset.Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, src)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = utils.CleanHeader(h)
	}

	records := make([]model.GenericRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlank(row) {
			continue
		}
		rec := make(model.GenericRecord, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = utils.ParseValue(row[i])
			} else {
				rec[h] = nil
			}
		}
		records = append(records, rec)
	}

	return dataset.New(nonEmpty(headers), records), nil
}

// ------------------- JSON Ingestion -------------------
func ingestJSON(ctx context.Context, path string) (*dataset.Dataset, error) {
	bodyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}

	// header order: keys of each object sorted, in order of first appearance
	seen := make(map[string]bool)
	var headers []string
	records := make([]model.GenericRecord, 0, len(raw))
	for _, item := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(item))
		for k := range item {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rec := make(model.GenericRecord, len(item))
		for _, k := range keys {
			h := utils.CleanHeader(k)
			if !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
			rec[h] = jsonValue(item[k])
		}
		records = append(records, rec)
	}

	return dataset.New(headers, records), nil
}

// jsonValue keeps numbers, booleans and nulls; strings go through the same
// parsing as spreadsheet cells so "3" and "NA" behave alike across formats.
func jsonValue(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return utils.ParseValue(s)
	}
	return v
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func nonEmpty(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}
