package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// CorrelationErrorSentinel is rendered in place of r for a failed predictor.
const CorrelationErrorSentinel = "ERROR"

// CorrelationResult is one row of a correlation table
type CorrelationResult struct {
	Variable    string  `json:"variable"`
	Correlation float64 `json:"correlation"`
	PValue      float64 `json:"p_value"`
	N           int     `json:"n"`
	Significant bool    `json:"significant"`
	Err         string  `json:"error,omitempty"`
}

// Failed reports whether the correlation could not be computed.
func (r CorrelationResult) Failed() bool {
	return r.Err != ""
}

// CorrelationLabel renders r, or the error sentinel.
func (r CorrelationResult) CorrelationLabel() string {
	if r.Failed() {
		return CorrelationErrorSentinel
	}
	return strconv.FormatFloat(r.Correlation, 'f', -1, 64)
}

// PValueLabel renders p, or the error description.
func (r CorrelationResult) PValueLabel() string {
	if r.Failed() {
		return r.Err
	}
	return strconv.FormatFloat(r.PValue, 'f', -1, 64)
}

// SignificantLabel renders "Yes" or "No".
func (r CorrelationResult) SignificantLabel() string {
	if r.Significant && !r.Failed() {
		return "Yes"
	}
	return "No"
}

// Cells returns the row as spreadsheet cell values. Failed rows carry
// strings in the numeric columns so they cannot be mistaken for numbers.
func (r CorrelationResult) Cells() []interface{} {
	if r.Failed() {
		return []interface{}{r.Variable, CorrelationErrorSentinel, r.Err, r.SignificantLabel()}
	}
	return []interface{}{r.Variable, r.Correlation, r.PValue, r.SignificantLabel()}
}

type resultJSON struct {
	Variable    string      `json:"variable"`
	Correlation interface{} `json:"correlation"`
	PValue      interface{} `json:"p_value"`
	N           int         `json:"n"`
	Significant bool        `json:"significant"`
	Err         string      `json:"error,omitempty"`
}

// MarshalJSON writes failed rows with the sentinel in "correlation" and the
// error text in "p_value", as in the spreadsheet.
func (r CorrelationResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{Variable: r.Variable, N: r.N, Err: r.Err}
	if r.Failed() {
		out.Correlation = CorrelationErrorSentinel
		out.PValue = r.Err
	} else {
		out.Correlation = r.Correlation
		out.PValue = r.PValue
		out.Significant = r.Significant
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both numeric and failed rows.
func (r *CorrelationResult) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = CorrelationResult{Variable: in.Variable, N: in.N, Err: in.Err}
	if r.Failed() {
		return nil
	}
	corr, ok1 := in.Correlation.(float64)
	p, ok2 := in.PValue.(float64)
	if !ok1 || !ok2 {
		return fmt.Errorf("result %q: correlation and p_value must be numbers", in.Variable)
	}
	r.Correlation, r.PValue, r.Significant = corr, p, in.Significant
	return nil
}

// TableHeader returns the column titles of a correlation table.
func TableHeader(level float64) []string {
	return []string{
		"Variable",
		"Correlation (r)",
		"P-value",
		fmt.Sprintf("Significant (p < %s)", strconv.FormatFloat(level, 'f', -1, 64)),
	}
}

// GroupTable is the correlation table of one predictor group
type GroupTable struct {
	Sheet   string              `json:"sheet"`
	Target  string              `json:"target"`
	Results []CorrelationResult `json:"results"`
}

// FailedCount returns the number of rows that carry an error.
func (t GroupTable) FailedCount() int {
	n := 0
	for _, r := range t.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "database", "xlsx", "csv", "json"
	Path        string    `json:"path"` // file path or database path
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ExportedAt  time.Time `json:"exported_at"`
}
