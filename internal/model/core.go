package model

// GenericRecord is a schema-agnostic row: column name to cell value.
// Cell values are nil (missing), int, float64, bool or string.
type GenericRecord map[string]interface{}

// Source identifies the dataset to load
type Source struct {
	Path  string `json:"path" mapstructure:"path"`   // .xlsx, .csv or .json
	Sheet string `json:"sheet" mapstructure:"sheet"` // xlsx only, defaults to the first sheet
}

// PredictorGroup is a named, ordered set of predictor columns analyzed
// against a common target. Name doubles as the output sheet name.
type PredictorGroup struct {
	Name       string   `json:"name" mapstructure:"name"`
	Predictors []string `json:"predictors" mapstructure:"predictors"`
}

// Export defines export targets
type Export struct {
	File string `json:"file" mapstructure:"file"` // e.g., correlation_results.xlsx
	DB   string `json:"db" mapstructure:"db"`     // sqlite path, optional
	Dir  string `json:"dir" mapstructure:"dir"`   // when set, files go under <dir>/<run-id>/
}

// ConcurrencyConfig bounds how many groups are computed at once
type ConcurrencyConfig struct {
	Workers int `json:"workers" mapstructure:"workers"`
}

// ReportSpec defines an entire correlation report run
type ReportSpec struct {
	Source            Source            `json:"source" mapstructure:"source"`
	Target            string            `json:"target" mapstructure:"target"`
	SignificanceLevel float64           `json:"significance_level" mapstructure:"significance_level"`
	Groups            []PredictorGroup  `json:"groups" mapstructure:"groups"`
	Export            Export            `json:"export" mapstructure:"export"`
	Concurrency       ConcurrencyConfig `json:"concurrency" mapstructure:"concurrency"`
}
