// Package config loads the report configuration with viper. Every key has
// a default, so a run needs no config file; a YAML file and CORRELATE_*
// environment variables override the defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"go-correlation-report/internal/model"
)

const (
	ConfigName = ".correlate"
	EnvPrefix  = "CORRELATE"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultGroups are the attrition predictor groups. The demographic group
// lists the target itself; the builder skips it.
func DefaultGroups() []model.PredictorGroup {
	return []model.PredictorGroup{
		{Name: "Attr_Demo", Predictors: []string{"Attrition", "Age", "Total Working Years", "Education"}},
		{Name: "Attr_Work_Style", Predictors: []string{"Over Time", "Work Life Balance"}},
		{Name: "Attr_Comp", Predictors: []string{"Monthly Income", "Percent Salary Hike", "Stock Option Level", "Years Since Last Promotion"}},
		{Name: "Attr_Sat", Predictors: []string{"Environment Satisfaction", "Job Satisfaction", "Relationship Satisfaction", "Total Satisfaction Score"}},
	}
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.path", "data/Cleaned_Employee_Data.xlsx")
	v.SetDefault("source.sheet", "Cleaned Data")
	v.SetDefault("target", "Attrition")
	v.SetDefault("significance_level", 0.05)
	v.SetDefault("groups", DefaultGroups())
	v.SetDefault("export.file", "correlation_results.xlsx")
	v.SetDefault("export.db", "")
	v.SetDefault("export.dir", "")
	v.SetDefault("concurrency.workers", 4)
	v.SetDefault("verbose", false)
}

// ReadFile reads cfgFile, or searches for .correlate.yaml in the working
// directory and then the home directory. A missing searched file is not an
// error; a missing explicit file is.
func ReadFile(v *viper.Viper, cfgFile, home string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(ConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes and validates the report spec
func Load(v *viper.Viper) (model.ReportSpec, error) {
	var spec model.ReportSpec
	if err := v.Unmarshal(&spec); err != nil {
		return spec, fmt.Errorf("decode config: %w", err)
	}
	return spec, Validate(spec)
}

// Validate checks a ReportSpec for values no run can use
func Validate(spec model.ReportSpec) error {
	var errs []error
	if spec.Source.Path == "" {
		errs = append(errs, errors.New("source.path is required"))
	}
	if spec.Target == "" {
		errs = append(errs, errors.New("target is required"))
	}
	if !(spec.SignificanceLevel > 0 && spec.SignificanceLevel < 1) {
		errs = append(errs, fmt.Errorf("significance_level must be in (0, 1), got %v", spec.SignificanceLevel))
	}
	if spec.Export.File == "" && spec.Export.DB == "" {
		errs = append(errs, errors.New("export.file or export.db is required"))
	}
	if spec.Concurrency.Workers < 0 {
		errs = append(errs, fmt.Errorf("concurrency.workers must not be negative, got %d", spec.Concurrency.Workers))
	}
	for i, g := range spec.Groups {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, fmt.Errorf("groups[%d].name is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
