package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-correlation-report/internal/config"
	"go-correlation-report/internal/model"
	"go-correlation-report/internal/pipeline"
	"go-correlation-report/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the correlation tables and write the report",
	Example: `  correlate run
  correlate run --source data/employees.xlsx --sheet "Cleaned Data" --output results.xlsx
  correlate run --alpha 0.01 --db runs.db`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	f := runCmd.Flags()
	f.String("source", "", "dataset file (.xlsx, .csv or .json)")
	f.String("sheet", "", "worksheet to read from an .xlsx source")
	f.String("target", "", "target column")
	f.Float64("alpha", 0, "significance level in (0, 1)")
	f.StringP("output", "o", "", "output file (.xlsx, .json or .csv)")
	f.String("db", "", "sqlite database recording runs and results")
	f.String("dir", "", "write output under <dir>/<run-id>/")
	f.Int("workers", 0, "groups computed in parallel")

	_ = v.BindPFlag("source.path", f.Lookup("source"))
	_ = v.BindPFlag("source.sheet", f.Lookup("sheet"))
	_ = v.BindPFlag("target", f.Lookup("target"))
	_ = v.BindPFlag("significance_level", f.Lookup("alpha"))
	_ = v.BindPFlag("export.file", f.Lookup("output"))
	_ = v.BindPFlag("export.db", f.Lookup("db"))
	_ = v.BindPFlag("export.dir", f.Lookup("dir"))
	_ = v.BindPFlag("concurrency.workers", f.Lookup("workers"))
}

func runReport(cmd *cobra.Command, args []string) error {
	spec, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	opts := pipeline.Options{Logger: logger}
	if spec.Export.DB != "" {
		st, err := store.Open(spec.Export.DB)
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer st.Close()
		opts.Store = st
	}

	runID := uuid.New().String()
	summary, err := pipeline.Run(cmd.Context(), runID, spec, opts)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), summary, spec.SignificanceLevel)
	for _, e := range summary.Exports {
		logger.Debug("Export", zap.String("type", e.Type), zap.String("path", e.Path))
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows)\n", e.Path, e.RecordCount)
	}
	return nil
}

func printSummary(out io.Writer, summary *model.RunSummary, level float64) {
	fmt.Fprintf(out, "run %s: %d rows\n", summary.RunID, summary.Rows)
	printTables(out, summary.Tables, level)
}

func printTables(out io.Writer, tables []model.GroupTable, level float64) {
	header := model.TableHeader(level)
	for _, t := range tables {
		fmt.Fprintf(out, "\n[%s]\n", t.Sheet)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", header[0], header[1], header[2], header[3])
		for _, r := range t.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Variable, r.CorrelationLabel(), r.PValueLabel(), r.SignificantLabel())
		}
		w.Flush()
	}
}
