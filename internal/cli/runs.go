package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"go-correlation-report/internal/store"
)

var errNoDB = errors.New("no run database configured; pass --db or set export.db")

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns()
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tTARGET\tSOURCE\tCREATED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Status, r.Target, r.Source, r.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results <run-id>",
	Short: "Print the stored correlation tables of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		info, spec, err := st.GetRun(args[0])
		if err != nil {
			return err
		}
		tables, err := st.GetResults(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run %s (%s) target=%s source=%s\n", info.ID, info.Status, info.Target, info.Source)
		printTables(out, tables, spec.SignificanceLevel)

		errs, err := st.GetRunErrors(args[0])
		if err != nil {
			return err
		}
		for _, e := range errs {
			fmt.Fprintf(out, "error: %s\n", e)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{runsCmd, resultsCmd} {
		c.Flags().String("db", "", "sqlite database recording runs and results")
	}
}

// openStore prefers the command's --db flag over export.db
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path := v.GetString("export.db")
	if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
		path = f.Value.String()
	}
	if path == "" {
		return nil, errNoDB
	}
	return store.Open(path)
}
