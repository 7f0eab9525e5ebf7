package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go-correlation-report/internal/config"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the configured predictor groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := config.Load(v)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "target: %s\n", spec.Target)
		for _, g := range spec.Groups {
			fmt.Fprintf(out, "%s: %s\n", g.Name, strings.Join(g.Predictors, ", "))
		}
		return nil
	},
}
