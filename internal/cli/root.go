package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-correlation-report/internal/config"
)

var (
	cfgFile string
	verbose bool

	v = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Correlation tables between a target column and predictor groups",
	Long: `correlate loads a tabular dataset, computes the Pearson correlation and
two-tailed p-value between a target column and every predictor of each
configured group, and writes one spreadsheet sheet per group.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.correlate.yaml or $HOME/.correlate.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	if err := config.ReadFile(v, cfgFile, home); err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" && v.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
	}
	return nil
}

func newLogger() (*zap.Logger, error) {
	if v.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
