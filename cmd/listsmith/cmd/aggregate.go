package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/listsmith/internal/core/aggregate"
	"github.com/solatis/listsmith/internal/core/config"
)

var aggregateCmd = &cobra.Command{
	Use:     "aggregate",
	Aliases: []string{"a"},
	Short:   "Fetch configured third-party lists into source files",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadConfig()
		if err != nil {
			return err
		}
		return runAggregate(cmd, cfg, dir)
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, cfg *config.Config, dir string) error {
	report, err := aggregate.NewAggregator(appFs, dir, cfg.Aggregate, cfg.MaxListSize).Run(cmd.Context())
	if err != nil {
		return err
	}
	ev := log.Info()
	if len(report.Failed) > 0 {
		ev = log.Warn().Strs("failed", report.Failed)
	}
	ev.Str("run", string(report.RunID)).Strs("written", report.Written).Msg("aggregate finished")
	return nil
}
