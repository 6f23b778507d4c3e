package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/listsmith/internal/core/build"
	"github.com/solatis/listsmith/internal/core/config"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Publish every configured build task",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadConfig()
		if err != nil {
			return err
		}
		return runBuild(cmd, cfg, dir)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, cfg *config.Config, dir string) error {
	report, err := build.NewBuilder(appFs, dir, cfg.Build).Run(cmd.Context())
	if err != nil {
		return err
	}
	log.Info().
		Str("run", string(report.RunID)).
		Strs("published", report.Published).
		Int("issues", len(report.Issues)).
		Msg("build finished")
	return nil
}
