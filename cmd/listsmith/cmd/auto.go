package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/listsmith/internal/core/config"
	"github.com/solatis/listsmith/internal/core/lint"
)

// DefaultAutoTask runs when auto is given no name.
const DefaultAutoTask = "default"

var autoCmd = &cobra.Command{
	Use:   "auto [NAME]",
	Short: "Run a configured auto task",
	Long: `Run the steps of a named auto task from the config file in order.
Paths in step kwargs resolve against --root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuto,
}

func init() {
	rootCmd.AddCommand(autoCmd)
}

func runAuto(cmd *cobra.Command, args []string) error {
	name := DefaultAutoTask
	if len(args) == 1 {
		name = args[0]
	}

	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}
	steps, ok := cfg.AutoTasks[name]
	if !ok {
		return fmt.Errorf("auto task %q: not found", name)
	}

	log.Debug().Str("task", name).Str("root", dir).Msg("running auto task")
	for i, step := range steps {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		if err := runStep(cmd, cfg, dir, step); err != nil {
			return fmt.Errorf("auto task %q step %d (%s): %w", name, i+1, step.Action, err)
		}
	}
	return nil
}

func runStep(cmd *cobra.Command, cfg *config.Config, dir string, step config.AutoTask) error {
	switch step.Action {
	case config.ActionLint:
		var opts lint.LintOptions
		if err := config.DecodeKwargs(step.Kwargs, &opts); err != nil {
			return err
		}
		_, err := lint.NewLinter(appFs, dir, opts).Run(cmd.Context())
		return err

	case config.ActionUniquify:
		var opts lint.UniquifyOptions
		if err := config.DecodeKwargs(step.Kwargs, &opts); err != nil {
			return err
		}
		_, err := lint.NewUniquifier(appFs, dir, opts).Run(cmd.Context())
		return err

	case config.ActionBuild:
		return runBuild(cmd, cfg, dir)

	case config.ActionAggregate:
		return runAggregate(cmd, cfg, dir)

	default:
		log.Warn().Str("action", step.Action).Msg("skipping unknown auto task action")
		return nil
	}
}
