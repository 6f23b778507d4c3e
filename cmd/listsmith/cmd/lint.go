package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/listsmith/internal/core/lint"
)

var lintOpts lint.LintOptions

var lintCmd = &cobra.Command{
	Use:     "lint FILE...",
	Aliases: []string{"l"},
	Short:   "Check rule source files and optionally fix them in place",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
	f := lintCmd.Flags()
	f.BoolVarP(&lintOpts.CheckRegex, "check-regex", "r", false, "check the syntax of regex rules")
	f.BoolVarP(&lintOpts.RemoveEmpty, "remove-empty", "e", false, "report and remove empty lines")
	f.BoolVarP(&lintOpts.AutoFix, "auto-fix", "a", false, "fix issues in place")
	f.BoolVarP(&lintOpts.SortRules, "sort-rules", "s", false, "sort rules between blank or comment lines")
	f.BoolVarP(&lintOpts.StripEOL, "strip-eol", "t", false, "remove trailing line feeds")
	f.BoolVar(&lintOpts.CheckCoverage, "check-coverage", false, "report duplicated and covered rules per file")
}

func runLint(cmd *cobra.Command, args []string) error {
	files, err := absPaths(args)
	if err != nil {
		return err
	}
	dir, err := root()
	if err != nil {
		return err
	}

	opts := lintOpts
	opts.Files = files
	report, err := lint.NewLinter(appFs, dir, opts).Run(cmd.Context())
	if err != nil {
		return err
	}
	log.Info().
		Int("files", len(report.Files)).
		Int("issues", len(report.Issues)).
		Int("written", len(report.Written)).
		Msg("lint finished")
	return nil
}
