package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/listsmith/internal/core/lint"
)

var uniquifyOpts lint.UniquifyOptions

var uniquifyCmd = &cobra.Command{
	Use:     "uniquify FILE...",
	Aliases: []string{"u"},
	Short:   "Find duplicated and covered rules",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runUniquify,
}

func init() {
	rootCmd.AddCommand(uniquifyCmd)
	f := uniquifyCmd.Flags()
	f.BoolVar(&uniquifyOpts.Advanced, "advanced", false, "also check rule coverage (slow on large lists)")
	f.BoolVarP(&uniquifyOpts.CrossFiles, "cross-files", "c", false, "check uniqueness across all files")
	f.BoolVarP(&uniquifyOpts.AutoFix, "auto-fix", "a", false, "remove redundant rules in place")
	f.StringSliceVarP(&uniquifyOpts.AutoFixExcludes, "auto-fix-excludes", "X", nil, "files or directories never modified by --auto-fix")
	f.BoolVarP(&uniquifyOpts.StripEOL, "strip-eol", "t", false, "remove trailing line feeds of saved files")
}

func runUniquify(cmd *cobra.Command, args []string) error {
	files, err := absPaths(args)
	if err != nil {
		return err
	}
	excludes, err := absPaths(uniquifyOpts.AutoFixExcludes)
	if err != nil {
		return err
	}
	dir, err := root()
	if err != nil {
		return err
	}

	opts := uniquifyOpts
	opts.Files = files
	opts.AutoFixExcludes = excludes
	report, err := lint.NewUniquifier(appFs, dir, opts).Run(cmd.Context())
	if err != nil {
		return err
	}
	log.Info().
		Int("files", len(report.Files)).
		Int("issues", len(report.Issues)).
		Int("written", len(report.Written)).
		Msg("uniquify finished")
	return nil
}
