// Package lint checks rule source files in place: per-rule validation and
// normalization (Linter) and duplicate/coverage removal (Uniquifier).
package lint

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/solatis/listsmith/internal/core/fsutil"
	"github.com/solatis/listsmith/internal/core/logging"
	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// LintOptions select the checks and fixes of a lint run. The mapstructure
// tags match the kwargs of a lint auto task.
type LintOptions struct {
	Files         []string `mapstructure:"files"`
	CheckRegex    bool     `mapstructure:"check_regex"`
	RemoveEmpty   bool     `mapstructure:"remove_empty"`
	AutoFix       bool     `mapstructure:"auto_fix"`
	SortRules     bool     `mapstructure:"sort_rules"`
	StripEOL      bool     `mapstructure:"strip_eol"`
	CheckCoverage bool     `mapstructure:"check_coverage"`
}

// Report summarizes a lint or uniquify run.
type Report struct {
	Files   []string      // files examined, relative to root
	Written []string      // files rewritten, relative to root
	Issues  []rules.Issue // every diagnostic, in file order
}

func (r *Report) add(issues []rules.Issue) {
	r.Issues = append(r.Issues, issues...)
}

// Linter validates and normalizes rule source files.
type Linter struct {
	fs     afero.Fs
	root   string
	opts   LintOptions
	logger zerolog.Logger
}

// NewLinter creates a Linter resolving relative paths against root.
func NewLinter(fs afero.Fs, root string, opts LintOptions) *Linter {
	return &Linter{
		fs:     fs,
		root:   root,
		opts:   opts,
		logger: logging.GetLogger("lint"),
	}
}

// Run checks every file. Unreadable files are logged and skipped.
func (l *Linter) Run(ctx context.Context) (*Report, error) {
	defer logging.LogOperationStart(l.logger, "lint")()

	files, err := expandFiles(l.fs, l.root, l.opts.Files)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		l.checkFile(file, report)
	}
	return report, nil
}

func (l *Linter) checkFile(file string, report *Report) {
	subpath := fsutil.Rel(l.root, file)
	l.logger.Debug().Str("path", subpath).Msg("checking")

	lines, err := fsutil.ReadLines(l.fs, file)
	if err != nil {
		l.logger.Warn().Err(err).Str("path", subpath).Msg("unable to check file")
		return
	}
	report.Files = append(report.Files, subpath)

	src := parseLines(lines, subpath)
	var out []types.Rule
	for _, r := range src {
		fixed, issues, keep := CheckRule(r, l.opts)
		logIssues(l.logger, issues)
		report.add(issues)
		switch {
		case !l.opts.AutoFix:
			out = append(out, r)
		case keep:
			out = append(out, fixed)
		}
	}

	if l.opts.CheckCoverage {
		kept, dupes := rules.Deduplicate(out)
		kept, covered := rules.RemoveCovered(kept)
		logIssues(l.logger, dupes)
		logIssues(l.logger, covered)
		report.add(dupes)
		report.add(covered)
		if l.opts.AutoFix {
			out = kept
		}
	}

	if l.opts.SortRules {
		out = SortRules(out)
	}

	if !sameLines(src, out) {
		l.logger.Info().Str("path", subpath).Msg("saving auto-fixed file")
		if err := fsutil.WriteLines(l.fs, file, renderLines(out)); err != nil {
			l.logger.Error().Err(err).Str("path", subpath).Msg("unable to save file")
			return
		}
		report.Written = append(report.Written, subpath)
	}

	if l.opts.StripEOL {
		stripEOL(l.fs, l.logger, file, subpath)
	}
}

var reWildcardRun = regexp.MustCompile(`\*+`)

// CheckRule validates one rule. It returns the fixed rule, the diagnostics,
// and whether the rule survives auto-fix.
func CheckRule(r types.Rule, opts LintOptions) (types.Rule, []rules.Issue, bool) {
	switch r.Kind {
	case types.KindInvalid:
		return r, []rules.Issue{{Rule: r, Err: types.ErrInvalidRule}}, false

	case types.KindEmpty:
		if opts.RemoveEmpty && r.Value == "" && r.Comment == "" {
			return r, []rules.Issue{{Rule: r, Err: types.ErrEmptyRule, Fixed: true}}, false
		}

	case types.KindDomain:
		var issues []rules.Issue
		if lower := strings.ToLower(r.Value); lower != r.Value {
			issues = append(issues, rules.Issue{Rule: r, Err: types.ErrRuleCase, Fixed: true})
			r = rules.WithToken(r, lower)
		}
		if strings.Contains(r.Value, "**") {
			issues = append(issues, rules.Issue{Rule: r, Err: types.ErrRepeatedWildcard, Fixed: true})
			r = rules.WithToken(r, reWildcardRun.ReplaceAllString(r.Value, "*"))
		}
		return r, issues, true

	case types.KindRegex:
		if opts.CheckRegex {
			if _, err := rules.CompileRegExp(r.Pattern, r.Flags); err != nil {
				return r, []rules.Issue{{Rule: r, Err: err}}, false
			}
		}

	case types.KindScheme:
		if lower := strings.ToLower(r.Scheme); lower != r.Scheme {
			issue := rules.Issue{Rule: r, Err: fmt.Errorf("scheme %w", types.ErrRuleCase), Fixed: true}
			return rules.WithToken(r, lower+":"+r.SchemeValue), []rules.Issue{issue}, true
		}
	}
	return r, nil, true
}

// SortRules sorts each run of non-empty rules by (token, separator,
// comment). Rules with an empty token stay in place and delimit the runs.
func SortRules(in []types.Rule) []types.Rule {
	out := make([]types.Rule, 0, len(in))
	start := 0
	flush := func(end int) {
		run := append([]types.Rule(nil), in[start:end]...)
		sort.SliceStable(run, func(i, j int) bool {
			a, b := run[i], run[j]
			if a.Value != b.Value {
				return a.Value < b.Value
			}
			if a.Sep != b.Sep {
				return a.Sep < b.Sep
			}
			return a.Comment < b.Comment
		})
		out = append(out, run...)
	}
	for i, r := range in {
		if r.Value == "" {
			flush(i)
			out = append(out, r)
			start = i + 1
		}
	}
	flush(len(in))
	return out
}

func parseLines(lines []string, path string) []types.Rule {
	out := make([]types.Rule, len(lines))
	for i, line := range lines {
		out[i] = rules.Parse(line, path, i+1)
	}
	return out
}

func renderLines(rs []types.Rule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Line()
	}
	return out
}

func sameLines(a, b []types.Rule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Line() != b[i].Line() {
			return false
		}
	}
	return true
}

func expandFiles(fs afero.Fs, root string, files []string) ([]string, error) {
	resolved := make([]string, len(files))
	for i, f := range files {
		resolved[i] = fsutil.Resolve(root, f)
	}
	return fsutil.FlattenFiles(fs, resolved)
}

func logIssues(logger zerolog.Logger, issues []rules.Issue) {
	for _, is := range issues {
		is.Log(logger, zerolog.WarnLevel)
	}
}

func stripEOL(fs afero.Fs, logger zerolog.Logger, file, subpath string) {
	changed, err := fsutil.StripEOL(fs, file)
	if err != nil {
		logger.Error().Err(err).Str("path", subpath).Msg("unable to strip EOL")
		return
	}
	if changed {
		logger.Info().Str("path", subpath).Msg("stripped EOL")
	}
}
