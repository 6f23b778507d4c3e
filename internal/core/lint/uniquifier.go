package lint

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/solatis/listsmith/internal/core/fsutil"
	"github.com/solatis/listsmith/internal/core/logging"
	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// UniquifyOptions select the scope and fixes of a uniquify run. The
// mapstructure tags match the kwargs of a uniquify auto task.
type UniquifyOptions struct {
	Files           []string `mapstructure:"files"`
	Advanced        bool     `mapstructure:"advanced"`
	CrossFiles      bool     `mapstructure:"cross_files"`
	AutoFix         bool     `mapstructure:"auto_fix"`
	AutoFixExcludes []string `mapstructure:"auto_fix_excludes"`
	StripEOL        bool     `mapstructure:"strip_eol"`
}

// Uniquifier removes duplicated and, in advanced mode, covered rules.
type Uniquifier struct {
	fs     afero.Fs
	root   string
	opts   UniquifyOptions
	logger zerolog.Logger
}

// NewUniquifier creates a Uniquifier resolving relative paths against root.
func NewUniquifier(fs afero.Fs, root string, opts UniquifyOptions) *Uniquifier {
	return &Uniquifier{
		fs:     fs,
		root:   root,
		opts:   opts,
		logger: logging.GetLogger("uniquify"),
	}
}

type sourceFile struct {
	path    string // resolved
	subpath string // relative to root, used as rule provenance
	rules   []types.Rule
}

// Run loads every file, removes redundant rules per file or across all
// files, and rewrites changed files when auto-fix is on.
func (u *Uniquifier) Run(ctx context.Context) (*Report, error) {
	defer logging.LogOperationStart(u.logger, "uniquify")()

	files, err := expandFiles(u.fs, u.root, u.opts.Files)
	if err != nil {
		return nil, err
	}
	excludes, err := expandFiles(u.fs, u.root, u.opts.AutoFixExcludes)
	if err != nil {
		return nil, err
	}
	excluded := newExcludeSet(u.fs, excludes)

	report := &Report{}
	var sources []*sourceFile
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		subpath := fsutil.Rel(u.root, file)
		u.logger.Debug().Str("path", subpath).Msg("adding rules")
		lines, err := fsutil.ReadLines(u.fs, file)
		if err != nil {
			u.logger.Warn().Err(err).Str("path", subpath).Msg("unable to add source")
			continue
		}
		sources = append(sources, &sourceFile{path: file, subpath: subpath, rules: parseLines(lines, subpath)})
		report.Files = append(report.Files, subpath)
	}

	results := make(map[*sourceFile][]types.Rule, len(sources))
	if u.opts.CrossFiles {
		var pooled []types.Rule
		for _, src := range sources {
			pooled = append(pooled, src.rules...)
		}
		kept := u.uniquify(pooled, report)

		// Regroup by provenance; a file whose rules all went away maps to
		// an empty result.
		bySubpath := make(map[string]*sourceFile, len(sources))
		for _, src := range sources {
			bySubpath[src.subpath] = src
			results[src] = []types.Rule{}
		}
		for _, r := range kept {
			src := bySubpath[r.Source.Path]
			results[src] = append(results[src], r)
		}
	} else {
		for _, src := range sources {
			results[src] = u.uniquify(src.rules, report)
		}
	}

	if !u.opts.AutoFix {
		return report, nil
	}
	for _, src := range sources {
		out := results[src]
		if sameLines(src.rules, out) {
			continue
		}
		if excluded.has(src.path) {
			u.logger.Debug().Str("path", src.subpath).Msg("excluded from auto-fix")
			continue
		}
		u.logger.Info().Str("path", src.subpath).Msg("saving auto-fixed file")
		if err := fsutil.WriteLines(u.fs, src.path, renderLines(out)); err != nil {
			u.logger.Error().Err(err).Str("path", src.subpath).Msg("unable to save file")
			continue
		}
		report.Written = append(report.Written, src.subpath)
		if u.opts.StripEOL {
			stripEOL(u.fs, u.logger, src.path, src.subpath)
		}
	}
	return report, nil
}

// excludeSet matches files by cleaned path, or by identity when the
// filesystem reports it, so symlinked aliases are excluded too.
type excludeSet struct {
	fs    afero.Fs
	paths map[string]bool
	infos []os.FileInfo
}

func newExcludeSet(fs afero.Fs, paths []string) *excludeSet {
	s := &excludeSet{fs: fs, paths: make(map[string]bool, len(paths))}
	for _, p := range paths {
		s.paths[p] = true
		if fi, err := fs.Stat(p); err == nil {
			s.infos = append(s.infos, fi)
		}
	}
	return s
}

func (s *excludeSet) has(path string) bool {
	if s.paths[path] {
		return true
	}
	fi, err := s.fs.Stat(path)
	if err != nil {
		return false
	}
	for _, ex := range s.infos {
		if os.SameFile(fi, ex) {
			return true
		}
	}
	return false
}

func (u *Uniquifier) uniquify(in []types.Rule, report *Report) []types.Rule {
	kept, issues := rules.Deduplicate(in)
	logIssues(u.logger, issues)
	report.add(issues)
	if u.opts.Advanced {
		var covered []rules.Issue
		kept, covered = rules.RemoveCovered(kept)
		logIssues(u.logger, covered)
		report.add(covered)
	}
	return kept
}
