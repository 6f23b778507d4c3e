// Package build publishes rule sources as downstream lists, one output file
// per build task.
package build

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/solatis/listsmith/internal/convert"
	"github.com/solatis/listsmith/internal/core/config"
	"github.com/solatis/listsmith/internal/core/fsutil"
	"github.com/solatis/listsmith/internal/core/logging"
	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// Report summarizes a build run.
type Report struct {
	RunID     types.RunID
	Published []string // outputs written, relative to root
	Skipped   []string // unreadable sources, relative to root
	Issues    []rules.Issue
}

// Builder runs build tasks.
type Builder struct {
	fs    afero.Fs
	root  string
	tasks []config.BuildTask

	// Now stamps the {now} header placeholder. Defaults to time.Now.
	Now func() time.Time
}

// NewBuilder creates a Builder resolving task paths against root.
func NewBuilder(fs afero.Fs, root string, tasks []config.BuildTask) *Builder {
	return &Builder{fs: fs, root: root, tasks: tasks, Now: time.Now}
}

// Run executes every task in order. One timestamp is shared by all
// outputs of the run. A task failing to render aborts the run; unreadable
// sources only produce a warning.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: types.NewRunID()}
	logger := logging.GetLogger("build").With().Str("run", string(report.RunID)).Logger()
	defer logging.LogOperationStart(logger, "build")()

	now := b.Now()
	for i, task := range b.tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := b.runTask(logger, task, now, report); err != nil {
			return report, fmt.Errorf("build task %d (%s): %w", i+1, task.Publish, err)
		}
	}
	return report, nil
}

func (b *Builder) runTask(logger zerolog.Logger, task config.BuildTask, now time.Time, report *Report) error {
	conv, err := convert.Lookup(task.Type)
	if err != nil {
		return err
	}
	engine, err := rules.NewEngine(task.Data)
	if err != nil {
		return err
	}

	resolved := make([]string, len(task.Source))
	for i, s := range task.Source {
		resolved[i] = fsutil.Resolve(b.root, s)
	}
	sources, err := fsutil.FlattenFiles(b.fs, resolved)
	if err != nil {
		return err
	}

	dest := fsutil.Resolve(b.root, task.Publish)
	destRel := fsutil.Rel(b.root, dest)
	logger.Info().
		Str("publish", destRel).
		Str("type", string(conv.Format())).
		Int("processors", engine.Chain.Len()).
		Int("sources", len(sources)).
		Msg("building")

	var buf bytes.Buffer
	if err := conv.WriteHeader(&buf, task.Data, now); err != nil {
		return err
	}

	for _, src := range sources {
		subpath := fsutil.Rel(b.root, src)
		data, err := afero.ReadFile(b.fs, src)
		if err != nil {
			logger.Warn().Err(err).Str("path", subpath).Str("publish", destRel).Msg("unable to add source")
			report.Skipped = append(report.Skipped, subpath)
			continue
		}
		logger.Debug().Str("path", subpath).Msg("adding source")

		issues, err := conv.Convert(&buf, convert.Source{Path: subpath, Data: data}, engine)
		for _, is := range issues {
			is.Log(logger, zerolog.WarnLevel)
		}
		report.Issues = append(report.Issues, issues...)
		if err != nil {
			return fmt.Errorf("convert %s: %w", subpath, err)
		}
	}

	if err := fsutil.WriteFile(b.fs, dest, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", destRel, err)
	}
	report.Published = append(report.Published, destRel)
	return nil
}
