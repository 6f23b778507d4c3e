// Package aggregate fetches third-party lists and rewrites them as local
// rule source files tagged with their origin.
package aggregate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/solatis/listsmith/internal/core/config"
	"github.com/solatis/listsmith/internal/core/fsutil"
	"github.com/solatis/listsmith/internal/core/logging"
	"github.com/solatis/listsmith/internal/types"
)

const (
	// FetchTimeout bounds one download, body included.
	FetchTimeout = 60 * time.Second
	userAgent    = "listsmith/1.0"
	tagPrefix    = "#!aggreg-"
)

// Report summarizes an aggregate run.
type Report struct {
	RunID   types.RunID
	Written []string // destinations written, relative to root
	Failed  []string // task names whose fetch or parse failed
}

// Aggregator runs aggregate tasks.
type Aggregator struct {
	fs      afero.Fs
	root    string
	tasks   []config.AggregateTask
	maxSize datasize.ByteSize
	client  *http.Client
}

// NewAggregator creates an Aggregator. Fetched bodies larger than maxSize
// are rejected; zero means types.DefaultMaxListSize.
func NewAggregator(fs afero.Fs, root string, tasks []config.AggregateTask, maxSize datasize.ByteSize) *Aggregator {
	if maxSize == 0 {
		_ = maxSize.UnmarshalText([]byte(types.DefaultMaxListSize))
	}
	return &Aggregator{
		fs:      fs,
		root:    root,
		tasks:   tasks,
		maxSize: maxSize,
		client:  &http.Client{Timeout: FetchTimeout},
	}
}

// WithClient replaces the HTTP client.
func (a *Aggregator) WithClient(c *http.Client) *Aggregator {
	a.client = c
	return a
}

// Run executes every task in order. Task types are checked before any
// download. A failed fetch is logged and leaves its destination untouched;
// the remaining tasks still run.
func (a *Aggregator) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: types.NewRunID()}
	logger := logging.GetLogger("aggregate").With().Str("run", string(report.RunID)).Logger()
	defer logging.LogOperationStart(logger, "aggregate")()

	parsers := make([]Parser, len(a.tasks))
	for i, task := range a.tasks {
		p, err := LookupParser(task.Type)
		if err != nil {
			return report, fmt.Errorf("aggregate task %q: %w", task.Name, err)
		}
		parsers[i] = p
	}

	for i, task := range a.tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		tlog := logger.With().Str("name", task.Name).Str("url", task.Source).Logger()
		if err := a.runTask(ctx, tlog, task, parsers[i], report); err != nil {
			tlog.Error().Err(err).Msg("aggregate failed")
			report.Failed = append(report.Failed, task.Name)
		}
	}
	return report, nil
}

func (a *Aggregator) runTask(ctx context.Context, logger zerolog.Logger, task config.AggregateTask, parse Parser, report *Report) error {
	dest := fsutil.Resolve(a.root, task.Dest)
	destRel := fsutil.Rel(a.root, dest)
	logger.Info().Str("dest", destRel).Msg("aggregating")

	data, err := a.fetch(ctx, task.Source)
	if err != nil {
		return err
	}
	rs, err := parse(data, task.Source)
	if err != nil {
		return err
	}

	tag := tagPrefix + task.Name
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "  %s: %s", tag, task.Source)
	if task.Homepage != "" {
		fmt.Fprintf(&buf, " (%s)", task.Homepage)
	}
	buf.WriteByte('\n')
	for _, r := range rs {
		buf.WriteString(r.Value + " ")
		if r.Comment != "" {
			buf.WriteString(r.Comment + " ")
		}
		buf.WriteString(tag + "\n")
	}

	if err := fsutil.WriteFile(a.fs, dest, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", destRel, err)
	}
	report.Written = append(report.Written, destRel)
	logger.Debug().Int("rules", len(rs)).Str("dest", destRel).Msg("aggregated")

	if task.StripEOL {
		if _, err := fsutil.StripEOL(a.fs, dest); err != nil {
			return fmt.Errorf("strip eol %s: %w", destRel, err)
		}
	}
	return nil
}

func (a *Aggregator) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", types.ErrFetch, resp.Status)
	}

	limit := int64(a.maxSize.Bytes())
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", types.ErrFetch, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %s", types.ErrListTooLarge, a.maxSize.HR())
	}
	return data, nil
}
