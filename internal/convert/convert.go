// Package convert renders classified rule streams into downstream list
// formats. Formats form a closed registry; Lookup reports unknown names
// with types.ErrUnknownFormat.
package convert

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// Format identifies an output format.
type Format string

const (
	FormatCFT        Format = "cft"
	FormatHosts      Format = "hosts"
	FormatUBO        Format = "ubo"
	FormatUBlacklist Format = "ublacklist"
	FormatCopy       Format = "copy"
)

// DefaultFormat is used when a build task names no type.
const DefaultFormat = FormatCFT

// Source is one input file of a build task.
type Source struct {
	Path string
	Data []byte
}

// Converter renders a header and sources into one output format.
type Converter interface {
	Format() Format
	WriteHeader(w io.Writer, data types.TaskData, now time.Time) error
	Convert(w io.Writer, src Source, engine *rules.Engine) ([]rules.Issue, error)
}

var registry = map[Format]Converter{
	FormatCFT:        cftConverter,
	FormatHosts:      hostsConverter,
	FormatUBO:        uboConverter,
	FormatUBlacklist: ublacklistConverter,
	FormatCopy:       copyConverter{},
}

// Lookup returns the converter registered under name. An empty name
// selects DefaultFormat.
func Lookup(name string) (Converter, error) {
	if name == "" {
		name = string(DefaultFormat)
	}
	c, ok := registry[Format(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", types.ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
	return c, nil
}

// Formats lists registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for f := range registry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// lineConverter runs the shared classify/transform/scheme pipeline and
// delegates per-rule rendering to render.
type lineConverter struct {
	format  Format
	prefix  string // header comment prefix
	schemes bool   // false treats scheme rules as unsupported
	render  func(r types.Rule) (string, bool)
}

func (c *lineConverter) Format() Format { return c.format }

func (c *lineConverter) WriteHeader(w io.Writer, data types.TaskData, now time.Time) error {
	return writeHeader(w, c.prefix, data, now)
}

func (c *lineConverter) Convert(w io.Writer, src Source, engine *rules.Engine) ([]rules.Issue, error) {
	if engine == nil {
		engine = &rules.Engine{}
	}
	packer := engine.Schemes.NewPacker()
	out := &lineWriter{w: w, render: c.render}
	var issues []rules.Issue

	for i, line := range rules.SplitLines(src.Data) {
		r := rules.Parse(line, src.Path, i+1)
		if r.Kind == types.KindEmpty || r.Kind == types.KindInvalid {
			out.write(r)
			continue
		}

		r, err := engine.Chain.Apply(r)
		if err != nil {
			issues = append(issues, rules.Issue{Rule: r, Err: err})
		}

		if c.schemes && r.Kind == types.KindScheme {
			handled, emit, issue := packer.Handle(r)
			if issue != nil {
				issues = append(issues, *issue)
			}
			// A rule still of scheme kind was grouped, dropped or
			// re-classified into another scheme; none of these are written.
			if !emit || handled.Kind == types.KindScheme {
				continue
			}
			r = handled
		}

		out.write(r)
	}

	flushed, flushIssues := packer.Flush()
	issues = append(issues, flushIssues...)
	for _, r := range flushed {
		out.write(r)
	}
	return issues, out.err
}

type lineWriter struct {
	w      io.Writer
	render func(types.Rule) (string, bool)
	err    error
}

func (lw *lineWriter) write(r types.Rule) {
	if lw.err != nil {
		return
	}
	line, ok := lw.render(r)
	if !ok {
		return
	}
	_, lw.err = io.WriteString(lw.w, line+"\n")
}
