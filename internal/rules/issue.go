package rules

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/solatis/listsmith/internal/types"
)

// Issue is a per-rule diagnostic. Issues never abort a batch.
type Issue struct {
	Rule    types.Rule
	Err     error       // wraps a types.Err* sentinel
	Related *types.Rule // original of a duplicate, or the covering rule
	Fixed   bool        // true if auto-fix can repair the rule
}

// Error renders "path:line: rule "x": reason".
func (i Issue) Error() string {
	msg := fmt.Sprintf("%s: rule %q: %v", i.Rule.Source, i.Rule.Value, i.Err)
	if i.Related != nil {
		msg += fmt.Sprintf(" (%q at %s)", i.Related.Value, i.Related.Source)
	}
	return msg
}

// Unwrap exposes the sentinel for errors.Is.
func (i Issue) Unwrap() error {
	return i.Err
}

// Log writes the issue to logger at level with provenance fields.
func (i Issue) Log(logger zerolog.Logger, level zerolog.Level) {
	ev := logger.WithLevel(level).
		Str("path", i.Rule.Source.Path).
		Int("line", i.Rule.Source.Line).
		Str("rule", i.Rule.Value)
	if i.Related != nil {
		ev = ev.Str("related", i.Related.Value).Str("related_at", i.Related.Source.String())
	}
	ev.Msg(i.Err.Error())
}
