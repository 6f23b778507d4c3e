// internal/types/rules.go
package types

/*
 * Domain types for blocklist rules.
 *
 * Provides Rule, Scheme and Processor structures used by internal/rules for
 * classification, transformation and packing, and by internal/convert for
 * rendering. These types are configuration-format agnostic; config decodes
 * into them via mapstructure tags.
 *
 * Key types:
 *   - Rule: one classified source line (token, separator, comment, kind)
 *   - Scheme: template definition for "name:value" rules
 *   - Processor: one conditional find/replace step
 *   - TaskData: per build task headers, schemes and processors
 */

// Rule represents one logical line of a blocklist source.
// Rule is a value: re-classification builds a new Rule (see rules.WithToken
// and rules.Pin) so kind-specific fields never outlive their kind.
type Rule struct {
	Input   string // original line text
	Value   string // token before the first whitespace run
	Sep     string // whitespace between token and comment, verbatim
	Comment string // trailing text, may be empty
	Kind    Kind

	Scheme      string // KindScheme only
	SchemeValue string // KindScheme only, not unescaped

	Pattern string // KindRegex only
	Flags   string // KindRegex only

	Source Source
}

// Line renders the rule back to its source form.
func (r Rule) Line() string {
	return r.Value + r.Sep + r.Comment
}

// Escaper names a pure string transform applied to a scheme value.
type Escaper string

const (
	EscapeRegex             Escaper = "regex"
	EscapeRegexWithWildcard Escaper = "regex_with_wildcard_a"
	EscapeURL               Escaper = "url"
)

// Scheme defines how a "name:value" rule is rendered.
type Scheme struct {
	Escape   []Escaper `mapstructure:"escape" yaml:"escape,omitempty"`
	Grouping string    `mapstructure:"grouping" yaml:"grouping,omitempty"` // empty = emit each rule alone
	Value    string    `mapstructure:"value" yaml:"value"`                 // template with {value}
	Max      *int      `mapstructure:"max" yaml:"max,omitempty"`           // nil = unbounded
	Mode     Mode      `mapstructure:"mode" yaml:"mode,omitempty"`
}

// Processor is one conditional find/replace step of a transform chain.
// Find takes precedence over Pattern; with neither set the step always
// triggers and the token becomes Replacement.
type Processor struct {
	Type        *Kind   `mapstructure:"type" yaml:"type,omitempty"`
	Find        *string `mapstructure:"find" yaml:"find,omitempty"`
	Pattern     *string `mapstructure:"pattern" yaml:"pattern,omitempty"`
	Replacement string  `mapstructure:"replacement" yaml:"replacement"`
	Mode        Mode    `mapstructure:"mode" yaml:"mode,omitempty"`
}

// TaskData is the "data" block of a build task.
type TaskData struct {
	Title       string            `mapstructure:"title" yaml:"title,omitempty"`
	Description string            `mapstructure:"description" yaml:"description,omitempty"`
	Homepage    string            `mapstructure:"homepage" yaml:"homepage,omitempty"`
	License     string            `mapstructure:"license" yaml:"license,omitempty"`
	Headers     string            `mapstructure:"headers" yaml:"headers,omitempty"`
	Schemes     map[string]Scheme `mapstructure:"schemes" yaml:"schemes,omitempty"`
	Processors  []Processor       `mapstructure:"processors" yaml:"processors,omitempty"`
}
