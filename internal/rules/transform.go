// internal/rules/transform.go
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/solatis/listsmith/internal/types"
)

/*
 * Transform chain: ordered, conditional find/replace steps.
 *
 * For each rule the FIRST step whose type matches (or is unset) and whose
 * trigger holds is applied; later steps are skipped. Triggers:
 *   - find set:    substring containment; the token becomes Replacement
 *   - pattern set: regex search; every match is substituted
 *   - neither:     always; the token becomes Replacement
 *
 * Patterns use Python syntax. Named groups (?P<name>...) and references
 * (?P=name) are rewritten for regexp2, which supports lookaround and back
 * references. Replacements use Python-style group references (\1, \g<1>,
 * \g<name>). Both are translated once at compile time.
 */

// PatternTimeout bounds a single processor regex evaluation.
const PatternTimeout = 2 * time.Second

type step struct {
	kind        *types.Kind
	find        *string
	re          *regexp2.Regexp
	replacement string // literal for find/always, substitution for re
	mode        types.Mode
}

// Chain is a compiled processor list.
type Chain struct {
	steps []step
}

// CompileChain compiles processors in order.
func CompileChain(processors []types.Processor) (*Chain, error) {
	c := &Chain{steps: make([]step, 0, len(processors))}
	for i, p := range processors {
		s := step{
			kind:        p.Type,
			find:        p.Find,
			replacement: p.Replacement,
			mode:        p.Mode,
		}
		if _, err := types.ParseMode(string(p.Mode)); err != nil {
			return nil, fmt.Errorf("processor %d: %w", i, err)
		}
		if p.Find == nil && p.Pattern != nil {
			re, err := regexp2.Compile(translatePattern(*p.Pattern), regexp2.None)
			if err != nil {
				return nil, fmt.Errorf("processor %d: pattern %q: %w", i, *p.Pattern, err)
			}
			re.MatchTimeout = PatternTimeout
			repl, err := translateReplacement(p.Replacement)
			if err != nil {
				return nil, fmt.Errorf("processor %d: %w", i, err)
			}
			s.re = re
			s.replacement = repl
		}
		c.steps = append(c.steps, s)
	}
	return c, nil
}

// Len reports the number of steps.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.steps)
}

// Apply runs the first matching step on r. A rule no step triggers on is
// returned unchanged. An error means a regex evaluation failed; r is
// returned unchanged with it.
func (c *Chain) Apply(r types.Rule) (types.Rule, error) {
	if c == nil {
		return r, nil
	}
	text := r.Value
	for _, s := range c.steps {
		if s.kind != nil && *s.kind != r.Kind {
			continue
		}

		var out string
		switch {
		case s.find != nil:
			if !strings.Contains(text, *s.find) {
				continue
			}
			out = s.replacement
		case s.re != nil:
			ok, err := s.re.MatchString(text)
			if err != nil {
				return r, err
			}
			if !ok {
				continue
			}
			out, err = s.re.Replace(text, s.replacement, -1, -1)
			if err != nil {
				return r, err
			}
		default:
			out = s.replacement
		}

		return FromMode(r, out, s.mode), nil
	}
	return r, nil
}

// pythonGroupFixer matches a named group definition, a named back reference,
// or an escaped two-character sequence, which is left alone.
var pythonGroupFixer = regexp.MustCompile(`(?s)\(\?P<[^>]+>|\(\?P=[^)]+\)|\\.`)

// translatePattern rewrites Python named group syntax into regexp2 syntax.
func translatePattern(pattern string) string {
	return pythonGroupFixer.ReplaceAllStringFunc(pattern, func(m string) string {
		switch {
		case strings.HasPrefix(m, "(?P<"):
			return "(?<" + m[len("(?P<"):]
		case strings.HasPrefix(m, "(?P="):
			return `\k<` + m[len("(?P="):len(m)-1] + ">"
		}
		return m
	})
}

// translateReplacement converts a Python re.sub template into regexp2
// substitution syntax.
func translateReplacement(repl string) (string, error) {
	var b strings.Builder
	b.Grow(len(repl))
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '$' {
			b.WriteString("$$")
			continue
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(repl) {
			return "", fmt.Errorf("%w: trailing backslash in replacement %q", types.ErrTemplate, repl)
		}
		i++
		n := repl[i]
		switch {
		case n >= '0' && n <= '9':
			j := i + 1
			if j < len(repl) && repl[j] >= '0' && repl[j] <= '9' {
				j++
			}
			b.WriteString("${" + repl[i:j] + "}")
			i = j - 1
		case n == 'g':
			end := strings.IndexByte(repl[i:], '>')
			if i+1 >= len(repl) || repl[i+1] != '<' || end < 0 {
				return "", fmt.Errorf("%w: bad group reference in replacement %q", types.ErrTemplate, repl)
			}
			b.WriteString("${" + repl[i+2:i+end] + "}")
			i += end
		case n == '\\':
			b.WriteByte('\\')
		case n == 'n':
			b.WriteByte('\n')
		case n == 't':
			b.WriteByte('\t')
		case n == 'r':
			b.WriteByte('\r')
		case n == 'f':
			b.WriteByte('\f')
		case n == 'v':
			b.WriteByte('\v')
		case n == 'a':
			b.WriteByte('\a')
		case n == 'b':
			b.WriteByte('\b')
		case ('A' <= n && n <= 'Z') || ('a' <= n && n <= 'z'):
			return "", fmt.Errorf("%w: bad escape \\%c in replacement %q", types.ErrTemplate, n, repl)
		default:
			b.WriteByte('\\')
			b.WriteByte(n)
		}
	}
	return b.String(), nil
}
