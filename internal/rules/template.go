package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/listsmith/internal/types"
)

// Template is a parsed "{name}" format string. "{{" and "}}" render as
// literal braces, so regex quantifiers in a template are written "{{2}}".
type Template struct {
	parts []templatePart
}

type templatePart struct {
	text string
	key  string // placeholder name; empty for literal text
}

// ParseTemplate parses tmpl, rejecting unbalanced braces and placeholders
// outside allowed.
func ParseTemplate(tmpl string, allowed ...string) (Template, error) {
	var t Template
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, templatePart{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return Template{}, fmt.Errorf("%w: unclosed '{' in %q", types.ErrTemplate, tmpl)
			}
			key := tmpl[i+1 : i+1+end]
			if !contains(allowed, key) {
				return Template{}, fmt.Errorf("%w: unknown placeholder {%s} in %q", types.ErrTemplate, key, tmpl)
			}
			flush()
			t.parts = append(t.parts, templatePart{key: key})
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return Template{}, fmt.Errorf("%w: single '}' in %q", types.ErrTemplate, tmpl)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

// MustParseTemplate is ParseTemplate that panics on error.
func MustParseTemplate(tmpl string, allowed ...string) Template {
	t, err := ParseTemplate(tmpl, allowed...)
	if err != nil {
		panic(err)
	}
	return t
}

// Execute substitutes vars into the template. Missing keys render empty.
func (t Template) Execute(vars map[string]string) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.key == "" {
			b.WriteString(p.text)
		} else {
			b.WriteString(vars[p.key])
		}
	}
	return b.String()
}

// ExecuteValue is Execute for the single {value} placeholder of a scheme.
func (t Template) ExecuteValue(value string) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.key == "" {
			b.WriteString(p.text)
		} else {
			b.WriteString(value)
		}
	}
	return b.String()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
