// internal/rules/classify.go
package rules

import (
	"net/netip"
	"regexp"
	"strings"
	"unicode"

	"github.com/solatis/listsmith/internal/types"
)

/*
 * Rule parsing and structural classification.
 *
 * A source line splits into token, separator and comment: the first run of
 * non-whitespace, the following run of whitespace, then the remainder. The
 * split is lossless so Line() reproduces the input exactly.
 *
 * Classification order is fixed and first match wins:
 *   1. regex   /pattern/flags
 *   2. scheme  name:value (name starts with a letter, >= 2 chars)
 *   3. ipv6    [literal]   (bracketed; a bad literal is invalid, no fallthrough)
 *   4. ipv4    dotted quad
 *   5. domain  dot-joined labels of [0-9A-Za-z*] with interior hyphens
 *
 * A colon cannot appear in a domain, so "a:b" is always a scheme.
 */

var (
	reRegexRule  = regexp.MustCompile(`^/(.*)/([a-z]*)$`)
	reSchemeRule = regexp.MustCompile(`^([A-Za-z][0-9A-Za-z+.-]+):(.*)$`)
	reDomainRule = regexp.MustCompile(
		`^(?:[0-9A-Za-z*](?:[-0-9A-Za-z*]*[0-9A-Za-z*])?)` +
			`(?:\.(?:[0-9A-Za-z*](?:[-0-9A-Za-z*]*[0-9A-Za-z*])?))*$`)
)

// Parse builds a classified Rule from one source line.
// lineNo is 1-based; pass 0 for synthesized lines.
func Parse(line, path string, lineNo int) types.Rule {
	token, sep, comment := splitLine(line)
	r := classify(token)
	r.Input = line
	r.Sep = sep
	r.Comment = comment
	r.Source = types.Source{Path: path, Line: lineNo}
	return r
}

// WithToken returns a new Rule classified from token, keeping the
// separator, comment, input and provenance of r.
func WithToken(r types.Rule, token string) types.Rule {
	n := classify(token)
	n.Input = r.Input
	n.Sep = r.Sep
	n.Comment = r.Comment
	n.Source = r.Source
	return n
}

// Pin returns a new Rule holding text verbatim as a raw rule, bypassing
// classification. Empty text yields an empty rule.
func Pin(r types.Rule, text string) types.Rule {
	n := types.Rule{
		Input:   r.Input,
		Value:   text,
		Sep:     r.Sep,
		Comment: r.Comment,
		Kind:    types.KindRaw,
		Source:  r.Source,
	}
	if text == "" {
		n.Kind = types.KindEmpty
	}
	return n
}

// FromMode applies WithToken or Pin according to mode.
func FromMode(r types.Rule, text string, mode types.Mode) types.Rule {
	if mode == types.ModeRaw {
		return Pin(r, text)
	}
	return WithToken(r, text)
}

func classify(token string) types.Rule {
	r := types.Rule{Value: token}
	if token == "" {
		r.Kind = types.KindEmpty
		return r
	}

	if m := reRegexRule.FindStringSubmatch(token); m != nil {
		r.Kind = types.KindRegex
		r.Pattern = m[1]
		r.Flags = m[2]
		return r
	}

	if m := reSchemeRule.FindStringSubmatch(token); m != nil {
		r.Kind = types.KindScheme
		r.Scheme = m[1]
		r.SchemeValue = m[2]
		return r
	}

	if len(token) >= 2 && token[0] == '[' && token[len(token)-1] == ']' {
		r.Kind = types.KindInvalid
		if ip, err := netip.ParseAddr(token[1 : len(token)-1]); err == nil && ip.Is6() {
			r.Kind = types.KindIPv6
		}
		return r
	}

	if ip, err := netip.ParseAddr(token); err == nil && ip.Is4() {
		r.Kind = types.KindIPv4
		return r
	}

	if reDomainRule.MatchString(token) {
		r.Kind = types.KindDomain
		return r
	}

	r.Kind = types.KindInvalid
	return r
}

// splitLine implements "^(\S*)(\s*)(.*)$" with Unicode whitespace.
func splitLine(line string) (token, sep, comment string) {
	i := indexFunc(line, 0, unicode.IsSpace)
	j := indexFunc(line, i, func(r rune) bool { return !unicode.IsSpace(r) })
	return line[:i], line[i:j], line[j:]
}

func indexFunc(s string, from int, f func(rune) bool) int {
	if k := strings.IndexFunc(s[from:], f); k >= 0 {
		return from + k
	}
	return len(s)
}
