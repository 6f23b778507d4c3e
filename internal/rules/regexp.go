// internal/rules/regexp.go
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/solatis/listsmith/internal/types"
)

/*
 * Best-effort syntax validation of ECMAScript regex rules.
 *
 * The host engine (regexp2) is not an ECMAScript engine. Validation may
 * reject a pattern a browser accepts and accept one it rejects; callers treat
 * failures as warnings, never as ground truth. Matching is never performed.
 *
 * Flags: d g i m s u y. Duplicates and unknown flags are errors. Only i, m
 * and s change host options; u only switches \u{hex} handling.
 *
 * Pattern rewriting, skipping every escaped two-character sequence:
 *   (?<name>   -> host named group
 *   \k<name>   -> host named back reference
 *   \u{hex}    -> \uXXXX or the literal code point with u, literal "u{hex}" without
 */

var jsFlagOptions = map[rune]regexp2.RegexOptions{
	'd': regexp2.None,
	'g': regexp2.None,
	'i': regexp2.IgnoreCase,
	'm': regexp2.Multiline,
	's': regexp2.Singleline,
	'u': regexp2.None,
	'y': regexp2.None,
}

// Group 1: named group definition (lookbehind "(?<=" and "(?<!" excluded).
// Group 2: named back reference. Group 3: braced unicode hex. Group 4: escape.
var jsPatternFixer = regexp.MustCompile(`(?s)\(\?<([^>=!][^>]*)>|\\k<([^>]+)>|\\u\{([0-9A-Fa-f]+)\}|(\\.)`)

// CompileRegExp validates a JavaScript style regex pattern with flags and
// returns the compiled host regex.
func CompileRegExp(pattern, flags string) (*regexp2.Regexp, error) {
	seen := make(map[rune]bool, len(flags))
	opts := regexp2.None
	for _, f := range flags {
		if seen[f] {
			return nil, fmt.Errorf("%w: duplicated flag %c", types.ErrRegexFlag, f)
		}
		seen[f] = true

		opt, ok := jsFlagOptions[f]
		if !ok {
			return nil, fmt.Errorf("%w: invalid flag %c", types.ErrRegexFlag, f)
		}
		opts |= opt
	}

	translated := TranslateRegExp(pattern, seen['u'])
	re, err := regexp2.Compile(translated, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrRegexSyntax, err)
	}
	return re, nil
}

// TranslateRegExp rewrites JavaScript-only syntax in pattern into the host
// engine's syntax. unicode reports whether the u flag is present.
func TranslateRegExp(pattern string, unicode bool) string {
	matches := jsPatternFixer.FindAllStringSubmatchIndex(pattern, -1)
	if matches == nil {
		return pattern
	}

	var b strings.Builder
	b.Grow(len(pattern))
	last := 0
	for _, m := range matches {
		b.WriteString(pattern[last:m[0]])
		last = m[1]

		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return pattern[m[2*i]:m[2*i+1]]
		}

		switch {
		case m[8] >= 0:
			b.WriteString(group(4))
		case m[2] >= 0:
			b.WriteString("(?<" + group(1) + ">")
		case m[4] >= 0:
			b.WriteString(`\k<` + group(2) + ">")
		case m[6] >= 0:
			b.WriteString(braceUnicode(group(3), unicode))
		}
	}
	b.WriteString(pattern[last:])
	return b.String()
}

func braceUnicode(hex string, unicode bool) string {
	if !unicode {
		return "u{" + hex + "}"
	}
	code, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || code > 0x10FFFF {
		// Let the host engine report the bad escape.
		return `\u{` + hex + "}"
	}
	if code <= 0xFFFF {
		return fmt.Sprintf(`\u%04X`, code)
	}
	return regexp.QuoteMeta(string(rune(code)))
}

// EscapeRegexSlash escapes unescaped "/" in a possibly escaped regex so it
// can be written between slash delimiters.
func EscapeRegexSlash(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text):
			b.WriteByte(c)
			i++
			b.WriteByte(text[i])
		case c == '/':
			b.WriteString(`\/`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
