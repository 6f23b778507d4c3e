package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/listsmith/internal/types"
)

// EscapeFunc is a pure string transform applied to a scheme value.
type EscapeFunc func(string) string

// escapers is the closed escaper table.
var escapers = map[types.Escaper]EscapeFunc{
	types.EscapeRegex:             EscapeRegex,
	types.EscapeRegexWithWildcard: escapeRegexWithWildcard,
	types.EscapeURL:               escapeURL,
}

// LookupEscaper returns the function registered under name.
func LookupEscaper(name types.Escaper) (EscapeFunc, error) {
	fn, ok := escapers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownEscaper, string(name))
	}
	return fn, nil
}

// SplitEscapers splits a comma separated escaper list, ignoring blanks.
// Names are not checked here; CompileSchemes reports unknown ones.
func SplitEscapers(list string) []types.Escaper {
	out := []types.Escaper{}
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, types.Escaper(name))
		}
	}
	return out
}

// regexSpecial is the set of bytes EscapeRegex prefixes with a backslash.
const regexSpecial = "()[]{}?*+-|^$\\.&~# \t\n\r\v\f"

// EscapeRegex quotes value for use in a regex. It escapes the same bytes as
// Python's re.escape, so published lists stay byte-compatible.
func EscapeRegex(value string) string {
	var b strings.Builder
	b.Grow(len(value) * 2)
	for i := 0; i < len(value); i++ {
		c := value[i]
		if strings.IndexByte(regexSpecial, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// escapeRegexWithWildcard quotes value for a regex, turning each "*" into ".*".
func escapeRegexWithWildcard(value string) string {
	parts := strings.Split(value, "*")
	for i, p := range parts {
		parts[i] = EscapeRegex(p)
	}
	return strings.Join(parts, ".*")
}

// escapeURL percent-escapes every byte outside [A-Za-z0-9_.~/-].
func escapeURL(value string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isURLSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isURLSafe(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '-', '~', '/':
		return true
	}
	return false
}
