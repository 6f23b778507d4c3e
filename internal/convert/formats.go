package convert

import (
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

var reCommentLead = regexp.MustCompile(`^\s*(?://|#)`)

// renderComment rewrites a source comment into the "  #..." suffix used by
// every line format. An empty comment renders as "".
func renderComment(comment string) string {
	if comment == "" {
		return ""
	}
	return "  #" + reCommentLead.ReplaceAllString(comment, "")
}

// commentOnly renders a line that holds only a comment as "#<comment>",
// or nothing.
func commentOnly(r types.Rule) (string, bool) {
	if r.Kind == types.KindEmpty && r.Value == "" && r.Comment != "" {
		return strings.TrimLeftFunc(renderComment(r.Comment), isSpace), true
	}
	return "", false
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f' || r == '\r' || r == '\n'
}

// cft re-emits the normalized source form and drops invalid rules.
var cftConverter = &lineConverter{
	format:  FormatCFT,
	prefix:  "  # ",
	schemes: true,
	render: func(r types.Rule) (string, bool) {
		if r.Kind == types.KindInvalid {
			return "", false
		}
		return r.Line(), true
	},
}

// hosts maps plain domains to the loopback address. Wildcards, regexes and
// IP rules have no hosts representation.
var hostsConverter = &lineConverter{
	format:  FormatHosts,
	prefix:  "# ",
	schemes: false,
	render: func(r types.Rule) (string, bool) {
		switch {
		case r.Kind == types.KindDomain && !strings.Contains(r.Value, "*"),
			r.Kind == types.KindRaw:
			return "127.0.0.1 " + r.Value + renderComment(r.Comment), true
		}
		return commentOnly(r)
	},
}

// ubo renders uBlock Origin static network filters.
var uboConverter = &lineConverter{
	format:  FormatUBO,
	prefix:  "! ",
	schemes: true,
	render: func(r types.Rule) (string, bool) {
		switch r.Kind {
		case types.KindRegex:
			return r.Value + "$document" + renderComment(r.Comment), true
		case types.KindDomain, types.KindIPv4, types.KindIPv6:
			out := "||" + r.Value + "^"
			if strings.Contains(r.Value, "*") {
				out += "$document"
			}
			return out + renderComment(r.Comment), true
		case types.KindRaw:
			return r.Value + renderComment(r.Comment), true
		}
		return commentOnly(r)
	},
}

// ublacklist renders uBlacklist match patterns and regular expressions.
var ublacklistConverter = &lineConverter{
	format:  FormatUBlacklist,
	prefix:  "# ",
	schemes: true,
	render: func(r types.Rule) (string, bool) {
		switch r.Kind {
		case types.KindRegex:
			return "/" + rules.EscapeRegexSlash(r.Pattern) + "/" + r.Flags + renderComment(r.Comment), true
		case types.KindIPv4, types.KindIPv6:
			return "*://" + r.Value + "/*" + renderComment(r.Comment), true
		case types.KindDomain:
			if strings.Contains(r.Value, "*") {
				return ublacklistWildcard(r.Value) + renderComment(r.Comment), true
			}
			return "*://*." + r.Value + "/*" + renderComment(r.Comment), true
		case types.KindRaw:
			return r.Value + renderComment(r.Comment), true
		}
		return commentOnly(r)
	},
}

// ublacklistWildcard turns a wildcard domain into a URL regex matching the
// domain and its subdomains over http and https.
func ublacklistWildcard(domain string) string {
	body := strings.ReplaceAll(rules.EscapeRegex(domain), `\*`, `[\w.-]*`)
	return `/https?:\/\/(?:[\w-]+\.)*(?:` + body + `)(?=[:\/?#]|$)/`
}

// copyConverter writes sources verbatim without any rule processing.
type copyConverter struct{}

func (copyConverter) Format() Format { return FormatCopy }

func (copyConverter) WriteHeader(w io.Writer, data types.TaskData, now time.Time) error {
	return writeHeader(w, "", data, now)
}

func (copyConverter) Convert(w io.Writer, src Source, _ *rules.Engine) ([]rules.Issue, error) {
	_, err := w.Write(src.Data)
	return nil, err
}
