package aggregate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-faster/jx"

	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// Type names a remote list format.
type Type string

const (
	TypeDomainsTxt  Type = "domains_txt"
	TypeDomainsJSON Type = "domains_json"
	TypeUBlacklist  Type = "ublacklist"
)

// DefaultType is used when an aggregate task names no type.
const DefaultType = TypeDomainsTxt

// Parser converts a fetched body into source rules. url becomes the
// provenance path of every rule.
type Parser func(data []byte, url string) ([]types.Rule, error)

var parsers = map[Type]Parser{
	TypeDomainsTxt:  parseDomainsTxt,
	TypeDomainsJSON: parseDomainsJSON,
	TypeUBlacklist:  parseUBlacklist,
}

// LookupParser returns the parser for name. An empty name selects
// DefaultType.
func LookupParser(name string) (Parser, error) {
	if name == "" {
		name = string(DefaultType)
	}
	p, ok := parsers[Type(name)]
	if !ok {
		return nil, fmt.Errorf("%w: aggregate type %q (known: %s)", types.ErrUnknownFormat, name, strings.Join(Types(), ", "))
	}
	return p, nil
}

// Types lists registered aggregate types, sorted.
func Types() []string {
	names := make([]string, 0, len(parsers))
	for t := range parsers {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// parseDomainsTxt reads one rule per non-blank line.
func parseDomainsTxt(data []byte, url string) ([]types.Rule, error) {
	var out []types.Rule
	for i, line := range rules.SplitLines(data) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, rules.Parse(line, url, i+1))
	}
	return out, nil
}

// parseDomainsJSON reads a JSON array of domain strings. Array positions
// are used as line numbers.
func parseDomainsJSON(data []byte, url string) ([]types.Rule, error) {
	var out []types.Rule
	i := 0
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		i++
		s, err := d.Str()
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if strings.TrimSpace(s) != "" {
			out = append(out, rules.Parse(s, url, i))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return out, nil
}

// reUBlacklistLine is the uBlacklist line grammar: an optional highlight,
// then a match pattern or a regular expression, then an optional comment.
var reUBlacklistLine = func() *regexp.Regexp {
	const (
		color       = `(?P<color>0|[1-9]\d*)`
		highlight   = `(?P<highlight>@` + color + `?)`
		scheme      = `(?P<scheme>\*|[Hh][Tt][Tt][Pp][Ss]?|[Ff][Tt][Pp])`
		label       = `(?:[0-9A-Za-z](?:[-0-9A-Za-z]*[0-9A-Za-z])?)`
		host        = `(?P<host>(?:\*|` + label + `)(?:\.` + label + `)*)`
		path        = `(?P<path>/(?:\*|[-0-9A-Za-z._~:/?[\]@!$&'()+,;=]|%[0-9A-Fa-f]{2})*)`
		match       = `(?P<matchPattern>` + scheme + `://` + host + path + `)`
		prop        = `(?P<prop>u(?:rl)?|t(?:itle)?)`
		backslash   = `(?:\\.)`
		class       = `(?:\[(?:[^\]\\]|` + backslash + `)*\])`
		firstChar   = `(?:[^*\\/[]|` + backslash + `|` + class + `)`
		char        = `(?:[^\\/[]|` + backslash + `|` + class + `)`
		pattern     = `(?P<pattern>` + firstChar + char + `*)`
		flags       = `(?P<flags>iu?|ui?)`
		regex       = `(?P<regularExpression>` + prop + `?/` + pattern + `/` + flags + `?)`
		rule        = `(?P<rule>(?:` + highlight + `\s*)?(?:` + match + `|` + regex + `))`
		comment     = `(?P<comment>#.*)`
		line        = `^\s*(?:` + rule + `\s*)?` + comment + `?$`
	)
	return regexp.MustCompile(line)
}()

// parseUBlacklist converts uBlacklist rules. Host-wide match patterns become
// domain rules; other match patterns become mp-path, mp-hosts-path or
// mp-host-path scheme rules, which carry no comment. Highlight rules and
// title regexes do not block and are skipped, as are comment lines.
func parseUBlacklist(data []byte, url string) ([]types.Rule, error) {
	re := reUBlacklistLine
	group := func(m []string, name string) string {
		return m[re.SubexpIndex(name)]
	}

	var out []types.Rule
	for i, line := range rules.SplitLines(data) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := re.FindStringSubmatch(line)
		if m == nil || group(m, "highlight") != "" {
			continue
		}

		comment := ""
		if c := group(m, "comment"); c != "" {
			comment = " " + c
		}

		var token string
		switch {
		case group(m, "matchPattern") != "":
			host, path := group(m, "host"), group(m, "path")
			switch {
			case host != "*" && (path == "/" || path == "/*"):
				host = strings.TrimPrefix(host, "*.")
				host = strings.TrimPrefix(host, "www.")
				token = host
			case host == "*":
				token, comment = "mp-path:"+path[1:], ""
			case strings.HasPrefix(host, "*."):
				token, comment = "mp-hosts-path:"+host[2:]+path, ""
			default:
				token, comment = "mp-host-path:"+host+path, ""
			}

		case group(m, "regularExpression") != "":
			if p := group(m, "prop"); p == "t" || p == "title" {
				continue
			}
			token = "/" + group(m, "pattern") + "/" + group(m, "flags")

		default:
			continue
		}
		out = append(out, rules.Parse(token+comment, url, i+1))
	}
	return out, nil
}
