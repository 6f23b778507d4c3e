// internal/rules/coverage.go
package rules

import (
	"regexp"
	"strings"

	"github.com/solatis/listsmith/internal/types"
)

/*
 * Coverage engine: exact duplicate removal and wildcard coverage removal.
 *
 * Deduplicate keeps the first occurrence of every non-empty token. Empty
 * tokens (blank and comment-only lines) are never duplicates.
 *
 * RemoveCovered drops a domain rule D when another domain rule R, at a
 * different position in the scope, covers it:
 *
 *     ^(?:[\w*-]+\.)*  <R quoted, each \* -> [\w*-]*>  $
 *
 * so "example.com" covers "a.example.com" and "*.example.com" but not
 * "notexample.com". The check is O(n^2) per scope. The regex is anchored on
 * R's literal tail (text after its last "*"), so D must end with that tail;
 * testing the suffix first skips most regex evaluations without changing
 * the result.
 */

// CoverageRegexp builds the regex matching every domain covered by domain.
func CoverageRegexp(domain string) *regexp.Regexp {
	quoted := strings.ReplaceAll(regexp.QuoteMeta(domain), `\*`, `[\w*-]*`)
	return regexp.MustCompile(`^(?:[\w*-]+\.)*` + quoted + `$`)
}

// Deduplicate removes later rules whose token equals an earlier one.
// Survivors keep their order.
func Deduplicate(rules []types.Rule) ([]types.Rule, []Issue) {
	kept := make([]types.Rule, 0, len(rules))
	var issues []Issue
	first := make(map[string]int, len(rules))
	for i, r := range rules {
		if r.Value != "" {
			if j, ok := first[r.Value]; ok {
				orig := rules[j]
				issues = append(issues, Issue{Rule: r, Err: types.ErrDuplicateRule, Related: &orig, Fixed: true})
				continue
			}
			first[r.Value] = i
		}
		kept = append(kept, r)
	}
	return kept, issues
}

type coverer struct {
	index int
	rule  types.Rule
	tail  string
	regex *regexp.Regexp
}

// RemoveCovered removes domain rules covered by another domain rule.
func RemoveCovered(rules []types.Rule) ([]types.Rule, []Issue) {
	var covers []coverer
	for i, r := range rules {
		if r.Kind != types.KindDomain {
			continue
		}
		tail := r.Value
		if k := strings.LastIndexByte(tail, '*'); k >= 0 {
			tail = tail[k+1:]
		}
		covers = append(covers, coverer{index: i, rule: r, tail: tail, regex: CoverageRegexp(r.Value)})
	}

	kept := make([]types.Rule, 0, len(rules))
	var issues []Issue
	for i, r := range rules {
		if r.Kind == types.KindDomain {
			if by, ok := coveredBy(i, r, covers); ok {
				issues = append(issues, Issue{Rule: r, Err: types.ErrCoveredRule, Related: &by, Fixed: true})
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept, issues
}

func coveredBy(index int, r types.Rule, covers []coverer) (types.Rule, bool) {
	for _, c := range covers {
		if c.index == index {
			continue
		}
		if !strings.HasSuffix(r.Value, c.tail) {
			continue
		}
		if c.regex.MatchString(r.Value) {
			return c.rule, true
		}
	}
	return types.Rule{}, false
}
