// internal/rules/scheme.go
package rules

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/solatis/listsmith/internal/types"
)

/*
 * Scheme handling and packing.
 *
 * A "name:value" rule is looked up in the scheme set; undefined schemes are
 * dropped with a warning. The value runs through the scheme's escapers in
 * order; an empty result is dropped silently.
 *
 * Ungrouped schemes render the value through the template at once and drop
 * it if the rendering exceeds max. Grouped schemes accumulate values per
 * scheme until Flush, because packing needs every candidate.
 *
 * Pack emits the longest prefix of the remaining values whose joined
 * rendering fits max, then repeats on the rest. The rendered length is
 * non-decreasing in the prefix length, so the boundary is found by checking
 * the whole remainder first and binary searching [1, n-1] otherwise. A
 * leading value that cannot fit alone is dropped so it never blocks the
 * values behind it. Lengths count code points.
 */

type compiledScheme struct {
	name    string
	def     types.Scheme
	escapes []EscapeFunc
	tmpl    Template
}

// SchemeSet is a compiled set of scheme definitions.
type SchemeSet struct {
	schemes map[string]*compiledScheme
}

// CompileSchemes validates escapers and templates of every definition.
func CompileSchemes(defs map[string]types.Scheme) (*SchemeSet, error) {
	set := &SchemeSet{schemes: make(map[string]*compiledScheme, len(defs))}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := defs[name]
		cs := &compiledScheme{name: name, def: def}
		for _, e := range def.Escape {
			fn, err := LookupEscaper(e)
			if err != nil {
				return nil, fmt.Errorf("scheme %q: %w", name, err)
			}
			cs.escapes = append(cs.escapes, fn)
		}
		tmpl, err := ParseTemplate(def.Value, "value")
		if err != nil {
			return nil, fmt.Errorf("scheme %q: %w", name, err)
		}
		cs.tmpl = tmpl
		if _, err := types.ParseMode(string(def.Mode)); err != nil {
			return nil, fmt.Errorf("scheme %q: %w", name, err)
		}
		if def.Max != nil && *def.Max < 0 {
			return nil, fmt.Errorf("scheme %q: max must not be negative, got %d", name, *def.Max)
		}
		set.schemes[name] = cs
	}
	return set, nil
}

// NewPacker starts an accumulation scope, one per converted source.
func (s *SchemeSet) NewPacker() *Packer {
	return &Packer{set: s, groups: make(map[string][]packItem)}
}

type packItem struct {
	value string
	rule  types.Rule
}

// Packer handles scheme rules and accumulates grouped values.
type Packer struct {
	set    *SchemeSet
	order  []string
	groups map[string][]packItem
}

// Handle resolves a scheme rule. emit reports whether out should be written
// now; grouped rules return emit=false and surface again from Flush.
func (p *Packer) Handle(r types.Rule) (out types.Rule, emit bool, issue *Issue) {
	var cs *compiledScheme
	if p.set != nil {
		cs = p.set.schemes[r.Scheme]
	}
	if cs == nil {
		return r, false, &Issue{Rule: r, Err: types.ErrUndefinedScheme}
	}

	value := r.SchemeValue
	if value == "" {
		return r, false, nil
	}
	for _, esc := range cs.escapes {
		value = esc(value)
	}
	if value == "" {
		return r, false, nil
	}

	if cs.def.Grouping != "" {
		if _, ok := p.groups[cs.name]; !ok {
			p.order = append(p.order, cs.name)
		}
		p.groups[cs.name] = append(p.groups[cs.name], packItem{value: value, rule: r})
		return r, false, nil
	}

	rendered := cs.tmpl.ExecuteValue(value)
	if cs.def.Max != nil && runeLen(rendered) > *cs.def.Max {
		return r, false, &Issue{Rule: r, Err: fmt.Errorf("%w %d", types.ErrValueTooLong, *cs.def.Max)}
	}
	return FromMode(r, rendered, cs.def.Mode), true, nil
}

// Flush packs every accumulated group, in order of first appearance, and
// resets the packer.
func (p *Packer) Flush() ([]types.Rule, []Issue) {
	var out []types.Rule
	var issues []Issue
	for _, name := range p.order {
		cs := p.set.schemes[name]
		items := p.groups[name]

		values := make([]string, len(items))
		for i, it := range items {
			values[i] = it.value
		}

		lines, dropped := Pack(values, cs.def.Grouping, cs.tmpl, cs.def.Max)
		for _, i := range dropped {
			issues = append(issues, Issue{Rule: items[i].rule, Err: fmt.Errorf("%w %d", types.ErrValueTooLong, *cs.def.Max)})
		}
		origin := types.Rule{Source: items[0].rule.Source}
		for _, line := range lines {
			out = append(out, FromMode(origin, line, cs.def.Mode))
		}
	}
	p.order = nil
	p.groups = make(map[string][]packItem)
	return out, issues
}

// Pack joins values with sep into as few template renderings as possible,
// none longer than max. It returns the rendered lines and the indices of
// values dropped because they cannot fit alone. A nil max yields one line.
func Pack(values []string, sep string, tmpl Template, max *int) (lines []string, dropped []int) {
	if len(values) == 0 {
		return nil, nil
	}
	if max == nil {
		return []string{tmpl.ExecuteValue(strings.Join(values, sep))}, nil
	}

	for offset := 0; offset < len(values); {
		n, line := fitPrefix(values[offset:], sep, tmpl, *max)
		if n == 0 {
			dropped = append(dropped, offset)
			offset++
			continue
		}
		lines = append(lines, line)
		offset += n
	}
	return lines, dropped
}

// fitPrefix returns the largest k such that the rendering of items[:k]
// fits max, with that rendering. k is 0 if items[0] alone does not fit.
func fitPrefix(items []string, sep string, tmpl Template, max int) (int, string) {
	render := func(k int) string {
		return tmpl.ExecuteValue(strings.Join(items[:k], sep))
	}

	// Everything fits: the common case.
	if line := render(len(items)); runeLen(line) <= max {
		return len(items), line
	}

	best, bestLine := 0, ""
	lo, hi := 1, len(items)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		line := render(mid)
		if runeLen(line) <= max {
			best, bestLine = mid, line
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best, bestLine
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
