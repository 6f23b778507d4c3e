// Package types provides domain models shared across listsmith components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the rules and convert packages can share them without
// pulling in config or CLI deps. ID utilities in ids.go import uuid but are
// isolated to the build and aggregate drivers.
package types

import "fmt"

// Kind is the structural category of a rule token.
// Exactly one Kind is active per Rule.
type Kind int

const (
	KindEmpty Kind = iota
	KindInvalid
	KindDomain
	KindIPv4
	KindIPv6
	KindScheme
	KindRegex
	KindRaw
)

var kindNames = [...]string{
	KindEmpty:   "empty",
	KindInvalid: "invalid",
	KindDomain:  "domain",
	KindIPv4:    "ipv4",
	KindIPv6:    "ipv6",
	KindScheme:  "scheme",
	KindRegex:   "regex",
	KindRaw:     "raw",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the configuration name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a processor "type" name via ParseKind.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind maps a processor "type" name to a Kind.
// Only kinds a processor can target are accepted; empty and invalid rules
// never reach the transform chain.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "domain":
		return KindDomain, nil
	case "ipv4":
		return KindIPv4, nil
	case "ipv6":
		return KindIPv6, nil
	case "scheme":
		return KindScheme, nil
	case "regex":
		return KindRegex, nil
	case "raw":
		return KindRaw, nil
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Mode selects how a transformed or templated text becomes a rule again.
type Mode string

const (
	// ModeNormal re-classifies the produced text.
	ModeNormal Mode = ""
	// ModeRaw pins the produced text verbatim as a raw rule.
	ModeRaw Mode = "raw"
)

// ParseMode accepts "", "normal" and "raw".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "normal":
		return ModeNormal, nil
	case "raw":
		return ModeRaw, nil
	}
	return ModeNormal, fmt.Errorf("unknown mode %q", s)
}

// Source locates a rule in its originating file.
type Source struct {
	Path string
	Line int // 1-based; 0 for synthesized rules
}

// String renders "path:line" for diagnostics.
func (s Source) String() string {
	if s.Line <= 0 {
		return s.Path
	}
	return fmt.Sprintf("%s:%d", s.Path, s.Line)
}

// Resource limits.
const (
	// MaxLineLength bounds a single source line read from disk.
	// Blocklist lines are short; anything longer is treated as a read error.
	MaxLineLength = 1024 * 1024

	// DefaultMaxListSize caps a fetched aggregate body.
	DefaultMaxListSize = "64MB"

	// TimestampLayout is the header {now} format: UTC, seconds, ISO-8601.
	TimestampLayout = "2006-01-02T15:04:05+00:00"
)
