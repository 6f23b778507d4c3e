package types

import "errors"

// Sentinel errors for listsmith operations.
var (
	// ErrInvalidRule indicates a non-empty token matching no structural pattern.
	ErrInvalidRule = errors.New("rule is invalid")

	// ErrEmptyRule indicates a line with neither token nor comment.
	ErrEmptyRule = errors.New("rule is empty")

	// ErrRuleCase indicates a domain or scheme name with upper case letters.
	ErrRuleCase = errors.New("rule should be all lowercase")

	// ErrRepeatedWildcard indicates a domain containing "**".
	ErrRepeatedWildcard = errors.New(`rule has "**"`)

	// ErrDuplicateRule indicates a token already seen earlier in scope.
	ErrDuplicateRule = errors.New("rule is duplicated")

	// ErrCoveredRule indicates a domain subsumed by another domain rule.
	ErrCoveredRule = errors.New("rule is covered")

	// ErrUndefinedScheme indicates a scheme rule with no scheme definition.
	ErrUndefinedScheme = errors.New("scheme is undefined")

	// ErrValueTooLong indicates a rendered scheme value exceeds the scheme max.
	ErrValueTooLong = errors.New("rendered value exceeds max length")

	// ErrRegexSyntax indicates a regex rule the host engine cannot compile.
	ErrRegexSyntax = errors.New("regex syntax error")

	// ErrRegexFlag indicates an unknown or duplicated regex flag.
	ErrRegexFlag = errors.New("invalid regex flag")

	// ErrUnknownFormat indicates a build task naming no registered converter.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrUnknownEscaper indicates a scheme naming no registered escaper.
	ErrUnknownEscaper = errors.New("unknown escaper")

	// ErrUnknownKind indicates a processor type naming no rule kind.
	ErrUnknownKind = errors.New("unknown rule kind")

	// ErrTemplate indicates a malformed template or an unknown placeholder.
	ErrTemplate = errors.New("malformed template")

	// ErrFetch indicates a failed or non-success aggregate fetch.
	ErrFetch = errors.New("fetch failed")

	// ErrListTooLarge indicates a fetched body exceeds max_list_size.
	ErrListTooLarge = errors.New("list exceeds maximum size")

	// ErrConfigNotFound indicates no configuration file could be located.
	ErrConfigNotFound = errors.New("config file not found")
)
