package rules

import "strings"

const bom = "\ufeff"

// SplitLines splits source text into lines the way a text-mode reader
// would: a leading BOM is dropped, "\r\n" and "\r" count as "\n", and a
// final line terminator does not produce an extra empty line.
func SplitLines(data []byte) []string {
	text := strings.TrimPrefix(string(data), bom)
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// JoinLines renders rules one per line, each terminated by "\n".
func JoinLines(rules []string) []byte {
	var b strings.Builder
	for _, l := range rules {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
