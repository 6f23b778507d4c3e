// Package fsutil holds the whole-file read and write helpers shared by the
// lint, build and aggregate drivers. Every helper takes an afero.Fs so
// drivers run unchanged against the OS or an in-memory filesystem.
package fsutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// SourceExt is the extension of rule source files found in directories.
const SourceExt = ".txt"

// FlattenFiles expands every directory in paths to the rule source files
// below it, sorted, and passes other paths through unchanged. Paths that do
// not exist are passed through so the caller can report them when reading.
func FlattenFiles(fs afero.Fs, paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := fs.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}

		var found []string
		err = afero.Walk(fs, p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && strings.HasSuffix(fi.Name(), SourceExt) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// ReadLines reads path and splits it into lines.
func ReadLines(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	lines := rules.SplitLines(data)
	for i, l := range lines {
		if len(l) > types.MaxLineLength {
			return nil, fmt.Errorf("%s:%d: line exceeds %d bytes", path, i+1, types.MaxLineLength)
		}
	}
	return lines, nil
}

// WriteLines replaces path with lines, each terminated by "\n".
func WriteLines(fs afero.Fs, path string, lines []string) error {
	return WriteFile(fs, path, rules.JoinLines(lines))
}

// WriteFile replaces path with data in one write, creating parent
// directories as needed.
func WriteFile(fs afero.Fs, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// StripEOL removes trailing "\r" and "\n" bytes from path. It reports
// whether the file changed.
func StripEOL(fs afero.Fs, path string) (bool, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return false, err
	}
	trimmed := bytes.TrimRight(data, "\r\n")
	if len(trimmed) == len(data) {
		return false, nil
	}
	return true, afero.WriteFile(fs, path, trimmed, 0o644)
}

// Resolve interprets p relative to root unless it is absolute.
func Resolve(root, p string) string {
	if filepath.IsAbs(p) || root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// Rel renders p relative to root for diagnostics, or p itself when it lies
// outside root.
func Rel(root, p string) string {
	if root == "" {
		return p
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}
