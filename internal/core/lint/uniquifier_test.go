package lint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/listsmith/internal/types"
)

func TestUniquifier_PerFile(t *testing.T) {
	fs := newFs(t, map[string]string{
		"src/a.txt": "a.com\nb.com\na.com  # again\n",
		"src/b.txt": "a.com\n",
	})

	report, err := NewUniquifier(fs, root, UniquifyOptions{
		Files:   []string{"src"},
		AutoFix: true,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, countErr(report.Issues, types.ErrDuplicateRule))
	assert.Equal(t, []string{"src/a.txt"}, report.Written)
	assert.Equal(t, "a.com\nb.com\n", readFile(t, fs, "src/a.txt"))
	assert.Equal(t, "a.com\n", readFile(t, fs, "src/b.txt"))
}

func TestUniquifier_CrossFiles(t *testing.T) {
	fs := newFs(t, map[string]string{
		"src/a.txt": "example.com\nb.com\n",
		"src/b.txt": "b.com\nx.example.com\n",
		"src/c.txt": "c.com\n",
	})

	report, err := NewUniquifier(fs, root, UniquifyOptions{
		Files:      []string{"src"},
		CrossFiles: true,
		Advanced:   true,
		AutoFix:    true,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, countErr(report.Issues, types.ErrDuplicateRule))
	assert.Equal(t, 1, countErr(report.Issues, types.ErrCoveredRule))
	assert.Equal(t, []string{"src/b.txt"}, report.Written)
	assert.Equal(t, "example.com\nb.com\n", readFile(t, fs, "src/a.txt"))
	assert.Equal(t, "", readFile(t, fs, "src/b.txt"))
	assert.Equal(t, "c.com\n", readFile(t, fs, "src/c.txt"))
}

func TestUniquifier_DuplicateIssueNamesOriginal(t *testing.T) {
	fs := newFs(t, map[string]string{
		"src/a.txt": "dup.com\n",
		"src/b.txt": "\ndup.com\n",
	})

	report, err := NewUniquifier(fs, root, UniquifyOptions{Files: []string{"src"}, CrossFiles: true}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Issues, 1)
	is := report.Issues[0]
	assert.Equal(t, types.Source{Path: "src/b.txt", Line: 2}, is.Rule.Source)
	assert.Equal(t, types.Source{Path: "src/a.txt", Line: 1}, is.Related.Source)
	assert.Empty(t, report.Written)
}

func TestUniquifier_AutoFixExcludes(t *testing.T) {
	fs := newFs(t, map[string]string{
		"src/a.txt":      "a.com\n",
		"src/keep/b.txt": "a.com\nb.com\n",
	})

	report, err := NewUniquifier(fs, root, UniquifyOptions{
		Files:           []string{"src"},
		CrossFiles:      true,
		AutoFix:         true,
		AutoFixExcludes: []string{"src/keep"},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, countErr(report.Issues, types.ErrDuplicateRule))
	assert.Empty(t, report.Written)
	assert.Equal(t, "a.com\nb.com\n", readFile(t, fs, "src/keep/b.txt"))
}

func TestUniquifier_NoAutoFixLeavesFiles(t *testing.T) {
	content := "a.com\na.com\n"
	fs := newFs(t, map[string]string{"a.txt": content})

	report, err := NewUniquifier(fs, root, UniquifyOptions{Files: []string{"a.txt"}}).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Issues, 1)
	assert.Equal(t, content, readFile(t, fs, "a.txt"))
}

func TestUniquifier_StripEOLAfterSave(t *testing.T) {
	fs := newFs(t, map[string]string{"a.txt": "a.com\na.com\n"})

	_, err := NewUniquifier(fs, root, UniquifyOptions{
		Files:    []string{"a.txt"},
		AutoFix:  true,
		StripEOL: true,
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a.com", readFile(t, fs, "a.txt"))
}

func TestUniquifier_ReadsFromAferoFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	report, err := NewUniquifier(fs, root, UniquifyOptions{Files: []string{"nothing.txt"}}).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Files)
}

func TestUniquifier_AutoFixExcludesFollowSymlinks(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(dir, "src", "keep"), 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "src", "a.txt"), []byte("a.com\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "src", "keep", "b.txt"), []byte("a.com\nb.com\n"), 0o644))
	if err := os.Symlink(filepath.Join(dir, "src", "keep", "b.txt"), filepath.Join(dir, "alias.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	report, err := NewUniquifier(fs, dir, UniquifyOptions{
		Files:           []string{"src"},
		CrossFiles:      true,
		AutoFix:         true,
		AutoFixExcludes: []string{"alias.txt"},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, countErr(report.Issues, types.ErrDuplicateRule))
	assert.Empty(t, report.Written)
	data, err := os.ReadFile(filepath.Join(dir, "src", "keep", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a.com\nb.com\n", string(data))
}
