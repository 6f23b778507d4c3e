package lint

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

const root = "/repo"

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, content := range files {
		require.NoError(t, afero.WriteFile(fs, root+"/"+p, []byte(content), 0o644))
	}
	return fs
}

func readFile(t *testing.T, fs afero.Fs, p string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, root+"/"+p)
	require.NoError(t, err)
	return string(data)
}

func countErr(issues []rules.Issue, target error) int {
	n := 0
	for _, is := range issues {
		if errors.Is(is, target) {
			n++
		}
	}
	return n
}

func TestCheckRule(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		opts      LintOptions
		wantLine  string
		wantErr   error
		wantKeep  bool
		wantFixed bool
	}{
		{"valid domain", "example.com", LintOptions{}, "example.com", nil, true, false},
		{"invalid", "bad_domain  # c", LintOptions{}, "bad_domain  # c", types.ErrInvalidRule, false, false},
		{"upper case domain", "Example.COM # c", LintOptions{}, "example.com # c", types.ErrRuleCase, true, true},
		{"wildcard run", "a**.b.com", LintOptions{}, "a*.b.com", types.ErrRepeatedWildcard, true, true},
		{"blank kept by default", "", LintOptions{}, "", nil, true, false},
		{"blank removed", "", LintOptions{RemoveEmpty: true}, "", types.ErrEmptyRule, false, true},
		{"comment line never empty", "  # note", LintOptions{RemoveEmpty: true}, "  # note", nil, true, false},
		{"regex unchecked", "/(/", LintOptions{}, "/(/", nil, true, false},
		{"regex checked", "/(/", LintOptions{CheckRegex: true}, "/(/", types.ErrRegexSyntax, false, false},
		{"regex bad flag", "/a/gg", LintOptions{CheckRegex: true}, "/a/gg", types.ErrRegexFlag, false, false},
		{"scheme case", "App:Value", LintOptions{}, "app:Value", types.ErrRuleCase, true, true},
		{"ipv4 untouched", "10.0.0.1", LintOptions{}, "10.0.0.1", nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixed, issues, keep := CheckRule(rules.Parse(tt.line, "a.txt", 1), tt.opts)
			assert.Equal(t, tt.wantKeep, keep)
			if keep {
				assert.Equal(t, tt.wantLine, fixed.Line())
			}
			if tt.wantErr == nil {
				assert.Empty(t, issues)
				return
			}
			require.NotEmpty(t, issues)
			assert.ErrorIs(t, issues[0], tt.wantErr)
			assert.Equal(t, tt.wantFixed, issues[0].Fixed)
		})
	}
}

func TestSortRules(t *testing.T) {
	in := parseLines([]string{"c.com", "a.com # 2", "a.com # 1", "", "z.com", "b.com", "  # boundary", "y.com", "x.com"}, "f")
	got := renderLines(SortRules(in))
	assert.Equal(t, []string{"a.com # 1", "a.com # 2", "c.com", "", "b.com", "z.com", "  # boundary", "x.com", "y.com"}, got)
}

func TestLinter_ReportsWithoutAutoFix(t *testing.T) {
	content := "Example.com\nbad_domain\nexample.org\n"
	fs := newFs(t, map[string]string{"src/list.txt": content})

	report, err := NewLinter(fs, root, LintOptions{Files: []string{"src"}}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"src/list.txt"}, report.Files)
	assert.Empty(t, report.Written)
	assert.Equal(t, 1, countErr(report.Issues, types.ErrInvalidRule))
	assert.Equal(t, 1, countErr(report.Issues, types.ErrRuleCase))
	assert.Equal(t, content, readFile(t, fs, "src/list.txt"))
}

func TestLinter_AutoFix(t *testing.T) {
	fs := newFs(t, map[string]string{
		"src/list.txt": "Example.com  # keep\nbad_domain\n\n  # section\nads**.net\n",
	})

	report, err := NewLinter(fs, root, LintOptions{
		Files:       []string{"src/list.txt"},
		AutoFix:     true,
		RemoveEmpty: true,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"src/list.txt"}, report.Written)
	assert.Equal(t, "example.com  # keep\n  # section\nads*.net\n", readFile(t, fs, "src/list.txt"))
}

func TestLinter_SortWithoutAutoFixStillRewrites(t *testing.T) {
	fs := newFs(t, map[string]string{"list.txt": "b.com\na.com\n\nd.com\nc.com\n"})

	report, err := NewLinter(fs, root, LintOptions{Files: []string{"list.txt"}, SortRules: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Written, 1)
	assert.Equal(t, "a.com\nb.com\n\nc.com\nd.com\n", readFile(t, fs, "list.txt"))
}

func TestLinter_RoundTripIsByteIdentical(t *testing.T) {
	content := "example.com  # a\n*.ads.net\n  # comment only\n\n/ads\\d+/i\n10.0.0.1\napp:foo\n"
	fs := newFs(t, map[string]string{"list.txt": content})

	report, err := NewLinter(fs, root, LintOptions{Files: []string{"list.txt"}, CheckRegex: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Written)
	assert.Equal(t, content, readFile(t, fs, "list.txt"))
}

func TestLinter_CheckCoverage(t *testing.T) {
	lines := "example.com\n*.example.com\n  # comment only\n\n"

	t.Run("disabled keeps both", func(t *testing.T) {
		fs := newFs(t, map[string]string{"list.txt": lines})
		report, err := NewLinter(fs, root, LintOptions{Files: []string{"list.txt"}, AutoFix: true}).Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, report.Issues)
		assert.Equal(t, lines, readFile(t, fs, "list.txt"))
	})

	t.Run("enabled reports the covered rule", func(t *testing.T) {
		fs := newFs(t, map[string]string{"list.txt": lines})
		report, err := NewLinter(fs, root, LintOptions{Files: []string{"list.txt"}, CheckCoverage: true}).Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, countErr(report.Issues, types.ErrCoveredRule))
		assert.Equal(t, "*.example.com", report.Issues[0].Rule.Value)
		assert.Equal(t, "example.com", report.Issues[0].Related.Value)
		assert.Equal(t, lines, readFile(t, fs, "list.txt"))
	})

	t.Run("enabled with auto-fix and remove-empty", func(t *testing.T) {
		fs := newFs(t, map[string]string{"list.txt": lines})
		_, err := NewLinter(fs, root, LintOptions{
			Files:         []string{"list.txt"},
			CheckCoverage: true,
			AutoFix:       true,
			RemoveEmpty:   true,
		}).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "example.com\n  # comment only\n", readFile(t, fs, "list.txt"))
	})
}

func TestLinter_StripEOL(t *testing.T) {
	fs := newFs(t, map[string]string{"list.txt": "a.com\nb.com\n"})
	_, err := NewLinter(fs, root, LintOptions{Files: []string{"list.txt"}, StripEOL: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a.com\nb.com", readFile(t, fs, "list.txt"))
}

func TestLinter_MissingFileIsSkipped(t *testing.T) {
	fs := newFs(t, map[string]string{"ok.txt": "a.com\n"})
	report, err := NewLinter(fs, root, LintOptions{Files: []string{"missing.txt", "ok.txt"}}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.txt"}, report.Files)
}

func TestLinter_CancelledContext(t *testing.T) {
	fs := newFs(t, map[string]string{"ok.txt": "a.com\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLinter(fs, root, LintOptions{Files: []string{"ok.txt"}}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
