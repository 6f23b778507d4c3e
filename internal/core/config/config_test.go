package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"

	"github.com/solatis/listsmith/internal/types"
)

const fullConfig = `
build:
  - source: src/blocklist
    publish: dist/hosts.txt
    type: hosts
    data:
      title: Example list
      headers: |
        Title: {title}
        Last modified: {now}
  - source:
      - src/blocklist
      - src/extra.txt
    publish: dist/ubo.txt
    type: ubo
    data:
      schemes:
        app:
          escape: "regex, url"
          grouping: "|"
          value: "/^(?:{value})$/"
          max: 2000
          mode: raw
        my.app:
          escape: [regex]
          value: "{value}"
      processors:
        - type: domain
          pattern: '^www\.'
          replacement: ''
        - find: tracker
          replacement: blocked.example
aggregate:
  - name: foo
    source: https://example.com/list.txt
    dest: src/aggregated/foo.txt
    type: domains_txt
    homepage: https://example.com
auto_tasks:
  default:
    - action: lint
      kwargs:
        files: [src/blocklist]
        auto_fix: true
    - action: build
max_list_size: 8MB
`

func writeConfig(t *testing.T, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/root/src/config.yaml", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestLoadConfig_Full(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, fullConfig), "/root/src/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	if len(cfg.Build) != 2 {
		t.Fatalf("len(Build) = %d, want 2", len(cfg.Build))
	}
	if got := cfg.Build[0].Source; len(got) != 1 || got[0] != "src/blocklist" {
		t.Errorf("Build[0].Source = %v, want [src/blocklist]", got)
	}
	if got := cfg.Build[1].Source; len(got) != 2 {
		t.Errorf("Build[1].Source = %v, want two entries", got)
	}
	if !strings.Contains(cfg.Build[0].Data.Headers, "Last modified: {now}") {
		t.Errorf("Headers = %q", cfg.Build[0].Data.Headers)
	}

	app, ok := cfg.Build[1].Data.Schemes["app"]
	if !ok {
		t.Fatalf("scheme app missing: %v", cfg.Build[1].Data.Schemes)
	}
	if len(app.Escape) != 2 || app.Escape[0] != types.EscapeRegex || app.Escape[1] != types.EscapeURL {
		t.Errorf("app.Escape = %v, want [regex url]", app.Escape)
	}
	if app.Max == nil || *app.Max != 2000 {
		t.Errorf("app.Max = %v, want 2000", app.Max)
	}
	if app.Mode != types.ModeRaw || app.Grouping != "|" {
		t.Errorf("app = %+v", app)
	}
	if _, ok := cfg.Build[1].Data.Schemes["my.app"]; !ok {
		t.Errorf("dotted scheme name was split: %v", cfg.Build[1].Data.Schemes)
	}

	procs := cfg.Build[1].Data.Processors
	if len(procs) != 2 {
		t.Fatalf("len(Processors) = %d, want 2", len(procs))
	}
	if procs[0].Type == nil || *procs[0].Type != types.KindDomain {
		t.Errorf("Processors[0].Type = %v, want domain", procs[0].Type)
	}
	if procs[0].Pattern == nil || *procs[0].Pattern != `^www\.` {
		t.Errorf("Processors[0].Pattern = %v", procs[0].Pattern)
	}
	if procs[1].Find == nil || *procs[1].Find != "tracker" || procs[1].Type != nil {
		t.Errorf("Processors[1] = %+v", procs[1])
	}

	if len(cfg.Aggregate) != 1 || cfg.Aggregate[0].Homepage != "https://example.com" {
		t.Errorf("Aggregate = %+v", cfg.Aggregate)
	}
	if steps := cfg.AutoTasks["default"]; len(steps) != 2 || steps[0].Action != ActionLint {
		t.Errorf("AutoTasks = %+v", cfg.AutoTasks)
	}
	if cfg.MaxListSize != 8*datasize.MB {
		t.Errorf("MaxListSize = %v, want 8MB", cfg.MaxListSize)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "build: []\n"), "/root/src/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if cfg.MaxListSize != 64*datasize.MB {
		t.Errorf("MaxListSize = %v, want 64MB", cfg.MaxListSize)
	}
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "unknown format",
			content: "build:\n  - {source: a, publish: b, type: adblock}\n",
			wantErr: types.ErrUnknownFormat,
		},
		{
			name:    "unknown escaper",
			content: "build:\n  - source: a\n    publish: b\n    data:\n      schemes:\n        app: {escape: base64, value: '{value}'}\n",
			wantErr: types.ErrUnknownEscaper,
		},
		{
			name:    "bad scheme template",
			content: "build:\n  - source: a\n    publish: b\n    data:\n      schemes:\n        app: {value: '{val}'}\n",
			wantErr: types.ErrTemplate,
		},
		{
			name:    "bad header template",
			content: "build:\n  - source: a\n    publish: b\n    data:\n      headers: 'Built {when}'\n",
			wantErr: types.ErrTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content), "/root/src/config.yaml")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_UnknownKind(t *testing.T) {
	content := "build:\n  - source: a\n    publish: b\n    data:\n      processors:\n        - {type: url, replacement: x}\n"
	_, err := LoadConfig(writeConfig(t, content), "/root/src/config.yaml")
	if err == nil || !strings.Contains(err.Error(), types.ErrUnknownKind.Error()) {
		t.Errorf("LoadConfig() error = %v, want %v", err, types.ErrUnknownKind)
	}
}

func TestLoadConfig_MissingFields(t *testing.T) {
	for _, content := range []string{
		"build:\n  - {publish: b}\n",
		"build:\n  - {source: a}\n",
		"aggregate:\n  - {name: x, source: 'https://x'}\n",
		"auto_tasks:\n  default:\n    - {kwargs: {}}\n",
		"max_list_size: 0\n",
	} {
		if _, err := LoadConfig(writeConfig(t, content), "/root/src/config.yaml"); err == nil {
			t.Errorf("LoadConfig(%q) error = nil, want error", content)
		}
	}
}

func TestLoadConfig_UnreadableFile(t *testing.T) {
	if _, err := LoadConfig(afero.NewMemMapFs(), "/nowhere/config.yaml"); err == nil {
		t.Error("LoadConfig() error = nil, want error")
	}
}

func TestLocate(t *testing.T) {
	fs := writeConfig(t, "build: []\n")

	got, err := Locate(fs, "/root", "")
	if err != nil || got != "/root/src/config.yaml" {
		t.Errorf("Locate() = (%q, %v), want /root/src/config.yaml", got, err)
	}

	got, err = Locate(fs, "/root", "/etc/custom.yaml")
	if err != nil || got != "/etc/custom.yaml" {
		t.Errorf("Locate() with explicit = (%q, %v), want /etc/custom.yaml", got, err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	xdg.Reload()
	if _, err := Locate(afero.NewMemMapFs(), "/empty", ""); !errors.Is(err, types.ErrConfigNotFound) {
		t.Errorf("Locate() error = %v, want ErrConfigNotFound", err)
	}
}

func TestDecodeKwargs(t *testing.T) {
	var opts struct {
		Files   []string `mapstructure:"files"`
		AutoFix bool     `mapstructure:"auto_fix"`
	}
	err := DecodeKwargs(map[string]any{"files": "src/a.txt", "auto_fix": "true"}, &opts)
	if err != nil {
		t.Fatalf("DecodeKwargs() error = %v, want nil", err)
	}
	if len(opts.Files) != 1 || opts.Files[0] != "src/a.txt" || !opts.AutoFix {
		t.Errorf("opts = %+v", opts)
	}

	if err := DecodeKwargs(map[string]any{"fils": []string{"x"}}, &opts); err == nil {
		t.Error("DecodeKwargs() with unknown key: error = nil, want error")
	}
}

func TestConfig_YAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, fullConfig), "/root/src/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	for _, want := range []string{"max_list_size: 8MB", "type: domain", "publish: dist/hosts.txt"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("YAML() missing %q in:\n%s", want, out)
		}
	}
}
