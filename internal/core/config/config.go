// Package config provides configuration management for listsmith.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/solatis/listsmith/internal/convert"
	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// Config is the whole configuration file.
type Config struct {
	Build       []BuildTask           `mapstructure:"build" yaml:"build,omitempty"`
	Aggregate   []AggregateTask       `mapstructure:"aggregate" yaml:"aggregate,omitempty"`
	AutoTasks   map[string][]AutoTask `mapstructure:"auto_tasks" yaml:"auto_tasks,omitempty"`
	MaxListSize datasize.ByteSize     `mapstructure:"max_list_size" yaml:"max_list_size"`
}

// BuildTask converts sources into one published list.
type BuildTask struct {
	Source  []string       `mapstructure:"source" yaml:"source"`
	Publish string         `mapstructure:"publish" yaml:"publish"`
	Type    string         `mapstructure:"type" yaml:"type,omitempty"`
	Data    types.TaskData `mapstructure:"data" yaml:"data,omitempty"`
}

// AggregateTask fetches one remote list into a local source file.
type AggregateTask struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Source   string `mapstructure:"source" yaml:"source"`
	Dest     string `mapstructure:"dest" yaml:"dest"`
	Type     string `mapstructure:"type" yaml:"type"`
	Homepage string `mapstructure:"homepage" yaml:"homepage,omitempty"`
	StripEOL bool   `mapstructure:"strip_eol" yaml:"strip_eol,omitempty"`
}

// AutoTask is one step of a named auto task. Kwargs are decoded into the
// options of the action's driver.
type AutoTask struct {
	Action string         `mapstructure:"action" yaml:"action"`
	Kwargs map[string]any `mapstructure:"kwargs" yaml:"kwargs,omitempty"`
}

// Auto task actions.
const (
	ActionLint      = "lint"
	ActionUniquify  = "uniquify"
	ActionBuild     = "build"
	ActionAggregate = "aggregate"
)

// DefaultConfigName is the config file looked up below the root and in
// the XDG config directories.
const DefaultConfigName = "config.yaml"

// Locate returns the config file to load: explicit if set, else
// <root>/src/config.yaml, else listsmith/config.yaml in the XDG config
// search path.
func Locate(fs afero.Fs, root, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	local := filepath.Join(root, "src", DefaultConfigName)
	if ok, _ := afero.Exists(fs, local); ok {
		return local, nil
	}
	if p, err := xdg.SearchConfigFile(filepath.Join("listsmith", DefaultConfigName)); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: tried %s and $XDG_CONFIG_HOME/listsmith/%s", types.ErrConfigNotFound, local, DefaultConfigName)
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// validateConfig checks every task so that configuration mistakes fail the
// command before any file is touched.
func validateConfig(cfg *Config) error {
	var errs []error
	for i, task := range cfg.Build {
		if err := validateBuildTask(task); err != nil {
			errs = append(errs, fmt.Errorf("build[%d] (%s): %w", i, task.Publish, err))
		}
	}
	for i, task := range cfg.Aggregate {
		if task.Name == "" || task.Source == "" || task.Dest == "" {
			errs = append(errs, fmt.Errorf("aggregate[%d]: name, source and dest are required", i))
		}
	}
	for name, steps := range cfg.AutoTasks {
		for i, step := range steps {
			if step.Action == "" {
				errs = append(errs, fmt.Errorf("auto_tasks.%s[%d]: action is required", name, i))
			}
		}
	}
	if cfg.MaxListSize == 0 {
		errs = append(errs, errors.New("max_list_size must be positive"))
	}
	return errors.Join(errs...)
}

func validateBuildTask(task BuildTask) error {
	if len(task.Source) == 0 {
		return errors.New("source is required")
	}
	if task.Publish == "" {
		return errors.New("publish is required")
	}
	if _, err := convert.Lookup(task.Type); err != nil {
		return err
	}
	if _, err := rules.NewEngine(task.Data); err != nil {
		return err
	}
	if _, err := convert.RenderHeader(task.Data, time.Now()); err != nil {
		return err
	}
	return nil
}
