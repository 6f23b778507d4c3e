package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// EnvPrefix prefixes environment overrides, e.g. LISTSMITH_MAX_LIST_SIZE.
const EnvPrefix = "LISTSMITH"

// keyDelimiter replaces viper's "." so scheme names such as "my.app" stay
// single keys.
const keyDelimiter = "::"

// LoadConfig loads configuration from configPath on fs using viper.
// Environment > config file > defaults precedence.
func LoadConfig(fs afero.Fs, configPath string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetFs(fs)

	v.SetDefault("max_list_size", types.DefaultMaxListSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeKwargs decodes auto task kwargs into out with the same hooks as
// the configuration file. Unknown keys are an error.
func DecodeKwargs(kwargs map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decodeHook(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(kwargs)
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		escapersHook(),
		stringToListHook(),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

var (
	escaperSliceType = reflect.TypeOf([]types.Escaper(nil))
	stringSliceType  = reflect.TypeOf([]string(nil))
)

// escapersHook splits "regex, url" into an escaper list. Names are
// checked when the build engine compiles, so errors keep their sentinel.
func escapersHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != escaperSliceType {
			return data, nil
		}
		return rules.SplitEscapers(reflect.ValueOf(data).String()), nil
	}
}

// stringToListHook lets a single path stand for a one-element list.
func stringToListHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != stringSliceType {
			return data, nil
		}
		if s := reflect.ValueOf(data).String(); s != "" {
			return []string{s}, nil
		}
		return []string{}, nil
	}
}
