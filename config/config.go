// Package config loads the configuration surface of the vnvheap-demo
// harness. None of this is read by the vnvheap library itself: a Heap is
// always constructed from a vnvheap.Config literal in code. This package
// exists only so the demo CLI has a config file the way a real deployed
// command would.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/marmos91/vnvheap/internal/bytesize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the vnvheap-demo configuration file shape.
type Config struct {
	// Logging controls the ambient logger (internal/vnvlog).
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// MaxDirtyBytes becomes vnvheap.Config.MaxDirtyBytes. Accepts
	// human-readable sizes ("2MiB", "512KB") via bytesize.ByteSize.
	MaxDirtyBytes bytesize.ByteSize `mapstructure:"max_dirty_bytes" yaml:"max_dirty_bytes"`

	// RAMBufferSize becomes the length of the []byte passed as
	// vnvheap.Config.RAMBuffer.
	RAMBufferSize bytesize.ByteSize `mapstructure:"ram_buffer_size" yaml:"ram_buffer_size"`

	// PartialDirtinessBlockSize documents the granularity at which
	// AllocatePartial tracks dirty regions (internal/rom.DirtyTrackBlockSize).
	// It is informational only: the tracking granularity is a compile-time
	// constant in internal/rom, not a runtime knob, so a value here that
	// disagrees with the library is flagged by Validate rather than silently
	// taking effect.
	PartialDirtinessBlockSize bytesize.ByteSize `mapstructure:"partial_dirtiness_block_size" yaml:"partial_dirtiness_block_size"`

	// Storage selects and configures the NV backend the demo drives its
	// scenarios against.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
}

// LoggingConfig mirrors vnvlog.Config's three fields so the file format
// matches the shape vnvlog.Init already accepts.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// StorageConfig selects one of storage's three Driver implementations.
type StorageConfig struct {
	// Backend is one of "memory", "file", "mmap".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the backing file path for the file and mmap backends.
	// Unused for memory.
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// Size is the NV arena size passed to the chosen backend's
	// constructor.
	Size bytesize.ByteSize `mapstructure:"size" yaml:"size"`

	// Fsync enables synchronous durability on every write for the file
	// backend. Unused for memory and mmap.
	Fsync bool `mapstructure:"fsync" yaml:"fsync,omitempty"`
}

// Load reads configPath (or the default location) into a Config,
// applying defaults to any unset field. A missing config file is not an
// error: Load returns GetDefaultConfig() in that case, matching the
// teacher's own Load behavior.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(byteSizeDecodeHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories as
// needed.
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("VNVHEAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

// byteSizeDecodeHook lets config files use "2MiB"-style sizes anywhere a
// bytesize.ByteSize field appears.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vnvheap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "vnvheap")
}

// GetDefaultConfigPath returns the default config file path, exposed for
// the demo's "init" command.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
