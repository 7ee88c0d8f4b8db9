package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/jihll/internal/logs"
)

// Config is the contents of jihll.yaml. Every field has a default, so an
// absent or empty file is valid.
type Config struct {
	Limits   Limits  `yaml:"limits"`
	Log      Log     `yaml:"log"`
	Natives  Natives `yaml:"natives"`
	REPL     REPL    `yaml:"repl"`
	Snapshot string  `yaml:"snapshot"`
}

// Limits bounds each task's operand stack and call depth.
type Limits struct {
	MaxStack  int `yaml:"max_stack"`
	MaxFrames int `yaml:"max_frames"`
}

type Log struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`

	// File, when set, also receives JSON logs
	File string `yaml:"file,omitempty"`
}

type Natives struct {
	// Disable lists built-ins that are not installed
	Disable []string `yaml:"disable,omitempty"`
}

type REPL struct {
	Prompt  string `yaml:"prompt"`
	History string `yaml:"history"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Limits:   Limits{MaxStack: DefaultMaxStack, MaxFrames: DefaultMaxFrames},
		Log:      Log{Level: DefaultLogLevel},
		REPL:     REPL{Prompt: DefaultPrompt, History: DefaultHistoryFile},
		Snapshot: DefaultSnapshotFile,
	}
}

// Load reads path, falling back to defaults when the file does not exist.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadConfig reads and validates the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig decodes data over the defaults. Unknown keys are rejected.
func ParseConfig(data []byte, path string) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(path string) error {
	if c.Limits.MaxStack <= 0 {
		return fmt.Errorf("%s: limits.max_stack must be positive, got %d", path, c.Limits.MaxStack)
	}
	if c.Limits.MaxFrames <= 0 {
		return fmt.Errorf("%s: limits.max_frames must be positive, got %d", path, c.Limits.MaxFrames)
	}
	if _, err := logs.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%s: log.level: %w", path, err)
	}
	for i, name := range c.Natives.Disable {
		if !slices.Contains(NativeNames, name) {
			return fmt.Errorf("%s: natives.disable[%d]: unknown native %q", path, i, name)
		}
	}
	return nil
}
