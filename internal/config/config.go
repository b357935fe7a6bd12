// Package config loads focusdeck's YAML configuration.
//
// Precedence, highest first: command-line flags, FOCUSDECK_* environment
// variables, the config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

// Environment variables.
const (
	EnvConfigDir = "FOCUSDECK_CONFIG_DIR"
	EnvDir       = "FOCUSDECK_DIR"
	EnvAPI       = "FOCUSDECK_API"
	EnvToken     = "FOCUSDECK_TOKEN"
	EnvStore     = "FOCUSDECK_STORE"
	EnvFormat    = "FOCUSDECK_FORMAT"
)

type APIConfig struct {
	BaseURL string        `yaml:"baseURL,omitempty"`
	Token   string        `yaml:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type StorageConfig struct {
	Backend string `yaml:"backend,omitempty"` // file, sqlite, memory
	Dir     string `yaml:"dir,omitempty"`     // defaults to the config dir
}

type TourConfig struct {
	Onboarding bool   `yaml:"onboarding"`
	CrossPage  bool   `yaml:"crossPage"`
	Source     string `yaml:"source,omitempty"` // compiled, anchors
}

type TUIConfig struct {
	Theme        string `yaml:"theme,omitempty"`        // light, dark; empty follows the terminal
	ColorProfile string `yaml:"colorProfile,omitempty"` // auto, truecolor, ansi256, ansi, ascii
}

type Config struct {
	API     APIConfig     `yaml:"api,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Tour    TourConfig    `yaml:"tour"`
	TUI     TUIConfig     `yaml:"tui,omitempty"`
	Format  string        `yaml:"format,omitempty"` // json, edn
}

// Tour sources.
const (
	SourceCompiled = "compiled"
	SourceAnchors  = "anchors"
)

func Default() Config {
	return Config{
		API:     APIConfig{Timeout: 10 * time.Second},
		Storage: StorageConfig{Backend: "file"},
		Tour:    TourConfig{Onboarding: true, CrossPage: true, Source: SourceCompiled},
		Format:  "json",
	}
}

// Dir is the configuration directory, ~/.focusdeck unless overridden.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".focusdeck"), nil
}

// Path is the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads path, or the default path when empty. A missing file yields the
// defaults; fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to path atomically, keeping the previous file as path.bak.
func Save(path string, cfg Config) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, fileName+".bak.*.tmp", path+".bak", prev, 0o644)
	}
	// The file may carry an API token.
	return atomicWriteFile(dir, fileName+".*.tmp", path, b, 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

// ApplyEnv overlays the FOCUSDECK_* variables that are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Storage.Dir, EnvDir)
	set(&c.API.BaseURL, EnvAPI)
	set(&c.API.Token, EnvToken)
	set(&c.Storage.Backend, EnvStore)
	set(&c.Format, EnvFormat)
}

// Validate rejects values no component understands.
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case "", "file", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid storage.backend %q (expected file|sqlite|memory)", c.Storage.Backend)
	}
	switch c.Tour.Source {
	case "", SourceCompiled, SourceAnchors:
	default:
		return fmt.Errorf("invalid tour.source %q (expected compiled|anchors)", c.Tour.Source)
	}
	switch strings.ToLower(c.TUI.Theme) {
	case "", "light", "dark":
	default:
		return fmt.Errorf("invalid tui.theme %q (expected light|dark)", c.TUI.Theme)
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "edn":
	default:
		return fmt.Errorf("invalid format %q (expected json|edn)", c.Format)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid api.timeout %s", c.API.Timeout)
	}
	return nil
}

// StorageDir is where store files live: storage.dir, else the config dir.
func (c Config) StorageDir() (string, error) {
	if d := strings.TrimSpace(c.Storage.Dir); d != "" {
		return expandHome(d)
	}
	return Dir()
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
