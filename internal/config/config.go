// Package config loads server settings from TOML, layered over embedded defaults.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

//go:embed default.toml
var defaultConfigFS embed.FS

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "webdriver-mcp.toml"

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Shutdown   ShutdownConfig   `toml:"shutdown"`
	Browser    BrowserConfig    `toml:"browser"`
	Navigation NavigationConfig `toml:"navigation"`
	Logging    LoggingConfig    `toml:"logging"`
	Health     HealthConfig     `toml:"health"`
}

type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type ShutdownConfig struct {
	SessionTimeout Duration `toml:"session_timeout"`
	Timeout        Duration `toml:"timeout"`
}

type BrowserConfig struct {
	DefaultHeadless bool     `toml:"default_headless"`
	DefaultTimeout  Duration `toml:"default_timeout"`
	ScreenshotDir   string   `toml:"screenshot_dir"`
}

type NavigationConfig struct {
	Allow []string `toml:"allow"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type HealthConfig struct {
	Addr string `toml:"addr"`
}

// Duration decodes TOML strings such as "5s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}
	return &cfg, nil
}

// Load returns the defaults overlaid with the file at path. An empty path
// means DefaultFileName in the working directory. A missing file yields the
// defaults; a file that fails to parse or has unknown keys is an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultFileName
	}
	if !fileExists(path) {
		return cfg, cfg.Validate()
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Server.Name) == "" {
		errs = append(errs, "server.name cannot be empty")
	}
	if strings.TrimSpace(c.Server.Version) == "" {
		errs = append(errs, "server.version cannot be empty")
	}

	if c.Shutdown.SessionTimeout.Duration <= 0 {
		errs = append(errs, "shutdown.session_timeout must be positive")
	}
	if c.Shutdown.Timeout.Duration <= 0 {
		errs = append(errs, "shutdown.timeout must be positive")
	}
	if c.Shutdown.SessionTimeout.Duration > c.Shutdown.Timeout.Duration {
		errs = append(errs, "shutdown.session_timeout cannot exceed shutdown.timeout")
	}

	if c.Browser.DefaultTimeout.Duration <= 0 {
		errs = append(errs, "browser.default_timeout must be positive")
	}

	for _, pattern := range c.Navigation.Allow {
		if _, err := glob.Compile(pattern); err != nil {
			errs = append(errs, fmt.Sprintf("navigation.allow pattern %q: %v", pattern, err))
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be json or console", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
