package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/pricer"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Environment variables overriding the configuration file. They are also
// passed to extensions.
const (
	EnvLedgerFile = "PRICER_LEDGER_FILE"
	EnvQuotesFile = "PRICER_QUOTES_FILE"
	EnvLogLevel   = "PRICER_LOG_LEVEL"
)

const defaultLedgerName = "pricer.json"

// Config is the content of the TOML configuration file.
type Config struct {
	LedgerFile string       `toml:"ledger_file"`
	QuotesFile string       `toml:"quotes_file"`
	LogLevel   string       `toml:"log_level"` // debug, info, warn, error
	Quotes     QuotesConfig `toml:"quotes"`
}

// QuotesConfig describes the layout of the quotes file.
type QuotesConfig struct {
	// Format is a known layout: "finnhub" (default) or "yahoo".
	Format string `toml:"format"`
	// Paths override the layout, field by field.
	Paths pricer.QuotePaths `toml:"paths"`
}

// Settings are the values a run uses, once flags, environment, configuration
// file and defaults are merged, in that order of precedence.
type Settings struct {
	LedgerFile string
	QuotesFile string
	LogLevel   string
	QuotePaths pricer.QuotePaths
}

// LoadConfig reads the TOML configuration file at path. A missing file is an
// empty configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}

// LoadSettings merges the flag values with the environment, an optional
// ".env" file in the working directory, and the configuration file.
func LoadSettings(ledgerFile, configFile string, verbose bool) (*Settings, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	if configFile == "" {
		configFile = defaultConfigFile()
	}
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, err
	}

	paths, err := cfg.Quotes.paths()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		LedgerFile: first(ledgerFile, os.Getenv(EnvLedgerFile), cfg.LedgerFile, defaultLedgerFile()),
		QuotesFile: first(os.Getenv(EnvQuotesFile), cfg.QuotesFile),
		LogLevel:   first(os.Getenv(EnvLogLevel), cfg.LogLevel, "info"),
		QuotePaths: paths,
	}
	if verbose {
		s.LogLevel = "debug"
	}
	s.LedgerFile = expandHome(s.LedgerFile)
	s.QuotesFile = expandHome(s.QuotesFile)
	return s, nil
}

// paths returns the quote paths of the configured format, overridden by the
// non empty configured paths.
func (c QuotesConfig) paths() (pricer.QuotePaths, error) {
	var p pricer.QuotePaths
	switch strings.ToLower(c.Format) {
	case "", "finnhub":
		p = pricer.FinnhubPaths
	case "yahoo":
		p = pricer.YahooPaths
	default:
		return p, fmt.Errorf("unknown quotes format %q, want finnhub or yahoo", c.Format)
	}
	o := c.Paths
	for dst, src := range map[*string]string{
		&p.Price: o.Price, &p.Change: o.Change, &p.Percent: o.Percent, &p.Session: o.Session,
		&p.PrePrice: o.PrePrice, &p.PreChange: o.PreChange, &p.PrePercent: o.PrePercent,
		&p.PostPrice: o.PostPrice, &p.PostChange: o.PostChange, &p.PostPercent: o.PostPercent,
	} {
		if src != "" {
			*dst = src
		}
	}
	return p, nil
}

// first returns the first non empty value.
func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultLedgerFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultLedgerName
	}
	return filepath.Join(home, defaultLedgerName)
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pricer", "config.toml")
}

// expandHome replaces a leading "~/" by the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
