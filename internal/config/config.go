// Package config resolves the editor settings.
//
// Settings are layered, later layers winning:
//  1. Built-in defaults (the game's own conventions)
//  2. A config file: YAML (.yaml/.yml) or TOML (.toml)
//  3. Environment variables with the TISE_ prefix
//  4. Command-line flags (applied by the CLI after Load)
//
// The core packages never read the environment; they receive the resolved
// values through DocumentOptions.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/tise/internal/document"
	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/property"
)

// AppName names the config directory under the user config dir.
const AppName = "tise"

// Config holds every user-tunable setting.
type Config struct {
	// Namespace is the prefix stripped from group names for display and
	// tried as a fallback when a group lookup misses.
	Namespace string `yaml:"namespace" toml:"namespace" env:"TISE_NAMESPACE"`

	// DisplayNameKeys are the entity properties tried, in order, for a
	// human-readable name.
	DisplayNameKeys []string `yaml:"displayNameKeys" toml:"displayNameKeys" env:"TISE_DISPLAY_NAME_KEYS" envSeparator:","`

	// DistributionProperty names the property edited as a distribution.
	DistributionProperty string `yaml:"distributionProperty" toml:"distributionProperty" env:"TISE_DISTRIBUTION_PROPERTY"`

	// RemainderKey is the distribution field derived from the others.
	RemainderKey string `yaml:"remainderKey" toml:"remainderKey" env:"TISE_REMAINDER_KEY"`

	// UnknownSentinel is shown for unresolvable references.
	UnknownSentinel string `yaml:"unknownSentinel" toml:"unknownSentinel" env:"TISE_UNKNOWN_SENTINEL"`

	// SaveDir is where `tise saves` looks. Empty means the game's default.
	SaveDir string `yaml:"saveDir" toml:"saveDir" env:"TISE_SAVE_DIR"`

	// LineEnding forces "lf" or "crlf" on write. Empty keeps whatever the
	// loaded file used.
	LineEnding string `yaml:"lineEnding" toml:"lineEnding" env:"TISE_LINE_ENDING"`
}

// Default returns the built-in settings.
func Default() Config {
	rules := property.DefaultRules()
	return Config{
		Namespace:            document.DefaultNamespace,
		DisplayNameKeys:      append([]string(nil), document.DefaultDisplayNameKeys...),
		DistributionProperty: rules.DistributionProperty,
		RemainderKey:         rules.RemainderKey,
		UnknownSentinel:      document.UnknownSentinel,
	}
}

// Load resolves the configuration.
//
// If path is non-empty the file must exist. Otherwise the default location
// (see DefaultPath) is used when a file is present there, and skipped
// silently when not.
func Load(path string) (Config, error) {
	cfg := Default()

	// Step 1: Config file.
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil || explicit {
			if err := cfg.LoadFile(path); err != nil {
				return Config{}, err
			}
		}
	}

	// Step 2: Environment overrides. Only variables that are set replace
	// the values from the previous layers.
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	// Step 3: Validate the merged result.
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile merges the settings of a YAML or TOML file into c. Keys absent
// from the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("config file not found: %s", path), err)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fromFile Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &fromFile); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type %q (use .yaml, .yml or .toml)", ext)
	}

	c.merge(fromFile)
	return nil
}

// merge copies every non-empty setting of o into c.
func (c *Config) merge(o Config) {
	if o.Namespace != "" {
		c.Namespace = o.Namespace
	}
	if len(o.DisplayNameKeys) > 0 {
		c.DisplayNameKeys = o.DisplayNameKeys
	}
	if o.DistributionProperty != "" {
		c.DistributionProperty = o.DistributionProperty
	}
	if o.RemainderKey != "" {
		c.RemainderKey = o.RemainderKey
	}
	if o.UnknownSentinel != "" {
		c.UnknownSentinel = o.UnknownSentinel
	}
	if o.SaveDir != "" {
		c.SaveDir = o.SaveDir
	}
	if o.LineEnding != "" {
		c.LineEnding = o.LineEnding
	}
}

// Validate rejects settings the editor cannot work with.
func (c Config) Validate() error {
	if len(c.DisplayNameKeys) == 0 {
		return errors.New("invalid config: displayNameKeys must not be empty")
	}
	if c.DistributionProperty != "" && c.RemainderKey == "" {
		return errors.New("invalid config: remainderKey is required when distributionProperty is set")
	}
	if c.LineEnding != "" {
		if _, err := model.ParseLineEnding(c.LineEnding); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// LineEndingOverride returns the forced line ending, if one is configured.
func (c Config) LineEndingOverride() (model.LineEnding, bool) {
	if c.LineEnding == "" {
		return "", false
	}
	le, err := model.ParseLineEnding(c.LineEnding)
	if err != nil {
		return "", false
	}
	return le, true
}

// Rules returns the property classification rules.
func (c Config) Rules() property.Rules {
	return property.Rules{
		DistributionProperty: c.DistributionProperty,
		RemainderKey:         c.RemainderKey,
	}
}

// DocumentOptions translates the settings into document options.
func (c Config) DocumentOptions(logger *log.Logger) []document.Option {
	return []document.Option{
		document.WithLogger(logger),
		document.WithNamespace(c.Namespace),
		document.WithDisplayNameKeys(c.DisplayNameKeys...),
		document.WithUnknownSentinel(c.UnknownSentinel),
		document.WithRules(c.Rules()),
	}
}

// DefaultPath returns the first existing config file in the user config
// directory ($XDG_CONFIG_HOME/tise on Linux), preferring YAML. When neither
// exists it returns the YAML path. It returns "" if the user config
// directory is unknown.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(base, AppName)
	candidates := []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
		filepath.Join(dir, "config.toml"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return candidates[0]
}
