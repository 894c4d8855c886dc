// Package config resolves the settings of one nativedeps run from defaults,
// an optional config file, NATIVEDEPS_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/mod/semver"

	"github.com/lsmon/nativedeps/internal/deps"
	"github.com/lsmon/nativedeps/internal/env"
	"github.com/lsmon/nativedeps/internal/platform"
)

// EnvPrefix prefixes environment overrides, e.g. NATIVEDEPS_JOBS.
const EnvPrefix = "NATIVEDEPS"

// Tools overrides the executables of the active platform profile.
type Tools struct {
	Git   string `mapstructure:"git"`
	CMake string `mapstructure:"cmake"`
	CPack string `mapstructure:"cpack"`
}

// Config holds the resolved settings.
type Config struct {
	Manifest   string `mapstructure:"manifest"` // empty selects the built-in catalog
	BuildType  string `mapstructure:"build_type"`
	Generator  string `mapstructure:"generator"` // cmake -G; empty keeps cmake's default
	Jobs       int    `mapstructure:"jobs"`
	StrictSync bool   `mapstructure:"strict_sync"`
	Verbose    bool   `mapstructure:"verbose"`
	OSPostfix  string `mapstructure:"os_postfix"`
	Tools      Tools  `mapstructure:"tools"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		BuildType: "Debug",
		Jobs:      12,
	}
}

// flagKeys maps config keys to the CLI flags bound to them.
var flagKeys = map[string]string{
	"manifest":    "manifest",
	"build_type":  "build-type",
	"generator":   "generator",
	"jobs":        "jobs",
	"strict_sync": "strict-sync",
	"verbose":     "verbose",
	"os_postfix":  "os-postfix",
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// ConfigFile is an explicit config file; it must exist.
	ConfigFile string
	// ConfigDir replaces the per-user config directory.
	ConfigDir string
	// Flags are bound by name; only flags the user changed take precedence.
	Flags *pflag.FlagSet
}

// Load resolves the configuration and returns it with the path of the
// config file read, or "" when none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("manifest", defaults.Manifest)
	v.SetDefault("build_type", defaults.BuildType)
	v.SetDefault("generator", defaults.Generator)
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("strict_sync", defaults.StrictSync)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("os_postfix", defaults.OSPostfix)
	v.SetDefault("tools.git", defaults.Tools.Git)
	v.SetDefault("tools.cmake", defaults.Tools.CMake)
	v.SetDefault("tools.cpack", defaults.Tools.CPack)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key, name := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", err
				}
			}
		}
	}

	path, err := configFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func configFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return opts.ConfigFile, nil
	}
	path := filepath.Join(opts.ConfigDir, "config.yaml")
	if opts.ConfigDir == "" {
		var err error
		if path, err = env.ConfigFile(); err != nil {
			// No home directory; run on defaults.
			return "", nil
		}
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	if c.BuildType == "" {
		return errors.New("build_type must not be empty")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	return nil
}

// Profile returns the platform profile of the running process with the
// configured tool and postfix overrides applied.
func (c *Config) Profile() (platform.Profile, error) {
	p, err := platform.Current()
	if err != nil {
		return platform.Profile{}, err
	}
	return c.Overrides().Apply(p), nil
}

// Overrides returns the profile overrides carried by c.
func (c *Config) Overrides() platform.Overrides {
	return platform.Overrides{
		BuildTool:   c.Tools.CMake,
		PackageTool: c.Tools.CPack,
		OSPostfix:   c.OSPostfix,
	}
}

// LoadManifest returns the configured manifest, or the built-in catalog
// when none is set.
func (c *Config) LoadManifest() (*deps.Manifest, error) {
	if c.Manifest == "" {
		return deps.Builtin(), nil
	}
	return deps.Load(c.Manifest)
}

// ValidateVersion rejects versions that cannot appear in an archive file
// name. Any other string is accepted; see VersionWarning.
func ValidateVersion(version string) error {
	if version == "" {
		return errors.New("version must not be empty")
	}
	if strings.ContainsAny(version, `/\`) || strings.Contains(version, "..") {
		return fmt.Errorf("version %q must not contain path separators or \"..\"", version)
	}
	if strings.IndexFunc(version, unicode.IsSpace) >= 0 {
		return fmt.Errorf("version %q must not contain whitespace", version)
	}
	return nil
}

// VersionWarning describes why version may not match the archive cpack
// produces, or returns "" for a plain semantic version such as 1.2.0.
// Four-component and calendar versions are legal but draw a warning.
func VersionWarning(version string) string {
	if strings.HasPrefix(version, "v") && semver.IsValid(version) {
		return fmt.Sprintf("version %q has a leading v; archive names usually omit it", version)
	}
	if !semver.IsValid("v" + version) {
		return fmt.Sprintf("version %q is not a semantic version; check it matches the project's CPACK_PACKAGE_VERSION", version)
	}
	return ""
}
