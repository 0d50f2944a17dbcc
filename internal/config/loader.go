package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for in the
// current and home directories.
const DefaultConfigFile = ".doccrawl.yaml"

// XDGConfigFile is the configuration file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// FileCrawl holds the crawl options that may be set in the configuration
// file. Pointers distinguish "not set" from zero values.
type FileCrawl struct {
	Workers         *int           `yaml:"workers,omitempty"`
	Output          string         `yaml:"output,omitempty"`
	MaxDepth        *int           `yaml:"maxDepth,omitempty"`
	Exclude         string         `yaml:"exclude,omitempty"`
	UserAgent       string         `yaml:"userAgent,omitempty"`
	Timeout         *time.Duration `yaml:"timeout,omitempty"`
	Resume          *bool          `yaml:"resume,omitempty"`
	Scope           string         `yaml:"scope,omitempty"`
	Engine          string         `yaml:"engine,omitempty"`
	Headful         *bool          `yaml:"headful,omitempty"`
	UserProfileDir  string         `yaml:"userProfileDir,omitempty"`
	BrowserType     string         `yaml:"browserType,omitempty"`
	BrowserDir      string         `yaml:"browserDir,omitempty"`
	RenderWait      *time.Duration `yaml:"renderWait,omitempty"`
	Retries         *int           `yaml:"retries,omitempty"`
	RetryDelay      *time.Duration `yaml:"retryDelay,omitempty"`
	CheckpointEvery *int           `yaml:"checkpointEvery,omitempty"`
	Delay           *time.Duration `yaml:"delay,omitempty"`
	Rate            *float64       `yaml:"rate,omitempty"`
	RespectRobots   *bool          `yaml:"respectRobots,omitempty"`
	Proxy           string         `yaml:"proxy,omitempty"`
	NoDB            *bool          `yaml:"noDB,omitempty"`
	DBDir           string         `yaml:"dbDir,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Initialize Sites map if nil
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	return &cf, nil
}

// Apply overlays the options set in the file onto cfg and records the
// file as cfg.SiteConfigs.
func (cf *File) Apply(cfg *Config) {
	c := cf.Crawl
	setInt(&cfg.Workers, c.Workers)
	setString(&cfg.OutputDir, c.Output)
	setInt(&cfg.MaxDepth, c.MaxDepth)
	setString(&cfg.Exclude, c.Exclude)
	setString(&cfg.UserAgent, c.UserAgent)
	setDuration(&cfg.Timeout, c.Timeout)
	setBool(&cfg.Resume, c.Resume)
	setString(&cfg.Scope, c.Scope)
	setString(&cfg.Engine, c.Engine)
	setBool(&cfg.Headful, c.Headful)
	setString(&cfg.UserProfileDir, c.UserProfileDir)
	setString(&cfg.BrowserType, c.BrowserType)
	setString(&cfg.BrowserDir, c.BrowserDir)
	setDuration(&cfg.RenderWait, c.RenderWait)
	setInt(&cfg.Retries, c.Retries)
	setDuration(&cfg.RetryDelay, c.RetryDelay)
	setInt(&cfg.CheckpointEvery, c.CheckpointEvery)
	setDuration(&cfg.Delay, c.Delay)
	if c.Rate != nil {
		cfg.Rate = *c.Rate
	}
	setBool(&cfg.RespectRobots, c.RespectRobots)
	setString(&cfg.Proxy, c.Proxy)
	setBool(&cfg.NoDB, c.NoDB)
	setString(&cfg.DBDir, c.DBDir)
	cfg.SiteConfigs = cf
}

// ApplySite fills options from the site configuration of the base URL's
// host. It runs after command line flags are applied; maxDepthSet reports
// whether the user set the depth explicitly, in which case the site depth
// is ignored.
func (c *Config) ApplySite(maxDepthSet bool) {
	site := c.Site()
	if site.Depth != 0 && !maxDepthSet {
		c.MaxDepth = site.Depth
	}
	c.IgnorePatterns = append(c.IgnorePatterns, site.IgnorePatterns...)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .doccrawl.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .doccrawl.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
