package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/doccrawl/internal/fetcher"
	"github.com/nao1215/doccrawl/internal/link"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "doccrawl"

	// DefaultWorkers is the number of pages fetched concurrently.
	// Five keeps a single documentation host comfortably below the request
	// rates that usually trigger throttling.
	DefaultWorkers = 5

	// DefaultOutputDir is where Markdown files and the state file are written.
	DefaultOutputDir = "./output"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRetries is the number of fetch attempts per page, including the first.
	DefaultRetries = 3

	// DefaultRetryDelay is the base of the linear retry backoff.
	// Attempt n waits n * DefaultRetryDelay before retrying.
	DefaultRetryDelay = 2 * time.Second

	// DefaultCheckpointEvery is the number of completed pages between state
	// checkpoints. A checkpoint is always written when the crawl stops.
	DefaultCheckpointEvery = 10

	// DefaultScope restricts the crawl to the base URL's directory.
	DefaultScope = string(link.ScopePrefix)

	// DefaultEngine fetches pages over plain HTTP.
	DefaultEngine = string(fetcher.EngineHTTP)

	// DefaultBrowserType is the only browser the browser engine can drive.
	DefaultBrowserType = "chromium"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DBFileName is the page catalog file name inside the database directory.
	DBFileName = "doccrawl.db"
)

// BrowserTypes lists the browser names accepted on the command line.
var BrowserTypes = []string{"chromium", "firefox", "webkit"}

// Config holds all configuration options for doccrawl.
// This struct is populated from defaults, the configuration file and CLI
// flags, in that order, and passed through the application rather than kept
// in global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. Site-specific settings that only apply to one host live in
// SiteConfigs and are resolved with Site().
type Config struct {
	// BaseURL is the root of the documentation site. Only pages at or below
	// it (see Scope) are crawled.
	BaseURL string

	// Workers is the number of concurrent fetches.
	Workers int

	// OutputDir receives the Markdown files, the state file and the report.
	OutputDir string

	// MaxDepth is the maximum link distance from BaseURL. 0 means unlimited.
	MaxDepth int

	// Exclude is a regular expression; URLs matching it anywhere are skipped.
	Exclude string

	// IgnorePatterns are glob patterns matched against URL paths.
	IgnorePatterns []string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Timeout is the per-page fetch timeout.
	Timeout time.Duration

	// Resume continues from the state file in OutputDir when it exists.
	// When false the state file is discarded and the crawl starts over.
	Resume bool

	// RetryFailed moves permanently failed URLs back into the queue on resume.
	RetryFailed bool

	// Scope is "prefix" (base URL's directory) or "host" (whole host).
	Scope string

	// Engine is "http" or "browser".
	Engine string

	// Headful shows the browser window. Only used by the browser engine.
	Headful bool

	// UserProfileDir is a browser profile directory holding a logged-in
	// session. Setting it implies the browser engine in headful mode.
	UserProfileDir string

	// BrowserType is the browser to drive. Only chromium is supported.
	BrowserType string

	// BrowserDir is a browser executable, or a directory containing one.
	// When empty the system Chrome or Chromium is used.
	BrowserDir string

	// RenderWait is extra time given to client-side rendering after the page
	// body is ready. Only used by the browser engine.
	RenderWait time.Duration

	// Retries is the number of fetch attempts per page.
	Retries int

	// RetryDelay is the base delay of the linear retry backoff.
	RetryDelay time.Duration

	// CheckpointEvery is the number of completed pages between checkpoints.
	CheckpointEvery int

	// Delay is the minimum time between two requests to the same host.
	Delay time.Duration

	// Rate is the maximum number of requests per second to the same host.
	// 0 disables the limit.
	Rate float64

	// RespectRobots skips URLs disallowed by robots.txt and honours its
	// Crawl-delay.
	RespectRobots bool

	// Proxy is a SOCKS5 proxy address in "host:port" format.
	Proxy string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// NoDB disables the page catalog.
	NoDB bool

	// DBDir is the directory of the page catalog database.
	// Defaults to the XDG data directory (~/.local/share/doccrawl on Linux).
	DBDir string

	// NoProgress disables the progress indicator.
	NoProgress bool

	// JSONReport prints the end-of-run summary as JSON instead of text.
	JSONReport bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., workers, retries).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Workers:         DefaultWorkers,
		OutputDir:       DefaultOutputDir,
		UserAgent:       fetcher.DefaultUserAgent,
		Timeout:         DefaultTimeout,
		Resume:          true,
		Scope:           DefaultScope,
		Engine:          DefaultEngine,
		BrowserType:     DefaultBrowserType,
		Retries:         DefaultRetries,
		RetryDelay:      DefaultRetryDelay,
		CheckpointEvery: DefaultCheckpointEvery,
		MaxBodySize:     DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for doccrawl.
// On Linux: ~/.local/share/doccrawl
// On macOS: ~/Library/Application Support/doccrawl
// On Windows: %LOCALAPPDATA%\doccrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for doccrawl.
// On Linux: ~/.config/doccrawl
// On macOS: ~/Library/Application Support/doccrawl
// On Windows: %APPDATA%\doccrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DBPath returns the page catalog path, or "" when the catalog is disabled.
func (c *Config) DBPath() string {
	if c.NoDB {
		return ""
	}
	dir := c.DBDir
	if dir == "" {
		dir = XDGDataDir()
	}
	return filepath.Join(dir, DBFileName)
}

// ApplyImplied sets options implied by other options. A user profile
// directory only makes sense in a real, visible browser, so it selects the
// browser engine in headful mode.
func (c *Config) ApplyImplied() {
	if c.UserProfileDir != "" {
		c.Engine = string(fetcher.EngineBrowser)
		c.Headful = true
	}
}

// DetectLogin reports whether pages that look like login forms should be
// treated as authentication failures. That is only meaningful when the crawl
// carries credentials.
func (c *Config) DetectLogin() bool {
	if c.UserProfileDir != "" {
		return true
	}
	site := c.Site()
	return site.Cookie != "" || len(site.Headers) > 0
}

// Site returns the site configuration for the base URL's host, merged with
// the configuration file defaults. It returns a zero SiteConfig when no
// configuration file was loaded.
func (c *Config) Site() SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	host := ""
	if u, err := url.Parse(c.BaseURL); err == nil {
		host = u.Hostname()
	}
	return c.SiteConfigs.GetSiteConfig(host)
}

// ExcludePatterns returns the exclude expression and the site-specific
// excludes as one list.
func (c *Config) ExcludePatterns() []string {
	var patterns []string
	if c.Exclude != "" {
		patterns = append(patterns, c.Exclude)
	}
	return append(patterns, c.Site().Exclude...)
}

// CompileExclude compiles every exclude pattern into one expression.
// It returns nil when there is nothing to exclude.
func (c *Config) CompileExclude() (*regexp.Regexp, error) {
	patterns := c.ExcludePatterns()
	if len(patterns) == 0 {
		return nil, nil //nolint:nilnil // nil expression means no exclusion
	}
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidExclude, p, err)
		}
	}
	if len(patterns) == 1 {
		return regexp.MustCompile(patterns[0]), nil
	}
	return regexp.MustCompile("(?:" + strings.Join(patterns, ")|(?:") + ")"), nil
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after flags and the configuration file are merged,
// before anything touches the network or the output directory.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrNoTarget
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, c.BaseURL)
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	exclude, err := c.CompileExclude()
	if err != nil {
		return err
	}
	mode, err := link.ParseScopeMode(c.Scope)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidScope, c.Scope)
	}
	if err := c.validateBase(mode, exclude); err != nil {
		return err
	}
	if _, err := fetcher.ParseEngine(c.Engine); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEngine, c.Engine)
	}
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if c.Retries < 1 {
		return ErrInvalidRetries
	}
	if c.CheckpointEvery <= 0 {
		return ErrInvalidCheckpoint
	}
	if c.Delay < 0 || c.RetryDelay < 0 {
		return ErrInvalidDelay
	}
	if c.Rate < 0 {
		return ErrInvalidRate
	}
	return nil
}

// validateBase rejects a base URL that the crawl would filter out, so the
// run never starts from a page it is told to skip.
func (c *Config) validateBase(mode link.ScopeMode, exclude *regexp.Regexp) error {
	scope, err := link.NewScope(c.BaseURL, mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	base := scope.Base()
	if exclude != nil && exclude.MatchString(base.String()) {
		return fmt.Errorf("%w: %s matches %q", ErrBaseExcluded, base, exclude)
	}
	p := base.Path
	if p == "" {
		p = "/"
	}
	for _, pattern := range c.IgnorePatterns {
		if link.MatchPattern(pattern, p) {
			return fmt.Errorf("%w: %s matches ignore pattern %q", ErrBaseExcluded, base, pattern)
		}
	}
	return nil
}

func (c *Config) validateBrowser() error {
	switch strings.ToLower(c.BrowserType) {
	case "", DefaultBrowserType:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedBrowser, c.BrowserType)
	}

	if c.UserProfileDir != "" {
		info, err := os.Stat(c.UserProfileDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrProfileDirMissing, c.UserProfileDir)
		}
	}

	if c.BrowserDir != "" {
		if _, err := c.BrowserExecutable(); err != nil {
			return err
		}
	}
	return nil
}

// browserNames are executable names searched for inside BrowserDir.
var browserNames = []string{
	"chrome",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"headless_shell",
	filepath.Join("chrome-linux", "chrome"),
	filepath.Join("chrome-linux64", "chrome"),
	"chrome.exe",
	filepath.Join("chrome-win", "chrome.exe"),
	filepath.Join("Chromium.app", "Contents", "MacOS", "Chromium"),
	filepath.Join("chrome-mac", "Chromium.app", "Contents", "MacOS", "Chromium"),
}

// BrowserExecutable resolves BrowserDir to an executable path. BrowserDir
// may name the executable itself or a directory containing it. An empty
// BrowserDir returns "" so that the system browser is used.
func (c *Config) BrowserExecutable() (string, error) {
	if c.BrowserDir == "" {
		return "", nil
	}
	info, err := os.Stat(c.BrowserDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBrowserNotFound, c.BrowserDir)
	}
	if !info.IsDir() {
		return c.BrowserDir, nil
	}
	for _, name := range browserNames {
		candidate := filepath.Join(c.BrowserDir, name)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBrowserNotFound, c.BrowserDir)
}
