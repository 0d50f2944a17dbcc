package config

import "maps"

// SiteConfig holds site-specific configuration for a single host.
// This allows customizing crawl behavior per documentation site.
type SiteConfig struct {
	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the maximum crawl depth for this site when the
	// command line does not set one. If zero, the global MaxDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// Exclude are additional regular expressions; matching URLs are skipped.
	Exclude []string `yaml:"exclude,omitempty"`

	// IgnorePatterns are URL patterns to skip during crawling.
	// Patterns are matched against the URL path using glob syntax.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// File represents the structure of the doccrawl configuration file.
// Top-level keys mirror the command line flags; a key that is absent
// leaves the default untouched.
type File struct {
	Crawl FileCrawl `yaml:",inline"`

	// Sites maps host names to their site-specific configurations.
	// Keys are host names without scheme or port (e.g., "docs.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	// Start with defaults. Headers are copied so that merging never
	// modifies the defaults shared by every site.
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.Exclude) > 0 {
		result.Exclude = siteConfig.Exclude
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}

	return result
}
