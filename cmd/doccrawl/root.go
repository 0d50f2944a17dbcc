package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nao1215/doccrawl/internal/config"
	"github.com/nao1215/doccrawl/internal/fetcher"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCmd creates the root command. The root command itself runs a crawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doccrawl [flags] <url>",
		Short: "Mirror a documentation site as Markdown",
		Long: `doccrawl crawls a documentation site breadth-first from a base URL and
saves every page as a Markdown file. Links between saved pages are
rewritten to relative paths so the mirror can be browsed offline.

Progress is checkpointed to .doccrawl_state.json in the output directory.
Running the same command again resumes where the previous run stopped;
use --noresume to start over.

Examples:
  # Mirror everything below /guide/
  doccrawl https://docs.example.com/guide/

  # Ten workers, two levels deep, skip the API reference
  doccrawl --workers 10 --max-depth 2 --exclude "/api/.*" https://docs.example.com/

  # Sites rendered with JavaScript
  doccrawl --engine browser https://app.example.com/docs/

  # Private docs using a logged-in Chromium profile
  doccrawl --user-profile-dir ~/.config/chromium https://intranet.example.com/wiki/

  # Retry pages that failed in the previous run
  doccrawl --retry-failed https://docs.example.com/guide/`,
		Version:       getVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	// --max_depth and --user_agent are accepted as spellings of
	// --max-depth and --user-agent.
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	addCrawlFlags(cmd.Flags())

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// addCrawlFlags registers the crawl options.
func addCrawlFlags(flags *pflag.FlagSet) {
	// Crawl behavior
	flags.Bool("noresume", false,
		"Ignore the saved state and start a fresh crawl")
	flags.IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent fetch workers")
	flags.StringP("output", "o", config.DefaultOutputDir,
		"Output directory for Markdown files and crawl state")
	flags.IntP("max-depth", "d", 0,
		"Maximum link depth from the base URL (0 = unlimited)")
	flags.String("exclude", "",
		"Regular expression; matching URLs are not crawled")
	flags.String("scope", config.DefaultScope,
		"Which URLs belong to the site: prefix (below the base URL) or host")
	flags.Bool("retry-failed", false,
		"Retry pages that failed permanently in a previous run")
	flags.Int("retries", config.DefaultRetries,
		"Fetch attempts per page for timeouts and network errors")
	flags.Int("checkpoint-every", config.DefaultCheckpointEvery,
		"Save crawl state every N completed pages")

	// Fetching
	flags.String("user-agent", fetcher.DefaultUserAgent,
		"User-Agent header sent with every request")
	flags.Int("timeout", int(config.DefaultTimeout/time.Second),
		"Per-page timeout in seconds")
	flags.String("proxy", "",
		"SOCKS5 proxy address (host:port)")
	flags.String("engine", config.DefaultEngine,
		"Fetch engine: http or browser (headless Chromium)")
	flags.Bool("headful", false,
		"Show the browser window (browser engine only)")
	flags.String("user-profile-dir", "",
		"Browser profile with a logged-in session (implies --engine browser --headful)")
	flags.String("browser-type", config.DefaultBrowserType,
		"Browser to drive: "+strings.Join(config.BrowserTypes, ", ")+" (only chromium is supported)")
	flags.String("browser-dir", "",
		"Browser executable or a directory containing it")

	// Politeness
	flags.Duration("delay", 0,
		"Minimum delay between requests to the same host")
	flags.Float64("rate", 0,
		"Maximum requests per second to the same host (0 = unlimited)")
	flags.Bool("respect-robots", false,
		"Honour robots.txt rules and Crawl-delay")

	// Configuration file and catalog
	flags.StringP("config", "c", "",
		"Configuration file path (default: .doccrawl.yaml in current, XDG config or home directory)")
	flags.Bool("no-db", false,
		"Do not record pages in the page catalog")
	flags.String("db-dir", "",
		"Page catalog directory (default: XDG data directory)")

	// Output
	flags.Bool("no-progress", false,
		"Disable the progress indicator")
	flags.BoolP("json", "j", false,
		"Print the run summary as JSON")
}

// normalizeFlagName maps underscores in flag names to dashes.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
