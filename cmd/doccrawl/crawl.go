package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/doccrawl/internal/config"
	"github.com/nao1215/doccrawl/internal/crawler"
	"github.com/nao1215/doccrawl/internal/database"
	"github.com/nao1215/doccrawl/internal/fetcher"
	"github.com/nao1215/doccrawl/internal/link"
	"github.com/nao1215/doccrawl/internal/log"
	"github.com/nao1215/doccrawl/internal/model"
	"github.com/nao1215/doccrawl/internal/output"
	"github.com/nao1215/doccrawl/internal/progress"
	"github.com/nao1215/doccrawl/internal/report"
	"github.com/nao1215/doccrawl/internal/state"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runRootCmd executes a crawl.
func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// An interrupt stops the crawl; the crawler saves its state and the
	// run still ends with a summary.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, saving progress...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags the user actually set, in that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()
	cfg := config.NewConfig()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := loadConfigFile(cfg, configPath); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.BaseURL = args[0]
	}

	err = errors.Join(
		override(flags, "workers", &cfg.Workers, flags.GetInt),
		override(flags, "output", &cfg.OutputDir, flags.GetString),
		override(flags, "max-depth", &cfg.MaxDepth, flags.GetInt),
		override(flags, "exclude", &cfg.Exclude, flags.GetString),
		override(flags, "scope", &cfg.Scope, flags.GetString),
		override(flags, "retry-failed", &cfg.RetryFailed, flags.GetBool),
		override(flags, "retries", &cfg.Retries, flags.GetInt),
		override(flags, "checkpoint-every", &cfg.CheckpointEvery, flags.GetInt),
		override(flags, "user-agent", &cfg.UserAgent, flags.GetString),
		override(flags, "proxy", &cfg.Proxy, flags.GetString),
		override(flags, "engine", &cfg.Engine, flags.GetString),
		override(flags, "headful", &cfg.Headful, flags.GetBool),
		override(flags, "user-profile-dir", &cfg.UserProfileDir, flags.GetString),
		override(flags, "browser-type", &cfg.BrowserType, flags.GetString),
		override(flags, "browser-dir", &cfg.BrowserDir, flags.GetString),
		override(flags, "delay", &cfg.Delay, flags.GetDuration),
		override(flags, "rate", &cfg.Rate, flags.GetFloat64),
		override(flags, "respect-robots", &cfg.RespectRobots, flags.GetBool),
		override(flags, "no-db", &cfg.NoDB, flags.GetBool),
		override(flags, "db-dir", &cfg.DBDir, flags.GetString),
		override(flags, "no-progress", &cfg.NoProgress, flags.GetBool),
		override(flags, "json", &cfg.JSONReport, flags.GetBool),
	)
	if err != nil {
		return nil, err
	}

	if flags.Changed("noresume") {
		noResume, err := flags.GetBool("noresume")
		if err != nil {
			return nil, err
		}
		cfg.Resume = !noResume
	}

	if flags.Changed("timeout") {
		seconds, err := flags.GetInt("timeout")
		if err != nil {
			return nil, err
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ApplySite(flags.Changed("max-depth"))
	cfg.ApplyImplied()

	return cfg, nil
}

// override copies the value of flag name into dst when the user set it on
// the command line, so that unset flags keep configuration file values.
func override[T any](flags *pflag.FlagSet, name string, dst *T, get func(string) (T, error)) error {
	if !flags.Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// loadConfigFile applies the configuration file to cfg.
// If the user explicitly named a file, it must exist. Otherwise a missing
// file leaves the defaults untouched.
func loadConfigFile(cfg *config.Config, explicitPath string) error {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	file.Apply(cfg)
	cfg.ConfigFilePath = path
	return nil
}

// runCrawl builds the crawler described by cfg, runs it and prints the
// summary to out. Progress is drawn on progressOut.
//
// Per-page failures and interruption are reported in the summary and do
// not make runCrawl fail. Only errors that abort the crawl, such as a
// failed output write or a base URL that could not be fetched on a fresh
// crawl, are returned.
func runCrawl(ctx context.Context, cfg *config.Config, out, progressOut io.Writer, logger *slog.Logger) error {
	scopeMode, err := link.ParseScopeMode(cfg.Scope)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	scope, err := link.NewScope(cfg.BaseURL, scopeMode)
	if err != nil {
		return fmt.Errorf("configuration error: %w: %w", config.ErrInvalidURL, err)
	}
	exclude, err := cfg.CompileExclude()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	engine, err := fetcher.ParseEngine(cfg.Engine)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	fetchOpts, err := fetcherOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	f, err := fetcher.New(engine, fetchOpts)
	if err != nil {
		return fmt.Errorf("failed to create %s fetcher: %w", engine, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close fetcher", "error", err)
		}
	}()

	crawlOpts := []crawler.Option{
		crawler.WithWorkers(cfg.Workers),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithExclude(exclude),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithRetries(cfg.Retries, cfg.RetryDelay),
		crawler.WithCheckpointEvery(cfg.CheckpointEvery),
		crawler.WithResume(cfg.Resume),
		crawler.WithRetryFailed(cfg.RetryFailed),
		crawler.WithLimiter(crawler.NewLimiter(cfg.Delay, cfg.Rate)),
		crawler.WithLogger(logger),
	}

	if cfg.RespectRobots {
		client, closeClient, err := robotsClient(f, fetchOpts)
		if err != nil {
			return fmt.Errorf("failed to create robots.txt client: %w", err)
		}
		defer closeClient()
		crawlOpts = append(crawlOpts, crawler.WithRobots(crawler.NewRobotsAgent(client, cfg.UserAgent)))
	}

	baseURL := scope.Base().String()
	catalog, runID := openCatalog(ctx, cfg, baseURL, logger)
	if catalog != nil {
		defer catalog.Close()
		crawlOpts = append(crawlOpts, crawler.WithCatalog(catalog))
	}

	indicator := progress.New(progressOut, !cfg.NoProgress && !cfg.Verbose)
	crawlOpts = append(crawlOpts, crawler.WithProgress(indicator))

	c := crawler.New(f,
		state.NewStore(cfg.OutputDir),
		output.NewWriter(cfg.OutputDir, scope),
		scope,
		crawlOpts...,
	)

	indicator.Start()
	summary, runErr := c.Run(ctx)
	indicator.Stop()

	if summary != nil {
		// The crawl context may already be cancelled; bookkeeping still runs.
		finishCtx := context.WithoutCancel(ctx)
		if catalog != nil && runID != 0 {
			if err := catalog.FinishRun(finishCtx, runID, summary); err != nil {
				logger.Warn("failed to record run", "error", err)
			}
		}

		if path, err := report.WriteFile(cfg.OutputDir, summary); err != nil {
			logger.Warn("failed to write crawl report", "error", err)
		} else {
			logger.Info("crawl report written", "path", path)
		}

		if err := writeSummary(out, cfg, summary); err != nil {
			return fmt.Errorf("failed to print summary: %w", err)
		}
	}

	switch {
	case errors.Is(runErr, crawler.ErrBaseUnreachable), errors.Is(runErr, crawler.ErrBaseExcluded):
		return fmt.Errorf("configuration error: %w", runErr)
	case runErr != nil:
		return fmt.Errorf("crawl aborted: %w", runErr)
	}
	return nil
}

// fetcherOptions translates cfg into fetcher options. Cookies and headers
// come from the site section of the configuration file.
func fetcherOptions(cfg *config.Config, logger *slog.Logger) (fetcher.Options, error) {
	browserPath, err := cfg.BrowserExecutable()
	if err != nil {
		return fetcher.Options{}, err
	}
	site := cfg.Site()

	opts := fetcher.DefaultOptions()
	opts.Timeout = cfg.Timeout
	opts.UserAgent = cfg.UserAgent
	opts.MaxBodySize = cfg.MaxBodySize
	opts.ProxyAddress = cfg.Proxy
	opts.Cookie = site.Cookie
	opts.Headers = site.Headers
	opts.DetectLogin = cfg.DetectLogin()
	opts.Headless = !cfg.Headful
	opts.UserDataDir = cfg.UserProfileDir
	opts.BrowserPath = browserPath
	opts.RenderWait = cfg.RenderWait
	opts.Logger = logger
	return opts, nil
}

// robotsClient returns an HTTP client for robots.txt requests. The HTTP
// engine's own client is reused; the browser engine gets a plain one with
// the same proxy, cookie and headers.
func robotsClient(f fetcher.Fetcher, opts fetcher.Options) (*http.Client, func(), error) {
	if hf, ok := f.(*fetcher.HTTPFetcher); ok {
		return hf.Client(), func() {}, nil
	}
	hf, err := fetcher.NewHTTPFetcher(opts)
	if err != nil {
		return nil, nil, err
	}
	return hf.Client(), func() { _ = hf.Close() }, nil //nolint:errcheck // only idle connections to release
}

// openCatalog opens the page catalog and records the start of a run.
// The catalog is optional: when it cannot be opened the crawl proceeds
// without it.
func openCatalog(ctx context.Context, cfg *config.Config, baseURL string, logger *slog.Logger) (*database.Catalog, int64) {
	path := cfg.DBPath()
	if path == "" {
		return nil, 0
	}

	catalog, err := database.Open(path, database.DefaultOptions())
	if err != nil {
		logger.Warn("page catalog disabled", "path", path, "error", err)
		return nil, 0
	}
	logger.Debug("page catalog opened", "path", path)

	runID, err := catalog.StartRun(ctx, baseURL, cfg.OutputDir, time.Now())
	if err != nil {
		logger.Warn("failed to record run start", "error", err)
		return catalog, 0
	}
	return catalog, runID
}

// writeSummary prints the run summary in the requested format.
func writeSummary(out io.Writer, cfg *config.Config, summary *model.Summary) error {
	var w report.Writer
	if cfg.JSONReport {
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	} else {
		w = report.NewSimpleWriter(out)
	}
	_, err := w.Write(summary)
	return err
}
