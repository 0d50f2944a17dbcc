package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Where the offending value helps the user, it is
// appended with fmt.Errorf("%w: ...").
var (
	// ErrNoTarget is returned when no base URL is specified.
	ErrNoTarget = errors.New("no target specified: provide the base URL of the documentation site")

	// ErrInvalidURL is returned when the base URL is not an absolute http or https URL.
	ErrInvalidURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxDepth is returned when the maximum depth is negative.
	// Use 0 for unlimited depth.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidExclude is returned when the exclude expression does not compile.
	ErrInvalidExclude = errors.New("invalid exclude pattern")

	// ErrBaseExcluded is returned when the base URL itself matches an
	// exclude expression or an ignore pattern. Nothing could be crawled.
	ErrBaseExcluded = errors.New("base URL is excluded by the exclude or ignore patterns")

	// ErrInvalidScope is returned for an unknown scope mode.
	ErrInvalidScope = errors.New("invalid scope: must be prefix or host")

	// ErrInvalidEngine is returned for an unknown fetch engine.
	ErrInvalidEngine = errors.New("invalid engine: must be http or browser")

	// ErrUnsupportedBrowser is returned for a browser type that cannot be
	// driven. Only chromium is supported.
	ErrUnsupportedBrowser = errors.New("unsupported browser type: only chromium can be driven")

	// ErrProfileDirMissing is returned when the user profile directory does not exist.
	ErrProfileDirMissing = errors.New("user profile directory does not exist")

	// ErrBrowserNotFound is returned when no browser executable is found in
	// the browser directory.
	ErrBrowserNotFound = errors.New("no chromium executable found in browser directory")

	// ErrInvalidRetries is returned when the retry budget is less than one attempt.
	ErrInvalidRetries = errors.New("invalid retries: must be at least 1")

	// ErrInvalidCheckpoint is returned when the checkpoint interval is not positive.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint interval: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidRate is returned when the request rate is negative.
	// Use 0 for no rate limit.
	ErrInvalidRate = errors.New("invalid rate: must be non-negative")
)
