// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// A documentation crawl often runs with a logged-in browser profile, a
// session cookie or an Authorization header from the configuration file.
// None of these may end up in log output, even in verbose mode.
//
// The SecureHandler masks:
//   - attributes whose key names a credential (cookie, authorization, token, ...)
//   - values that look like credentials (bearer and basic tokens, JWTs)
//   - credential query parameters and user info inside URLs, wherever a URL
//     appears in a string attribute or an error message
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("fetch failed",
//	    "url", "https://docs.example.com/a?token=abc", // url=https://docs.example.com/a?token=***REDACTED***
//	    "cookie", "session=abc123",                      // cookie=***REDACTED***
//	)
//	slog.SetDefault(logger)
package log
