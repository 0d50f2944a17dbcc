package model

import "strings"

// FailureKind classifies why a page could not be fetched or extracted.
type FailureKind int

const (
	// FailureNone means the fetch succeeded.
	FailureNone FailureKind = iota

	// FailureTimeout means the page did not load within the configured timeout.
	FailureTimeout

	// FailureNetwork covers connection errors and non-success HTTP statuses.
	FailureNetwork

	// FailureAuthRequired means the server asked for credentials or served a
	// login page instead of the requested content.
	FailureAuthRequired

	// FailureParse means the response could not be turned into Markdown.
	FailureParse

	// FailureDisallowed means robots.txt forbids fetching the URL.
	FailureDisallowed
)

// String returns the stable identifier used in state files and the catalog.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureNetwork:
		return "network"
	case FailureAuthRequired:
		return "auth_required"
	case FailureParse:
		return "parse"
	case FailureDisallowed:
		return "disallowed"
	default:
		return "unknown"
	}
}

// ParseFailureKind converts an identifier produced by String back into a
// FailureKind. Unknown identifiers map to FailureNetwork so that an old or
// hand-edited state file still loads.
func ParseFailureKind(s string) FailureKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return FailureNone
	case "timeout":
		return FailureTimeout
	case "network":
		return FailureNetwork
	case "auth_required":
		return FailureAuthRequired
	case "parse":
		return FailureParse
	case "disallowed":
		return FailureDisallowed
	default:
		return FailureNetwork
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FailureKind) UnmarshalText(text []byte) error {
	*k = ParseFailureKind(string(text))
	return nil
}

// Retryable reports whether another attempt could plausibly succeed.
// Only transport failures are retried.
func (k FailureKind) Retryable() bool {
	return k == FailureTimeout || k == FailureNetwork
}
