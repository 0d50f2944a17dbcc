// Package model defines the data structures shared across doccrawl.
//
// The types here describe one crawl: the persisted CrawlState used for
// resuming, the per-fetch PageResult produced by a fetch engine, and the
// Summary reported when a run ends. Keeping them in a leaf package lets the
// state store, the catalog database and the report writers agree on a single
// representation without importing each other.
package model
