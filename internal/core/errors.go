package core

import "errors"

// Sentinel errors realizing the error taxonomy of spec §7. Callers use
// errors.Is to branch on kind; only ErrConfigInvalid ever aborts a run
// before I/O starts — everything else degrades in place.
var (
	// ErrEmbedderUnavailable is returned by the Embedder when no backend
	// is configured; callers may degrade to keyword-only clustering.
	ErrEmbedderUnavailable = errors.New("embedder: no backend configured")

	// ErrConfigInvalid marks a config error (missing source list, bad
	// preferences document). Fatal before any I/O; never returned once
	// ingest has started.
	ErrConfigInvalid = errors.New("config: invalid")

	// ErrCacheCorrupt marks an unreadable JSONL line or a SQLite
	// integrity error. Policy: skip the bad record and continue.
	ErrCacheCorrupt = errors.New("cache: corrupt record")

	// ErrInvariantViolation marks a programmer error: a non-unit vector,
	// an unknown cluster status, or similar. Policy: fail loudly.
	ErrInvariantViolation = errors.New("invariant violated")

	// ErrUpstreamUnavailable marks a transient upstream failure (HTTP
	// timeout, 5xx, parse failure). Policy: log, skip, continue.
	ErrUpstreamUnavailable = errors.New("upstream: unavailable")
)
