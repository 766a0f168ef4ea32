// Package cache stores built graphs and rendered artifacts between runs.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI.
//   - [RedisCache]: a shared Redis instance, for the HTTP server.
//   - [NullCache]: stores nothing, for --no-cache and tests.
//
// # Keys
//
// A [Keyer] derives keys from content hashes rather than from course ids,
// so a changed course never hits a stale entry:
//
//	graph:<sha256(records hash, mode, missing label, limits)>
//	artifact:<sha256(graph hash, format, highlight, title)>
//
// [ScopedKeyer] prefixes every key, which the server uses to keep courses in
// separate namespaces.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	GraphTTL    = 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with expiry.
type Cache interface {
	// Get returns the cached value and true, or false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// GraphKeyOpts holds the build options that change a graph.
type GraphKeyOpts struct {
	Full         bool   `json:"full"`
	MissingLabel string `json:"missing_label"`
	MaxDepth     int    `json:"max_depth"`
	MaxWeight    int    `json:"max_weight"`
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Highlight string `json:"highlight,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey returns the key of the graph built from records whose
	// content hash is recordsHash.
	GraphKey(recordsHash string, opts GraphKeyOpts) string

	// ArtifactKey returns the key of an artifact rendered from the graph
	// whose content hash is graphHash.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(recordsHash string, opts GraphKeyOpts) string {
	return hashKey("graph", recordsHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}
