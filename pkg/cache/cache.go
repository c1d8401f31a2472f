// Package cache stores pipeline stages and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: entries as JSON files under a directory, used by the CLI
//   - [RedisCache]: a shared Redis instance, used by the server when configured
//   - [NullCache]: stores nothing, used when caching is disabled
//
// # Keys
//
// A [Keyer] derives keys from content hashes and the options that affect a
// stage's output. Keys are namespaced by stage ("graph:", "layout:",
// "artifact:") so hit rates can be reported per stage.
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(graphHash, cache.LayoutKeyOpts{VizType: "force", Seed: 42})
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// TTLs per stage. Graphs depend only on dataset content, so they live
// longest; artifacts are the largest entries.
const (
	TTLGraph    = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value and whether it was found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache stores nothing. Every Get is a miss.
type NullCache struct{}

// NewNullCache returns the cache used when caching is disabled.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	GraphKey(datasetHash string, opts GraphKeyOpts) string
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// GraphKeyOpts are the build options that change the graph built from a dataset.
type GraphKeyOpts struct {
	DefaultSource string `json:"default_source,omitempty"`
}

// LayoutKeyOpts are the options that change a settled layout.
type LayoutKeyOpts struct {
	VizType    string   `json:"viz_type"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Seed       uint64   `json:"seed"`
	MaxTicks   int      `json:"max_ticks"`
	Sources    []string `json:"sources,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	Policy     string   `json:"policy,omitempty"`
	Engine     string   `json:"engine,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"`
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Labels bool    `json:"labels"`
	Legend bool    `json:"legend"`
	Scale  float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes key options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey returns the key of a graph built from a dataset.
func (DefaultKeyer) GraphKey(datasetHash string, opts GraphKeyOpts) string {
	return hashKey("graph", datasetHash, opts)
}

// LayoutKey returns the key of a layout computed from a graph.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey returns the key of an artifact rendered from a layout.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// KeyType returns the stage namespace of a key, used to label cache
// observability events. Scope prefixes are skipped.
func KeyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}

// Hash returns the hex SHA-256 of data. Dataset and graph hashes feed the
// stage keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<stage>:<sha256 of the JSON parts>".
func hashKey(stage string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return stage + ":" + Hash(data)
}
