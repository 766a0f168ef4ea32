package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/cache"
	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/io"
	"github.com/matzehuels/availdep/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides cache.GraphTTL and cache.ArtifactTTL when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete pipeline with caching.
//
// The built graph is cached under a key derived from the content of records
// and the build options; artifacts are cached under the graph's content
// hash and the render options. Cache failures are logged and otherwise
// ignored.
func (r *Runner) Execute(ctx context.Context, records []activity.Record, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	res, err := r.BuildWithCacheInfo(ctx, records, opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("built graph",
		"mode", res.Mode,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"cached", res.CacheInfo.GraphHit,
		"duration", res.Stats.BuildTime)
	if res.Repaired {
		r.Logger.Warn("references to deleted activities were redirected",
			"references", res.Stats.Redirected,
			"label", opts.MissingLabel)
	}
	if res.Stats.Cyclic {
		r.Logger.Warn("dependency graph contains a cycle")
	}

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res, opts)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts
	res.Stats.RenderTime = time.Since(renderStart)
	res.CacheInfo.RenderHit = renderHit

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", res.Stats.RenderTime)
	return res, nil
}

// BuildWithCacheInfo builds the graph, or reads it from the cache, and
// sets Result.CacheInfo.GraphHit accordingly.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, records []activity.Record, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	recordsHash, err := cache.HashJSON(records)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "hash records")
	}
	key := r.Keyer.GraphKey(recordsHash, opts.GraphKeyOpts())

	if !opts.Refresh {
		if res := r.cachedGraph(ctx, key, opts.Mode); res != nil {
			return res, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, opts.Mode.String(), len(records))
	start := time.Now()
	res, err := Build(records, opts)
	if err != nil {
		hooks.OnBuildComplete(ctx, opts.Mode.String(), observability.BuildStats{}, time.Since(start), err)
		return nil, err
	}
	hooks.OnBuildComplete(ctx, opts.Mode.String(), buildStats(res), time.Since(start), nil)

	var buf bytes.Buffer
	if err := io.WriteFull(res.Graph, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode graph")
	}
	res.GraphHash = cache.Hash(buf.Bytes())
	r.store(ctx, "graph", key, buf.Bytes(), r.ttl(cache.GraphTTL))
	return res, nil
}

func (r *Runner) cachedGraph(ctx context.Context, key string, mode Mode) *Result {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
		return nil
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "graph")
		return nil
	}

	g, err := io.ReadGraph(bytes.NewReader(data))
	if err == nil {
		var res *Result
		if res, err = FromGraph(mode, g); err == nil {
			observability.Cache().OnCacheHit(ctx, "graph")
			res.GraphHash = cache.Hash(data)
			res.CacheInfo.GraphHit = true
			return res
		}
	}
	r.Logger.Debug("discarding unreadable cache entry", "key", key, "error", err)
	_ = r.Cache.Delete(ctx, key)
	return nil
}

// RenderWithCacheInfo renders every requested format, taking each from the
// cache where possible. The second result is true when all of them were
// cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *Result, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if opts.Highlight != "" {
		if _, err := res.AncestorsOf(opts.Highlight); err != nil {
			return nil, false, err
		}
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh && res.GraphHash != "" {
			key := r.Keyer.ArtifactKey(res.GraphHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()
	ropts := opts
	ropts.Formats = missing
	rendered, err := Render(ctx, res, ropts)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		if res.GraphHash != "" {
			r.store(ctx, "artifact", r.Keyer.ArtifactKey(res.GraphHash, opts.ArtifactKeyOpts(format)), data, r.ttl(cache.ArtifactTTL))
		}
	}
	return artifacts, false, nil
}

// store writes to the cache, logging instead of failing.
func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func buildStats(res *Result) observability.BuildStats {
	return observability.BuildStats{
		Activities: res.Stats.Activities,
		Nodes:      res.Stats.Nodes,
		Operators:  res.Stats.Operators,
		Edges:      res.Stats.Edges,
		Repaired:   res.Repaired,
		Cyclic:     res.Stats.Cyclic,
	}
}
