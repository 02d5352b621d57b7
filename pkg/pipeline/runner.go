package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/kgview/pkg/cache"
	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/observability"
	"github.com/matzehuels/kgview/pkg/view"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
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

// Execute runs the complete build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, raw any, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	buildStart := time.Now()
	built, err := r.Build(ctx, raw, opts)
	if err != nil {
		return nil, err
	}
	result.Built = built
	result.Stats.BuildTime = time.Since(buildStart)
	result.CacheInfo.BuildHit = built.CacheHit
	if vm := built.View.View; vm != nil {
		result.Stats.Entities = len(vm.Nodes)
		result.Stats.Relations = len(vm.Edges)
	}

	r.Logger.Debug("built view model",
		"source", opts.Source,
		"entities", result.Stats.Entities,
		"relations", result.Stats.Relations,
		"prebuilt", built.View.IsPrebuilt(),
		"cached", built.CacheHit,
		"duration", result.Stats.BuildTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, built.View, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Build normalizes raw and derives its view model, consulting the cache
// unless opts.Refresh is set. Pre-built payloads bypass the cache.
// Errors from normalization (INVALID_PAYLOAD) are returned unchanged.
func (r *Runner) Build(ctx context.Context, raw any, opts Options) (*Built, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}

	hooks := observability.Build()
	hooks.OnBuildStart(ctx, opts.Source)
	start := time.Now()

	built, err := r.build(ctx, raw, opts)

	var summary observability.BuildSummary
	if err == nil {
		summary.Prebuilt = built.View.IsPrebuilt()
		summary.Cached = built.CacheHit
		if vm := built.View.View; vm != nil {
			summary.Entities = len(vm.Nodes)
			summary.Relations = len(vm.Edges)
		}
	}
	hooks.OnBuildComplete(ctx, opts.Source, summary, time.Since(start), err)
	return built, err
}

func (r *Runner) build(ctx context.Context, raw any, opts Options) (*Built, error) {
	if res, ok := raw.(*view.Result); ok && res != nil {
		return &Built{View: res}, nil
	}

	p, err := graph.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if p.IsPrebuilt() {
		return &Built{View: &view.Result{Prebuilt: p.Prebuilt}}, nil
	}

	hash, err := GraphHash(p.Graph)
	if err != nil {
		return nil, err
	}
	built := &Built{Graph: p.Graph, GraphHash: hash}
	key := r.Keyer.ViewKey(hash, opts.ViewKeyOpts())
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var vm view.ViewModel
			if err := json.Unmarshal(data, &vm); err == nil {
				cacheHooks.OnCacheHit(ctx, "view")
				built.View = &view.Result{View: &vm}
				built.CacheHit = true
				return built, nil
			}
			// Undecodable entry - rebuild and overwrite
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		cacheHooks.OnCacheMiss(ctx, "view")
	}

	built.View = &view.Result{View: view.FromGraph(p.Graph, opts.ViewOptions())}

	if data, err := graph.MarshalCompact(built.View.View); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLView); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "view", len(data))
		}
	}
	return built, nil
}

// GraphHash returns the content hash of a canonical graph, including the
// original relation values that view models carry through.
func GraphHash(g *graph.Graph) (string, error) {
	raw := make([][3]any, len(g.Relations))
	for i, rel := range g.Relations {
		raw[i] = rel.Raw
	}
	return cache.HashJSON(struct {
		Graph *graph.Graph `json:"graph"`
		Raw   [][3]any     `json:"raw"`
	}{g, raw})
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *view.Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Build()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, hit, err := r.render(ctx, res, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, hit, err
}

func (r *Runner) render(ctx context.Context, res *view.Result, opts Options) (map[string][]byte, bool, error) {
	viewHash, err := cache.HashJSON(res)
	if err != nil {
		return nil, false, fmt.Errorf("hash view model: %w", err)
	}
	cacheHooks := observability.Cache()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(viewHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				cacheHooks.OnCacheMiss(ctx, "artifact")
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			cacheHooks.OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}

	rendered, err := RenderView(ctx, res, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(viewHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
			continue
		}
		cacheHooks.OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res *view.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return artifacts, err
}

// Input is one payload for [Runner.BuildAll].
type Input struct {
	Source string
	Raw    any
}

// BuildAll builds many payloads concurrently, bounded by GOMAXPROCS.
// Results are returned in input order. The first failure cancels the
// remaining builds.
func (r *Runner) BuildAll(ctx context.Context, inputs []Input, opts Options) ([]*Built, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}

	out := make([]*Built, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o := opts
			o.Source = in.Source
			b, err := r.Build(ctx, in.Raw, o)
			if err != nil {
				return fmt.Errorf("%s: %w", in.Source, err)
			}
			out[i] = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
