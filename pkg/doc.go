// Package pkg provides the core libraries of kgview.
//
// # Overview
//
// kgview turns knowledge-graph payloads into a deterministic, render-ready
// view model. A payload is a loosely shaped JSON object of entities,
// subject/predicate/object relations and optional entity and edge clusters.
// The view model adds colours, degrees, neighbours, connected components,
// rankings and summary statistics, and is identical for identical input.
//
// # Architecture
//
//	JSON payload
//	     ↓
//	[graph]     decode (key order kept), normalize, sanitize for the API
//	     ↓
//	[view]      build the view model ([color], [collate])
//	     ↓
//	[render]    HTML embedding, SVG to PNG/PDF ([render/nodelink] for DOT and SVG)
//
// [pipeline] runs these stages with a [cache] in front of the build and
// render steps. It is shared by the CLI, the HTTP API and [client].
//
// # Quick Start
//
//	raw, _ := graph.Unmarshal(data)
//	res, err := view.Build(raw)
//	if errors.Is(err, errors.ErrCodeInvalidPayload) {
//	    // not a JSON object
//	}
//	fmt.Println(res.View.Stats.Components)
//
// Render through the pipeline:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	result, _ := runner.Execute(ctx, raw, pipeline.Options{
//	    Formats: []string{pipeline.FormatHTML, pipeline.FormatDOT},
//	})
//	os.WriteFile("graph.html", result.Artifacts[pipeline.FormatHTML], 0o644)
//
// # Main Packages
//
// [graph] - Order-preserving JSON decoding, payload normalization (field
// aliases, relation forms, cluster forms) and the API sanitize transform.
//
// [view] - The graph builder: nodes, edges, clusters, rankings, components,
// isolated entities and statistics.
//
// [color] - Deterministic label colours, with namespaces for edge clusters.
//
// [collate] - Locale-aware, case-insensitive label ordering.
//
// [pipeline] - Load, build and render with caching; batch builds.
//
// [cache] - View and artifact caches (file, Redis, null), content hashing and
// retry with backoff.
//
// [client] - Builds views through a remote API, falling back to local builds.
//
// [examples] - The catalog of bundled example graphs.
//
// [store] - Saved graph snapshots (memory, file, MongoDB).
//
// [observability] - Build, cache and HTTP event hooks.
//
// [errors] - Coded errors shared by all packages.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/graph
// [view]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/view
// [color]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/color
// [collate]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/collate
// [render]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/cache
// [client]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/client
// [examples]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/examples
// [store]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/kgview/pkg/errors
package pkg
