// Package view derives render-ready view models from knowledge graphs.
//
// A view model decorates a canonical [graph.Graph] with everything a
// visualization needs: per-node degree metrics and neighbor lists, edge
// tooltips, cluster views, deterministic colours, connected components,
// top-N rankings and summary statistics.
//
// # Building
//
//	res, err := view.Build(raw)            // raw decoded JSON payload
//	vm := view.FromGraph(g, view.Options{}) // canonical graph
//
// [Build] normalizes its input with [graph.Normalize]. Payloads that are
// already view models, including a [*Result] or [*ViewModel] returned by an
// earlier call, are passed through without recomputation.
//
// # Ordering
//
// Entities, cluster members, neighbors and components are sorted with a
// locale-aware case-insensitive comparator (see package collate). The locale
// defaults to en-US and is set per build through [Options.Locale].
//
// # Concurrency
//
// Builds share no state. [Build] and [FromGraph] are safe to call from many
// goroutines at once. A returned view model must not be mutated.
package view
