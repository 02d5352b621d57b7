// Package nodelink renders view models as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz:
// entities become filled circles in their view-model colour, sized by
// radius, and relations become arrows labelled with their predicate.
//
// # Usage
//
// Convert a view model to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(vm, nodelink.Options{ClusterSubgraphs: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, pass the SVG to [render.ToPDF] or [render.ToPNG].
//
// # Options
//
//   - Detailed: node labels include degree counts and the cluster name
//   - ClusterSubgraphs: entity clusters are drawn as dashed cluster boxes
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
//
// [render.ToPDF]: github.com/matzehuels/kgview/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/kgview/pkg/render.ToPNG
package nodelink
