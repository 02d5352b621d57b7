package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kgview/pkg/color"
	"github.com/matzehuels/kgview/pkg/view"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds degree and cluster lines to node labels.
	// When false, only the node label is shown.
	Detailed bool

	// ClusterSubgraphs groups the nodes of each entity cluster in a
	// bordered cluster subgraph.
	ClusterSubgraphs bool
}

// pointsPerInch converts view-model radii (pixels) to Graphviz inches.
const pointsPerInch = 72.0

// ToDOT converts a view model to Graphviz DOT format for node-link visualization.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Nodes and edges carry the view model's colours, node widths scale with
// radius, and edges are labelled with their predicate.
func ToDOT(vm *view.ViewModel, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=false, fontsize=12, penwidth=1.5, color=white];\n")
	buf.WriteString("  edge [fontsize=10, arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	placed := make(map[string]bool)
	if opts.ClusterSubgraphs {
		for i, c := range vm.Clusters {
			var members []view.Node
			for _, n := range vm.Nodes {
				if n.Cluster != nil && *n.Cluster == c.ID {
					members = append(members, n)
				}
			}
			if len(members) == 0 {
				continue
			}
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
			fmt.Fprintf(&buf, "    label=%s;\n", quote(c.Label))
			fmt.Fprintf(&buf, "    color=%s;\n", quote(c.Color))
			buf.WriteString("    style=\"rounded,dashed\";\n")
			for _, n := range members {
				fmt.Fprintf(&buf, "    %s [%s];\n", quote(n.ID), strings.Join(nodeAttrs(n, opts.Detailed), ", "))
				placed[n.ID] = true
			}
			buf.WriteString("  }\n")
		}
	}

	for _, n := range vm.Nodes {
		if placed[n.ID] {
			continue
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range vm.Edges {
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(e.Source), quote(e.Target), strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n view.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}

	parts := []string{fmt.Sprintf("degree: %d (in %d, out %d)", n.Degree, n.Indegree, n.Outdegree)}
	if n.Cluster != nil {
		parts = append(parts, "cluster: "+*n.Cluster)
	}
	return n.Label + "\n" + strings.Join(parts, "\n")
}

func nodeAttrs(n view.Node, detailed bool) []string {
	width := float64(n.Radius*2) / pointsPerInch
	attrs := []string{
		"label=" + quote(fmtLabel(n, detailed)),
		"fillcolor=" + quote(n.Color),
		"fontcolor=" + quote(color.TextOn(n.Color)),
		"width=" + strconv.FormatFloat(width, 'f', 2, 64),
		"tooltip=" + quote(fmt.Sprintf("%s (degree %d)", n.Label, n.Degree)),
	}
	if n.IsRepresentative {
		attrs = append(attrs, "penwidth=3", "color="+quote(n.Color))
	}
	return attrs
}

func edgeAttrs(e view.Edge) []string {
	return []string{
		"id=" + quote(e.ID),
		"label=" + quote(e.Predicate),
		"color=" + quote(e.Color),
		"fontcolor=" + quote(e.Color),
		"tooltip=" + quote(e.Tooltip),
	}
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")

// quote returns s as a DOT double-quoted string.
func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
