package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/render"
	"github.com/matzehuels/kgview/pkg/render/nodelink"
	"github.com/matzehuels/kgview/pkg/view"
)

// RenderView generates output artifacts in the requested formats.
// Options must have been validated with [Options.ValidateForRender].
func RenderView(ctx context.Context, res *view.Result, opts Options) (map[string][]byte, error) {
	var dot string
	if opts.NeedsDOT() {
		vm, err := res.ViewModel()
		if err != nil {
			return nil, fmt.Errorf("decode view model: %w", err)
		}
		dot = nodelink.ToDOT(vm, nodelink.Options{
			Detailed:         opts.Detailed,
			ClusterSubgraphs: opts.ClusterSubgraphs,
		})
	}

	var svg []byte
	if slices.ContainsFunc(opts.Formats, needsSVG) {
		var err error
		if svg, err = nodelink.RenderSVG(ctx, dot); err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatHTML:
			tmpl := opts.Template
			if len(tmpl) == 0 {
				tmpl = render.DefaultTemplate()
			}
			data, err = render.HTML(tmpl, res)
		case FormatJSON:
			data, err = graph.Marshal(res)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data = svg
		case FormatPNG:
			data, err = render.ToPNG(ctx, svg, opts.PNGScale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, svg)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func needsSVG(format string) bool {
	return format == FormatSVG || format == FormatPNG || format == FormatPDF
}
