// Package render turns view models into shareable artifacts.
//
// # HTML
//
// [HTML] embeds a view model into a visualization template at the
// <!--DATA--> marker. The JSON is indented and any literal </script> is
// escaped so the payload cannot terminate the surrounding script element:
//
//	page, err := render.HTML(render.DefaultTemplate(), vm)
//
// [DefaultTemplate] returns the template compiled into the binary. Callers
// serving their own template pass its bytes instead.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert SVG output of the [nodelink]
// renderer using the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/kgview/pkg/render/nodelink
package render
