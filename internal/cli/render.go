package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgview/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	buildOpts
	formats  string  // comma-separated output formats
	detailed bool    // show degrees and clusters in node labels
	clusters bool    // group clustered entities in DOT subgraphs
	pngScale float64 // rasterization scale for PNG output
	watch    bool    // re-render whenever the input changes
}

// renderCommand creates the render command for writing artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a knowledge graph as HTML, JSON, DOT, SVG, PNG or PDF",
		Long: `Render builds the view model of a payload and writes one file per format,
named <output>.<format>. The output base defaults to the input name.

With --watch the input is rendered again on every change until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			if opts.watch && path == "-" {
				return fmt.Errorf("--watch needs a file, not stdin")
			}

			popts, err := c.baseOptions()
			if err != nil {
				return err
			}
			popts.Refresh = opts.refresh
			popts.Formats = parseFormats(opts.formats)
			popts.Detailed = opts.detailed
			popts.ClusterSubgraphs = opts.clusters
			popts.PNGScale = opts.pngScale
			popts.Source = sourceName(path)
			if err := popts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			base := opts.output
			if base == "" {
				base = stem(path)
				if path == "-" {
					base = "graph"
				}
			}

			if err := renderFile(ctx, runner, path, base, popts); err != nil {
				if !opts.watch {
					return err
				}
				printError("%v", err)
			}
			if !opts.watch {
				return nil
			}

			printInfo("Watching %s", path)
			printNextStep("Stop with", "ctrl+c")
			logger := loggerFromContext(ctx)
			return watchFile(ctx, logger, path, func() error {
				return renderFile(ctx, runner, path, base, popts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input name)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", pipeline.DefaultFormat, "comma-separated formats: html, json, dot, svg, png, pdf")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show degrees and clusters in node labels")
	cmd.Flags().BoolVar(&opts.clusters, "clusters", false, "draw entity clusters as subgraphs")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", 0, "PNG scale factor (default 2)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the input changes")
	cmd.Flags().String("template", "", "HTML template with a <!--DATA--> marker")
	opts.buildOpts.register(cmd)

	return cmd
}

// renderFile runs the pipeline on path and writes base.<format> for every
// requested format.
func renderFile(ctx context.Context, runner *pipeline.Runner, path, base string, opts pipeline.Options) error {
	raw, err := pipeline.Load(path)
	if err != nil {
		return err
	}

	var spin *Spinner
	if slices.Contains(opts.Formats, pipeline.FormatPNG) || slices.Contains(opts.Formats, pipeline.FormatPDF) {
		spin = newSpinnerWithContext(ctx, "Rendering "+sourceName(path))
		spin.Start()
	}
	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.Execute(ctx, raw, opts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	for _, f := range opts.Formats {
		out := base + "." + f
		if err := os.WriteFile(out, result.Artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
	}
	prog.done("Rendered " + sourceName(path))
	for _, f := range opts.Formats {
		printFile(base + "." + f)
	}
	printStats(result.Stats.Entities, result.Stats.Relations, result.CacheInfo.BuildHit)
	return nil
}
