package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/pipeline"
)

// buildOpts holds the flags shared by commands that derive a view model.
type buildOpts struct {
	output  string
	refresh bool
	noCache bool
}

func (o *buildOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "ignore cached view models")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the cache")
}

// registerAPI adds the --api flag, read through the configuration.
func registerAPI(cmd *cobra.Command) {
	cmd.Flags().String("api", "", "kgview API URL to build views remotely")
}

// buildCommand creates the build command, which writes view model JSON.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [file...]",
		Short: "Build the view model of knowledge-graph payloads",
		Long: `Build reads knowledge-graph payloads and writes their view models as JSON.

With a single input (or "-" for stdin) the view model goes to stdout or the
--output file. With several inputs each view is written as <name>.view.json,
next to its input or inside the --output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			popts, err := c.baseOptions()
			if err != nil {
				return err
			}
			popts.Refresh = opts.refresh

			if len(args) == 1 {
				return c.buildOne(cmd, runner, args[0], opts.output, popts)
			}
			return c.buildMany(ctx, runner, args, opts.output, popts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or directory for several inputs")
	opts.register(cmd)
	registerAPI(cmd)
	return cmd
}

func (c *CLI) buildOne(cmd *cobra.Command, runner *pipeline.Runner, path, output string, opts pipeline.Options) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	raw, err := pipeline.Load(path)
	if err != nil {
		return err
	}
	opts.Source = sourceName(path)
	res, err := c.prepare(ctx, runner, raw, opts)
	if err != nil {
		return err
	}
	if output == "" {
		return graph.Write(res, cmd.OutOrStdout())
	}
	if err := graph.WriteFile(output, res); err != nil {
		return err
	}
	prog.done("Built " + opts.Source)
	printFile(output)
	if vm := res.View; vm != nil {
		printStats(vm.Stats.Entities, vm.Stats.Relations, false)
	}
	return nil
}

func (c *CLI) buildMany(ctx context.Context, runner *pipeline.Runner, paths []string, outDir string, opts pipeline.Options) error {
	prog := newProgress(loggerFromContext(ctx))

	inputs := make([]pipeline.Input, 0, len(paths))
	for _, p := range paths {
		if p == "-" {
			return fmt.Errorf("stdin cannot be combined with other inputs")
		}
		raw, err := pipeline.Load(p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		inputs = append(inputs, pipeline.Input{Source: p, Raw: raw})
	}

	built, err := runner.BuildAll(ctx, inputs, opts)
	if err != nil {
		return err
	}

	for i, b := range built {
		out := viewPath(paths[i], outDir)
		if err := graph.WriteFile(out, b.View); err != nil {
			return err
		}
		printFile(out)
	}
	prog.done(fmt.Sprintf("Built %d views", len(built)))
	return nil
}

// viewPath returns where the view of input is written: <stem>.view.json in
// dir, or next to the input when dir is empty.
func viewPath(input, dir string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem(input)+".view.json")
}

// stem returns the file name without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sourceName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}
