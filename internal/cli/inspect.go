package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kgview/pkg/pipeline"
)

// inspectCommand opens the interactive view model browser.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		opts  buildOpts
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse the stats, clusters and rankings of a graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

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
			popts.Source = sourceName(path)

			raw, err := pipeline.Load(path)
			if err != nil {
				return err
			}
			res, err := c.prepare(ctx, runner, raw, popts)
			if err != nil {
				return err
			}
			vm, err := res.ViewModel()
			if err != nil {
				return err
			}

			// Stdin carries the payload, so there is no keyboard to drive the TUI.
			if plain || path == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), plainView(popts.Source, vm))
				return err
			}
			_, err = tea.NewProgram(NewInspectModel(popts.Source, vm), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print all panels instead of the interactive view")
	opts.register(cmd)
	registerAPI(cmd)
	return cmd
}
