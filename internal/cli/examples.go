package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kgview/pkg/graph"
)

// examplesCommand lists the example catalog or prints one example.
func (c *CLI) examplesCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "examples [slug]",
		Short: "List the example graphs, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := openExamples(dir)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				payload, err := catalog.Load(args[0])
				if err != nil {
					return err
				}
				return graph.Write(payload, cmd.OutOrStdout())
			}

			list := catalog.List()
			rows := make([][]string, len(list))
			for i, ex := range list {
				rows[i] = []string{ex.Slug, ex.Title, ex.WikiURL}
			}
			if _, err := cmd.OutOrStdout().Write([]byte(renderTable([]string{"Slug", "Title", "Wikipedia"}, rows) + "\n")); err != nil {
				return err
			}
			for _, slug := range catalog.Missing() {
				printWarning("%s is listed but its file is missing", slug)
			}
			if len(list) > 0 {
				printNextStep("Render one", appName+" examples "+list[0].Slug+" | "+appName+" render - -o "+list[0].Slug)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory of example graphs (default: built-in)")
	return cmd
}
