package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/pipeline"
)

// sanitizeCommand prints a payload the way it is posted to the API.
func (c *CLI) sanitizeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sanitize [file]",
		Short: "Print the payload as sent to the view API",
		Long: `Sanitize rewrites the entity and edge clusters of a payload as plain
objects of representative to members, the shape the view API accepts. All
other fields are copied unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := pipeline.Load(path)
			if err != nil {
				return err
			}
			out := graph.SanitizeForBackend(raw)
			if output == "" {
				return graph.Write(out, cmd.OutOrStdout())
			}
			if err := graph.WriteFile(output, out); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
