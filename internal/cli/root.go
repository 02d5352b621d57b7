package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgview/internal/config"
	"github.com/matzehuels/kgview/pkg/buildinfo"
	"github.com/matzehuels/kgview/pkg/observability"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Before any subcommand runs, configuration is loaded from defaults, the
// config file, KGVIEW_* variables and the flags that were set, the logger
// level is adjusted, and log hooks are installed for pipeline events.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "kgview turns knowledge-graph payloads into explorable views",
		Long: `kgview normalizes knowledge-graph payloads (entities, subject/predicate/object
relations, entity and edge clusters) into a deterministic view model with
colours, degrees, components and rankings, and renders it as HTML, DOT, SVG,
PNG or PDF.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			c.Config = cfg
			c.SetLogLevel(parseLevel(cfg.Level()))
			if cfg.File != "" {
				c.Logger.Debug("loaded config", "file", cfg.File)
			}
			observability.NewLogHooks(c.Logger).Install()
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ./kgview.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("locale", "", "locale for label ordering (default en-US)")
	root.PersistentFlags().String("cache", "", "cache backend: none, file or redis")
	root.PersistentFlags().String("cache-dir", "", "directory of the file cache")
	root.PersistentFlags().String("redis-url", "", "redis URL for the redis cache")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.sanitizeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.examplesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Execute runs the CLI with ctx, which is cancelled on interrupt by main.
func (c *CLI) Execute(ctx context.Context) error {
	return c.RootCommand().ExecuteContext(ctx)
}
