package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgview/internal/config"
	"github.com/matzehuels/kgview/internal/server"
	"github.com/matzehuels/kgview/pkg/examples"
	"github.com/matzehuels/kgview/pkg/store"
)

// snapshotCollection is the MongoDB collection holding saved graphs.
const snapshotCollection = "graphs"

// serveCommand runs the HTTP API until the command context is cancelled.
func (c *CLI) serveCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the kgview HTTP API",
		Long: `Serve runs the HTTP API: view and render endpoints, the example catalog and
saved graph snapshots. It shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.conf()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := openStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			catalog, err := openExamples(cfg.Server.ExamplesDir)
			if err != nil {
				return err
			}
			for _, slug := range catalog.Missing() {
				c.Logger.Warn("example file missing", "slug", slug)
			}

			var tmpl []byte
			if cfg.Template != "" {
				if tmpl, err = os.ReadFile(cfg.Template); err != nil {
					return fmt.Errorf("read template: %w", err)
				}
			}

			srv := server.New(server.Config{
				Runner:          runner,
				Store:           st,
				Examples:        catalog,
				Logger:          c.Logger,
				Template:        tmpl,
				Locale:          cfg.Locale,
				Addr:            cfg.Server.Addr,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				MaxBodyBytes:    cfg.Server.MaxBodyBytes,
			})

			printInfo("Listening on %s", StyleLink.Render("http://"+displayAddr(cfg.Server.Addr)))
			printDetail("cache: %s, store: %s, examples: %d", cfg.Cache.Backend, cfg.Store.Backend, len(catalog.List()))
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8000)")
	cmd.Flags().String("examples", "", "directory of example graphs (default: built-in)")
	cmd.Flags().String("store", "", "snapshot store: memory, file or mongo")
	cmd.Flags().String("store-dir", "", "directory of the file store")
	cmd.Flags().String("mongo-uri", "", "MongoDB URI for the mongo store")
	cmd.Flags().String("template", "", "HTML template with a <!--DATA--> marker")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the cache")
	return cmd
}

// openStore creates the configured snapshot store.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return store.NewFileStore(cfg.Dir)
	case config.BackendMongo:
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, snapshotCollection)
	default:
		return store.NewMemoryStore(), nil
	}
}

// openExamples returns the built-in catalog, or the one in dir.
func openExamples(dir string) (*examples.Catalog, error) {
	if dir == "" {
		return examples.Builtin(), nil
	}
	return examples.OpenDir(dir)
}

// displayAddr turns ":8000" into "localhost:8000".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
