// Package main provides the mudoc command line: inspect, convert and catalog
// documents through the MuPDF engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/mudoc/cmd/mudoc/ui"
	"github.com/spherical/mudoc/internal/catalog"
	"github.com/spherical/mudoc/internal/config"
	"github.com/spherical/mudoc/internal/inspect"
	"github.com/spherical/mudoc/internal/observability"
	"github.com/spherical/mudoc/pkg/mudoc"
)

var version = "dev"

// app holds what the subcommands share. It is filled in by PersistentPreRunE.
type app struct {
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *ui.UI
	engine *mudoc.Context
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

// rootCmd builds the command tree around a. A preset engine is used instead
// of starting one from the config.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mudoc",
		Short: "Inspect and convert documents with MuPDF",
		Long: `mudoc opens PDF, EPUB, XPS, CBZ and the other formats MuPDF handles.

Use this tool to:
- Print page counts, metadata and page sizes
- Reflow EPUB and other reflowable documents
- Convert page ranges to PDF with rotation
- Index document trees into a SQLite or Postgres catalog

All commands support --json for automation.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.engine != nil {
				a.engine.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	root.PersistentFlags().BoolVar(&a.outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newInfoCmd(a),
		newPagesCmd(a),
		newRecognizeCmd(a),
		newConvertCmd(a),
		newLayoutCmd(a),
		newIndexCmd(a),
		newCatalogCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	a.cfg, err = config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := a.cfg.Observability.LogLevel
	if a.verbose {
		level = "debug"
	}
	format := a.cfg.Observability.LogFormat
	if a.outputJSON {
		format = "json"
	}
	a.logger = observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      format,
		Output:      os.Stderr,
		NoColor:     a.noColor,
		ServiceName: "mudoc",
	})
	a.ui = ui.New(a.outputJSON, a.noColor, a.verbose)
	return nil
}

// openEngine creates the engine context on first use so that commands which
// only touch the catalog work without the shim library.
func (a *app) openEngine() (*mudoc.Context, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	engine, err := mudoc.NewContext(mudoc.Options{
		Library:   a.cfg.Engine.Library,
		StoreSize: a.cfg.Engine.StoreSize,
	})
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	a.engine = engine
	a.logger.Debug().Str("library", a.cfg.Engine.Library).Msg("engine started")
	return engine, nil
}

func (a *app) service(cat *catalog.Store) (*inspect.Service, error) {
	engine, err := a.openEngine()
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return inspect.NewService(engine, nil, a.logger), nil
	}
	return inspect.NewService(engine, cat, a.logger), nil
}

func (a *app) openCatalog(ctx context.Context) (*catalog.Store, error) {
	return catalog.Open(ctx, a.cfg.Catalog.Driver, a.cfg.Catalog.DSN, a.logger)
}

func (a *app) layoutOptions() inspect.LayoutOptions {
	return inspect.LayoutOptions{
		Width:  a.cfg.Layout.Width,
		Height: a.cfg.Layout.Height,
		Em:     a.cfg.Layout.Em,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}
