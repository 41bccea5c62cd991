package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/mudoc/cmd/mudoc/ui"
	"github.com/spherical/mudoc/internal/catalog"
	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/inspect"
	"github.com/spherical/mudoc/pkg/mudoc"
)

func formatRect(r domain.Rect) string {
	return fmt.Sprintf("%g x %g pt", r.Width(), r.Height())
}

func (a *app) printInfo(info *domain.DocumentInfo) {
	a.ui.KeyValue("path", info.Path)
	if info.NeedsPassword {
		a.ui.Warning("document is encrypted; pass --password to read its pages")
	} else {
		a.ui.KeyValue("pages", fmt.Sprint(info.PageCount))
		if info.FirstPage != nil {
			a.ui.KeyValue("page size", formatRect(*info.FirstPage))
		}
		a.ui.KeyValue("reflowable", fmt.Sprint(info.Reflowable))
	}
	a.ui.KeyValue("pdf", fmt.Sprint(info.IsPDF))
	for _, name := range mudoc.MetadataNames() {
		if v := info.Meta(name.String()); v != "" {
			a.ui.KeyValue(name.String(), v)
		}
	}
}

func newInfoCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print page count, flags and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(nil)
			if err != nil {
				return err
			}
			info, err := svc.Inspect(args[0], password)
			if err != nil {
				return err
			}
			if a.ui.JSON() {
				return a.ui.PrintJSON(info)
			}
			a.printInfo(info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password for encrypted documents")
	return cmd
}

func newPagesCmd(a *app) *cobra.Command {
	var (
		password string
		reflow   bool
	)

	cmd := &cobra.Command{
		Use:   "pages <file>",
		Short: "List the bounds of every page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(nil)
			if err != nil {
				return err
			}

			var layout *inspect.LayoutOptions
			if reflow {
				opts := a.layoutOptions()
				layout = &opts
			}

			var bar *ui.ProgressBar
			bounds, err := svc.PageBounds(args[0], password, layout, func(done, total int) {
				if done == 1 && total > 1 {
					bar = a.ui.NewProgressBar(int64(total), "loading pages")
				}
				bar.Add(1)
			})
			bar.Finish()
			if err != nil && len(bounds) == 0 {
				return err
			}

			if a.ui.JSON() {
				if jerr := a.ui.PrintJSON(bounds); jerr != nil {
					return jerr
				}
				return err
			}

			rows := make([][]string, 0, len(bounds))
			for i, r := range bounds {
				rows = append(rows, []string{
					fmt.Sprint(i + 1),
					fmt.Sprintf("%g", r.Width()),
					fmt.Sprintf("%g", r.Height()),
					fmt.Sprintf("[%g %g %g %g]", r.X0, r.Y0, r.X1, r.Y1),
				})
			}
			a.ui.Table([]string{"PAGE", "WIDTH", "HEIGHT", "BOX"}, rows)
			if err != nil {
				return fmt.Errorf("page %d: %w", len(bounds)+1, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password for encrypted documents")
	cmd.Flags().BoolVar(&reflow, "reflow", false, "reflow with the configured layout first")
	return cmd
}

func newRecognizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recognize <name-or-mime>...",
		Short: "Check whether the engine handles a file name or MIME type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.openEngine()
			if err != nil {
				return err
			}

			result := make(map[string]bool, len(args))
			for _, magic := range args {
				ok, err := engine.Recognize(magic)
				if err != nil {
					return err
				}
				result[magic] = ok
				if ok {
					a.ui.Success("%s", magic)
				} else {
					a.ui.Error("%s", magic)
				}
			}
			if a.ui.JSON() {
				return a.ui.PrintJSON(result)
			}
			return nil
		},
	}
}

func newConvertCmd(a *app) *cobra.Command {
	var (
		start, end, rotate int
		password           string
		reflow             bool
	)

	cmd := &cobra.Command{
		Use:   "convert <input> <output.pdf>",
		Short: "Convert a page range to PDF",
		Long: `Convert renders pages --start through --end (1-based, inclusive) of the
input into a new PDF. A start after the end writes the pages in reverse.
Pages past the end of the document are clamped to the last page; an end of
0 means the last page.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(nil)
			if err != nil {
				return err
			}

			opts := inspect.ConvertOptions{
				Start:    start - 1,
				End:      end - 1,
				Rotate:   rotate,
				Password: password,
			}
			if reflow {
				layout := a.layoutOptions()
				opts.Layout = &layout
			}

			spin := a.ui.NewSpinner(fmt.Sprintf("converting %s", args[0]))
			spin.Start()
			started := time.Now()
			n, err := svc.Convert(args[0], args[1], opts)
			spin.Stop()
			if err != nil {
				return err
			}

			if a.ui.JSON() {
				return a.ui.PrintJSON(map[string]any{"output": args[1], "pages": n})
			}
			a.ui.Success("wrote %d page(s) to %s in %s", n, args[1], time.Since(started).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVar(&start, "start", 1, "first page (1-based)")
	cmd.Flags().IntVar(&end, "end", 0, "last page (1-based, 0 for the last page)")
	cmd.Flags().IntVar(&rotate, "rotate", 0, "rotation in degrees (multiple of 90)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for encrypted documents")
	cmd.Flags().BoolVar(&reflow, "reflow", false, "reflow reflowable input with the configured layout first")
	return cmd
}

func newLayoutCmd(a *app) *cobra.Command {
	var width, height, em float32

	cmd := &cobra.Command{
		Use:   "layout <file>",
		Short: "Reflow a document and print the resulting page count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(nil)
			if err != nil {
				return err
			}

			opts := a.layoutOptions()
			if cmd.Flags().Changed("width") {
				opts.Width = width
			}
			if cmd.Flags().Changed("height") {
				opts.Height = height
			}
			if cmd.Flags().Changed("em") {
				opts.Em = em
			}

			n, err := svc.Layout(args[0], opts)
			if err != nil {
				return err
			}
			if a.ui.JSON() {
				return a.ui.PrintJSON(map[string]any{
					"width": opts.Width, "height": opts.Height, "em": opts.Em, "pages": n,
				})
			}
			a.ui.Info("%d page(s) at %g x %g pt, %g pt type", n, opts.Width, opts.Height, opts.Em)
			return nil
		},
	}

	cmd.Flags().Float32Var(&width, "width", 0, "page width in points (default from config)")
	cmd.Flags().Float32Var(&height, "height", 0, "page height in points (default from config)")
	cmd.Flags().Float32Var(&em, "em", 0, "base font size in points (default from config)")
	return cmd
}

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index <path>...",
		Short: "Inspect documents and store the results in the catalog",
		Long: `Index inspects every file and, for directories, every file below them
that the engine recognizes by name. Results are saved to the configured
catalog; encrypted documents are recorded without page details.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cat, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cat.Close()

			svc, err := a.service(cat)
			if err != nil {
				return err
			}

			var paths []string
			for _, arg := range args {
				st, err := os.Stat(arg)
				if err != nil {
					return domain.IOError("stat "+arg, err)
				}
				if !st.IsDir() {
					paths = append(paths, arg)
					continue
				}
				found, err := svc.Discover(arg)
				if err != nil {
					return err
				}
				paths = append(paths, found...)
			}
			a.ui.Step("found %d document(s)", len(paths))

			eventCh := make(chan domain.StreamEvent, 100)
			type result struct {
				stats *domain.IndexStats
				err   error
			}
			resultCh := make(chan result, 1)
			go func() {
				stats, err := svc.Index(ctx, paths, eventCh)
				close(eventCh)
				resultCh <- result{stats, err}
			}()

			progress := a.ui.NewIndexProgress(len(paths))
			for event := range eventCh {
				switch event.Type {
				case domain.EventDocumentStart:
					a.ui.Step("%s", event.Path)
				case domain.EventDocumentComplete, domain.EventDocumentSkipped:
					progress.Done(false)
				case domain.EventError:
					progress.Done(true)
					if progress == nil {
						a.ui.Error("%s: %v", event.Path, event.Payload)
					}
				}
			}
			progress.Wait()

			res := <-resultCh
			if res.stats == nil {
				return res.err
			}
			if a.ui.JSON() {
				errs := make([]string, 0, len(res.stats.Errors))
				for _, e := range res.stats.Errors {
					errs = append(errs, e.Error())
				}
				if jerr := a.ui.PrintJSON(map[string]any{
					"indexed": res.stats.Indexed,
					"skipped": res.stats.Skipped,
					"failed":  res.stats.Failed,
					"errors":  errs,
				}); jerr != nil {
					return jerr
				}
				return res.err
			}

			a.ui.Success("indexed %d, skipped %d, failed %d in %s",
				res.stats.Indexed, res.stats.Skipped, res.stats.Failed, res.stats.TotalTime.Round(time.Millisecond))
			return res.err
		},
	}
}

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query the document catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalogued documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cat.Close()

			infos, err := cat.List(cmd.Context())
			if err != nil {
				return err
			}
			if a.ui.JSON() {
				return a.ui.PrintJSON(infos)
			}
			if len(infos) == 0 {
				a.ui.Info("catalog is empty")
				return nil
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				pages := fmt.Sprint(info.PageCount)
				if info.NeedsPassword {
					pages = "locked"
				}
				rows = append(rows, []string{
					info.Path,
					pages,
					info.Meta("format"),
					info.Meta("title"),
					info.InspectedAt.Local().Format(time.DateTime),
				})
			}
			a.ui.Table([]string{"PATH", "PAGES", "FORMAT", "TITLE", "INSPECTED"}, rows)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <path>",
		Short: "Show one catalogued document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cat.Close()

			info, err := cat.GetByPath(cmd.Context(), args[0])
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("%s is not in the catalog", args[0])
			}
			if err != nil {
				return err
			}
			if a.ui.JSON() {
				return a.ui.PrintJSON(info)
			}
			a.ui.KeyValue("id", info.ID)
			a.printInfo(info)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <path>...",
		Aliases: []string{"remove"},
		Short:   "Remove documents from the catalog",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cat.Close()

			var missing []string
			for _, path := range args {
				err := cat.Delete(cmd.Context(), path)
				if errors.Is(err, catalog.ErrNotFound) {
					missing = append(missing, path)
					continue
				}
				if err != nil {
					return err
				}
				a.ui.Success("removed %s", path)
			}
			if len(missing) > 0 {
				return fmt.Errorf("not in the catalog: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	})

	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.ui.JSON() {
				return a.ui.PrintJSON(map[string]string{
					"version": version,
					"go":      runtime.Version(),
					"os":      runtime.GOOS + "/" + runtime.GOARCH,
				})
			}
			fmt.Fprintf(a.ui.Out, "mudoc %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
