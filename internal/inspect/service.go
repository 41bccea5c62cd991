// Package inspect drives the document engine for the mudoc command line:
// single-document inspection, conversion, and catalog indexing.
package inspect

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/observability"
	"github.com/spherical/mudoc/pkg/mudoc"
)

// Service inspects documents with one engine context.
type Service struct {
	engine  *mudoc.Context
	catalog domain.Catalog
	logger  *observability.Logger
}

// NewService creates an inspection service. catalog may be nil when Index is
// not used.
func NewService(engine *mudoc.Context, catalog domain.Catalog, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		engine:  engine,
		catalog: catalog,
		logger:  logger.WithOperation("inspect"),
	}
}

// Open opens path and authenticates with password when the document needs
// one. A rejected password is an invalid input error.
func (s *Service) Open(path, password string) (*mudoc.Document, error) {
	doc, err := s.engine.Open(path)
	if err != nil {
		return nil, err
	}

	needs, err := doc.NeedsPassword()
	if err != nil {
		doc.Close()
		return nil, err
	}
	if needs && password != "" {
		ok, err := doc.Authenticate(password)
		if err != nil {
			doc.Close()
			return nil, err
		}
		if !ok {
			doc.Close()
			return nil, domain.InvalidInputError("password rejected for "+path, nil)
		}
		s.logger.Debug().Str("path", path).Msg("authenticated")
	}
	return doc, nil
}

// Inspect opens path and collects its DocumentInfo.
func (s *Service) Inspect(path, password string) (*domain.DocumentInfo, error) {
	doc, err := s.Open(path, password)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	info, err := doc.Info()
	if err != nil {
		return nil, err
	}

	s.logger.WithDocument(path).Debug().
		Int("pages", info.PageCount).
		Bool("needs_password", info.NeedsPassword).
		Msg("inspected")
	return info, nil
}

// PageBounds returns the bounds of every page of path in order. When
// layout is non-nil the document is reflowed first. onPage, when non-nil, is
// called after each page with the number of pages done and the total. A page
// that fails to load ends the listing with its error.
func (s *Service) PageBounds(path, password string, layout *LayoutOptions, onPage func(done, total int)) ([]domain.Rect, error) {
	doc, err := s.Open(path, password)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if layout != nil {
		if err := doc.Layout(layout.Width, layout.Height, layout.Em); err != nil {
			return nil, err
		}
	}

	it, err := doc.Pages()
	if err != nil {
		return nil, err
	}
	total := it.Len()
	bounds := make([]domain.Rect, 0, total)
	for page, err := range it.Seq() {
		if err != nil {
			return bounds, err
		}
		r, err := page.Bounds()
		page.Close()
		if err != nil {
			return bounds, err
		}
		bounds = append(bounds, r)
		if onPage != nil {
			onPage(len(bounds), total)
		}
	}
	return bounds, nil
}

// LayoutOptions is a reflow viewport.
type LayoutOptions struct {
	Width, Height, Em float32
}

// Layout reflows path into the viewport and returns the resulting page
// count. Documents that are not reflowable keep their page count.
func (s *Service) Layout(path string, opts LayoutOptions) (int, error) {
	doc, err := s.Open(path, "")
	if err != nil {
		return 0, err
	}
	defer doc.Close()

	reflow, err := doc.IsReflowable()
	if err != nil {
		return 0, err
	}
	if !reflow {
		s.logger.WithDocument(path).Warn().Msg("document is not reflowable")
	}
	if err := doc.Layout(opts.Width, opts.Height, opts.Em); err != nil {
		return 0, err
	}
	n, err := doc.PageCount()
	if err != nil {
		return 0, err
	}
	s.logger.WithDocument(path).Debug().
		Float32("width", opts.Width).
		Float32("height", opts.Height).
		Float32("em", opts.Em).
		Msgf("reflowed to %d pages", n)
	return n, nil
}

// ConvertOptions selects the pages and rotation of a conversion.
type ConvertOptions struct {
	Start, End, Rotate int
	Password           string
	// Layout reflows reflowable sources before conversion.
	Layout *LayoutOptions
}

// Convert renders pages of src into a new PDF at dst and returns its page
// count.
func (s *Service) Convert(src, dst string, opts ConvertOptions) (int, error) {
	doc, err := s.Open(src, opts.Password)
	if err != nil {
		return 0, err
	}
	defer doc.Close()

	if opts.Layout != nil {
		reflow, err := doc.IsReflowable()
		if err != nil {
			return 0, err
		}
		if reflow {
			if err := doc.Layout(opts.Layout.Width, opts.Layout.Height, opts.Layout.Em); err != nil {
				return 0, err
			}
		}
	}

	out, err := doc.ConvertToPDF(opts.Start, opts.End, opts.Rotate)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	if err := out.Save(dst); err != nil {
		return 0, err
	}

	n, err := out.PageCount()
	if err != nil {
		return 0, err
	}
	s.logger.WithDocument(src).Info().
		Str("output", dst).
		Int("pages", n).
		Int("rotate", opts.Rotate).
		Msg("converted")
	return n, nil
}

// Discover walks root and returns every file the engine recognizes by name.
func (s *Service) Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := s.engine.Recognize(path)
		if err != nil {
			return err
		}
		if ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, domain.IOError("walk "+root, err)
	}
	return paths, nil
}

// Index inspects every path and saves the results to the catalog. Progress is
// reported on eventCh when it is non-nil. Failures on individual documents
// are reported and counted; Index fails only when nothing could be indexed.
func (s *Service) Index(ctx context.Context, paths []string, eventCh chan<- domain.StreamEvent) (*domain.IndexStats, error) {
	if s.catalog == nil {
		return nil, domain.ConfigError("index needs a catalog", nil)
	}

	startTime := time.Now()
	stats := &domain.IndexStats{}

	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventStart,
		Payload:   len(paths),
		Timestamp: time.Now(),
	})

	for _, path := range paths {
		select {
		case <-ctx.Done():
			s.emitError(eventCh, path, ctx.Err())
			return stats, ctx.Err()
		default:
		}

		s.emitEvent(eventCh, domain.StreamEvent{
			Type:      domain.EventDocumentStart,
			Path:      path,
			Timestamp: time.Now(),
		})

		info, err := s.Inspect(path, "")
		if err == nil {
			err = s.catalog.Save(ctx, info)
		}
		if err != nil {
			s.logger.WithDocument(path).Error().Err(err).Msg("index failed")
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Errorf("%s: %w", path, err))
			s.emitError(eventCh, path, err)
			continue
		}

		if info.NeedsPassword {
			stats.Skipped++
			s.emitEvent(eventCh, domain.StreamEvent{
				Type:      domain.EventDocumentSkipped,
				Path:      path,
				Payload:   "needs password",
				Timestamp: time.Now(),
			})
			continue
		}

		stats.Indexed++
		s.emitEvent(eventCh, domain.StreamEvent{
			Type:      domain.EventDocumentComplete,
			Path:      path,
			Payload:   info,
			Timestamp: time.Now(),
		})
	}

	stats.TotalTime = time.Since(startTime)
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventComplete,
		Payload:   stats,
		Timestamp: time.Now(),
	})

	s.logger.Info().
		Int("indexed", stats.Indexed).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Dur("took", stats.TotalTime).
		Msg("index complete")

	if len(paths) > 0 && stats.Failed == len(paths) {
		return stats, domain.IOError("no document could be indexed", stats.Errors[0])
	}
	return stats, nil
}

// emitEvent emits an event without blocking the indexing loop.
func (s *Service) emitEvent(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh != nil {
		select {
		case eventCh <- event:
		default:
			s.logger.Warn().Str("event", string(event.Type)).Msg("event channel full, dropping event")
		}
	}
}

func (s *Service) emitError(eventCh chan<- domain.StreamEvent, path string, err error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventError,
		Path:      path,
		Payload:   err.Error(),
		Timestamp: time.Now(),
	})
}
