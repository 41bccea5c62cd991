package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressBar wraps a progressbar instance for page-by-page progress.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a progress bar over total items. It returns nil
// when progress should not be drawn; the methods accept a nil receiver.
func (ui *UI) NewProgressBar(total int64, description string) *ProgressBar {
	if !ui.Interactive() {
		return nil
	}
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionEnableColorCodes(!ui.noColor),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Add advances the bar by n.
func (p *ProgressBar) Add(n int) {
	if p == nil {
		return
	}
	_ = p.bar.Add(n)
}

// Finish completes the bar.
func (p *ProgressBar) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

// Spinner wraps a spinner for operations without measurable progress.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner with the given message. It returns nil when
// progress should not be drawn.
func (ui *UI) NewSpinner(message string) *Spinner {
	if !ui.Interactive() {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	if !ui.noColor {
		_ = s.Color("cyan")
	}
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	if s == nil {
		return
	}
	s.spinner.Start()
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	if s == nil {
		return
	}
	s.spinner.Stop()
}

// IndexProgress tracks a catalog indexing run with a counter bar and a
// failure counter.
type IndexProgress struct {
	p      *mpb.Progress
	done   *mpb.Bar
	failed *mpb.Bar
}

// NewIndexProgress creates progress bars for total documents. It returns nil
// when progress should not be drawn.
func (ui *UI) NewIndexProgress(total int) *IndexProgress {
	if !ui.Interactive() {
		return nil
	}
	p := mpb.New(mpb.WithWidth(48), mpb.WithOutput(os.Stderr))
	done := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("indexed", decor.WC{W: 8, C: decor.DSyncSpaceR}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 8}),
		),
	)
	failed := p.AddBar(int64(total),
		mpb.BarFillerClearOnComplete(),
		mpb.PrependDecorators(
			decor.Name("failed", decor.WC{W: 8, C: decor.DSyncSpaceR}),
			decor.CurrentNoUnit("%d", decor.WCSyncWidth),
		),
	)
	return &IndexProgress{p: p, done: done, failed: failed}
}

// Done records one processed document.
func (ip *IndexProgress) Done(failed bool) {
	if ip == nil {
		return
	}
	ip.done.Increment()
	if failed {
		ip.failed.Increment()
	}
}

// Wait completes both bars and waits for the final render.
func (ip *IndexProgress) Wait() {
	if ip == nil {
		return
	}
	ip.done.SetTotal(-1, true)
	ip.failed.SetTotal(-1, true)
	ip.p.Wait()
}
