package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/pterm/pterm"
)

// StepRenderer prints pipeline progress.
type StepRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	format Format

	// Timings appends durations to finished steps.
	Timings bool
}

var _ pipeline.Observer = (*StepRenderer)(nil)

// NewStepRenderer writes progress to out. format must already be resolved.
func NewStepRenderer(out io.Writer, format Format) *StepRenderer {
	return &StepRenderer{out: out, format: format}
}

func (r *StepRenderer) StepStarted(title string, depth int) {
	r.line(depth, symbolStart, startStyle, title)
}

func (r *StepRenderer) StepFinished(o pipeline.Outcome) {
	title := o.Title
	switch o.Status {
	case pipeline.StatusDone:
		if r.Timings {
			title += " " + r.muted(fmt.Sprintf("(%s)", o.Duration.Round(time.Millisecond)))
		}
		r.line(o.Depth, symbolDone, doneStyle, title)
	case pipeline.StatusSkipped:
		title += " " + r.muted("[skipped]")
		if o.Reason != "" {
			title += " " + r.muted(o.Reason)
		}
		r.line(o.Depth, symbolSkipped, skippedStyle, title)
	case pipeline.StatusFailed:
		r.line(o.Depth, symbolFailed, failedStyle, title)
	}
}

func (r *StepRenderer) line(depth int, symbol string, style *pterm.Style, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.format == FormatTerminal {
		symbol = style.Sprint(symbol)
	}
	fmt.Fprintf(r.out, "%s%s %s\n", strings.Repeat("  ", depth), symbol, text)
}

func (r *StepRenderer) muted(s string) string {
	if r.format == FormatTerminal {
		return MutedStyle.Render(s)
	}
	return s
}
