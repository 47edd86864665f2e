package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"

	"github.com/jmagar/vodgrab/internal/helpers"
	"github.com/jmagar/vodgrab/internal/model"
)

// DefaultProgressRenderInterval is the minimum time between progress bar redraws.
const DefaultProgressRenderInterval = 100 * time.Millisecond

const (
	maxBarWidth = 40
	minBarWidth = 10
)

// Unit selects how progress counts are displayed.
type Unit int

const (
	UnitBytes Unit = iota
	UnitSegments
)

// UnitFor returns the display unit of a fetch plan.
func UnitFor(kind model.PlanKind) Unit {
	if kind == model.PlanSegmented {
		return UnitSegments
	}
	return UnitBytes
}

// ProgressBar renders download progress as "[bar] done / total ETA: x".
// On a terminal it redraws one line in place; otherwise it writes a single
// summary line on Finish.
type ProgressBar struct {
	mu       sync.Mutex
	out      io.Writer
	unit     Unit
	live     bool
	bar      progress.Model
	interval time.Duration
	now      func() time.Time

	start    time.Time
	last     time.Time
	state    model.DownloadProgress
	finished bool
}

// NewProgressBar returns a bar writing to out. live enables in-place redraws.
func NewProgressBar(out io.Writer, unit Unit, live bool) *ProgressBar {
	width := min(maxBarWidth, max(minBarWidth, GetTermWidth()-45))
	return &ProgressBar{
		out:      out,
		unit:     unit,
		live:     live,
		interval: DefaultProgressRenderInterval,
		now:      time.Now,
		bar: progress.New(
			progress.WithSolidFill(BarColor()),
			progress.WithWidth(width),
			progress.WithoutPercentage(),
		),
	}
}

// SetTotal announces the number of units expected.
func (p *ProgressBar) SetTotal(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startOnce()
	p.state.Total = total
	p.renderLocked(true)
}

// Advance records n more completed units.
func (p *ProgressBar) Advance(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startOnce()
	p.state.Completed += n
	p.renderLocked(false)
}

// Finish draws the final state and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.startOnce()
	if p.live {
		fmt.Fprintf(p.out, "\r%s\n", p.lineLocked())
		return
	}
	fmt.Fprintln(p.out, p.lineLocked())
}

// Snapshot returns the current progress counters.
func (p *ProgressBar) Snapshot() model.DownloadProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *ProgressBar) startOnce() {
	if p.start.IsZero() {
		p.start = p.now()
	}
}

func (p *ProgressBar) renderLocked(force bool) {
	if !p.live || p.finished {
		return
	}
	now := p.now()
	if !force && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	fmt.Fprintf(p.out, "\r%s", p.lineLocked())
}

func (p *ProgressBar) lineLocked() string {
	var b strings.Builder
	if p.state.Total > 0 {
		b.WriteString("[")
		b.WriteString(p.bar.ViewAs(p.state.Percent()))
		b.WriteString("] ")
		b.WriteString(p.formatCount(p.state.Completed))
		b.WriteString(" / ")
		b.WriteString(p.formatCount(p.state.Total))
		b.WriteString("  ETA: ")
		b.WriteString(p.etaLocked())
		return b.String()
	}
	b.WriteString(SymbolDownload)
	b.WriteString(" ")
	b.WriteString(p.formatCount(p.state.Completed))
	b.WriteString("  elapsed: ")
	b.WriteString(helpers.FormatElapsed(p.now().Sub(p.start)))
	return b.String()
}

func (p *ProgressBar) formatCount(n int64) string {
	if p.unit == UnitSegments {
		return fmt.Sprintf("%d seg", n)
	}
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func (p *ProgressBar) etaLocked() string {
	done, total := p.state.Completed, p.state.Total
	if done >= total {
		return helpers.FormatElapsed(0)
	}
	if done <= 0 {
		return "--"
	}
	elapsed := p.now().Sub(p.start)
	remaining := time.Duration(float64(elapsed) * float64(total-done) / float64(done))
	return helpers.FormatElapsed(remaining)
}
