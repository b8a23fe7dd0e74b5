// Package log renders terminal progress for factor runs.
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const barWidth = 20

// Progress draws a single-line bar as factors complete. Step may be called from
// concurrent factor jobs.
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	name    string
	total   int
	current int
	start   time.Time
	done    bool
}

// NewProgress returns a bar for total steps written to out. A nil out disables
// drawing but steps are still counted.
func NewProgress(out io.Writer, name string, total int) *Progress {
	return &Progress{
		out:   out,
		name:  name,
		total: total,
		start: time.Now(),
	}
}

// Step advances by one and shows label next to the bar
func (p *Progress) Step(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return
	}
	p.current++

	log.Trace().
		Str("step", label).
		Int("current", p.current).
		Int("total", p.total).
		Msg("Progress")

	p.render(label)
}

// Current returns the number of completed steps
func (p *Progress) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish ends the line with a completion message
func (p *Progress) Finish() {
	p.end(fmt.Sprintf("✅ %s completed (%d items, %v)", p.name, p.total, time.Since(p.start).Round(time.Millisecond)))
}

// Fail ends the line with reason
func (p *Progress) Fail(reason string) {
	p.end(fmt.Sprintf("❌ %s failed: %s (%v)", p.name, reason, time.Since(p.start).Round(time.Millisecond)))
}

func (p *Progress) end(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return
	}
	p.done = true
	if p.out != nil {
		fmt.Fprintf(p.out, "\r\033[K%s\n", msg)
	}
}

func (p *Progress) render(label string) {
	if p.out == nil {
		return
	}

	var b strings.Builder

	// Clear line and return to beginning
	b.WriteString("\r\033[K")
	b.WriteString(p.name)

	if p.total > 0 {
		filled := barWidth * min(p.current, p.total) / p.total
		b.WriteString(" [")
		b.WriteString(strings.Repeat("█", filled))
		b.WriteString(strings.Repeat("░", barWidth-filled))
		fmt.Fprintf(&b, "] %d/%d (%.1f%%)", p.current, p.total, float64(p.current)/float64(p.total)*100)
	}

	if label != "" {
		b.WriteString(" - ")
		b.WriteString(label)
	}

	io.WriteString(p.out, b.String())
}
