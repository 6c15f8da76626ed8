package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar draws a single carriage-return line. Progress matches the
// shape of a batch progress callback so it can be handed to the converter
// directly.
type ProgressBar struct {
	startTime time.Time
	mu        sync.Mutex
	out       io.Writer
	label     string
	total     int
	current   int
	width     int
	complete  bool
}

func NewProgressBar(out io.Writer, total int, label string) *ProgressBar {
	return &ProgressBar{
		out:       out,
		total:     total,
		width:     40,
		label:     label,
		startTime: time.Now(),
	}
}

// Progress sets the bar to done out of total. total may change between
// calls; the bar never moves backwards.
func (p *ProgressBar) Progress(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total > 0 {
		p.total = total
	}
	if done > p.total {
		done = p.total
	}
	if done < p.current {
		return
	}
	p.current = done

	p.render()
}

// Complete finishes the line. The bar is left where it stopped, so a
// cancelled batch shows how far it got.
func (p *ProgressBar) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.complete {
		return
	}

	p.render()
	p.complete = true
	fmt.Fprintln(p.out)
}

func (p *ProgressBar) render() {
	if p.complete || p.total <= 0 {
		return
	}

	percent := float64(p.current) / float64(p.total) * 100
	filled := p.width * p.current / p.total

	elapsed := time.Since(p.startTime)
	var eta time.Duration
	if p.current > 0 {
		eta = time.Duration(float64(elapsed) * float64(p.total-p.current) / float64(p.current))
	}

	fmt.Fprintf(p.out, "\r%s [%s%s] %3.0f%% %d/%d ETA: %s ",
		p.label,
		strings.Repeat("█", filled),
		strings.Repeat("░", p.width-filled),
		percent,
		p.current,
		p.total,
		FormatDuration(eta),
	)
}

func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
