// Package render draws ledger views as plain text.
package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"text/tabwriter"

	"quaderno/internal/aggregate"
	"quaderno/internal/core"
)

const defaultBarWidth = 30

// Terminal is a services.Sink that buffers one redraw and writes it to out
// in a single call on Flush.
type Terminal struct {
	mu       sync.Mutex
	out      io.Writer
	buf      *bytes.Buffer
	entries  bool
	barWidth int
}

// NewTerminal returns a sink writing to out. When entries is false,
// RenderEntry calls are ignored and only summaries are drawn.
func NewTerminal(out io.Writer, entries bool) *Terminal {
	return &Terminal{
		out:      out,
		buf:      new(bytes.Buffer),
		entries:  entries,
		barWidth: defaultBarWidth,
	}
}

func (t *Terminal) RenderEntry(r core.Record) {
	if !t.entries {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.buf, "%s  %10s  %s\n", r.DisplayTime, r.Amount.Decimal(), r.Category())
}

func (t *Terminal) RenderDailyTotal(total core.Money) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.buf, "\nToday:    %s\n", total.Decimal())
}

func (t *Terminal) RenderAllTimeTotal(total core.Money) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.buf, "All time: %s\n", total.Decimal())
}

func (t *Terminal) RenderSeriesChart(series []aggregate.DayTotal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(series) == 0 {
		return
	}
	var max int64
	for _, d := range series {
		if d.Total.Cents > max {
			max = d.Total.Cents
		}
	}
	t.buf.WriteString("\nBy day\n")
	for _, d := range series {
		fmt.Fprintf(t.buf, "%s %-*s %s\n", d.Label(), t.barWidth, bar(d.Total.Cents, max, t.barWidth), d.Total.Decimal())
	}
}

func (t *Terminal) RenderCategoryChart(shares []aggregate.CategoryShare) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(shares) == 0 {
		return
	}
	width := 0
	for _, s := range shares {
		if n := len([]rune(s.Name)); n > width {
			width = n
		}
	}
	t.buf.WriteString("\nBy category\n")
	for _, s := range shares {
		pad := width - len([]rune(s.Name))
		fmt.Fprintf(t.buf, "%s%s %s\n", s.Name, strings.Repeat(" ", pad), bar(int64(s.Percentage*100), 100*100, t.barWidth))
	}
}

func (t *Terminal) RenderCategoryTable(shares []aggregate.CategoryShare) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(shares) == 0 {
		return
	}
	t.buf.WriteString("\n")
	tw := tabwriter.NewWriter(t.buf, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Category\tAmount\tShare\t\n")
	for _, s := range shares {
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t\n", s.Name, s.Amount.Decimal(), s.Percentage)
	}
	_ = tw.Flush()
}

// Flush writes the buffered redraw and starts a fresh one.
func (t *Terminal) Flush() error {
	t.mu.Lock()
	frame := t.buf
	t.buf = new(bytes.Buffer)
	t.mu.Unlock()

	if frame.Len() == 0 {
		return nil
	}
	if _, err := t.out.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func bar(v, max int64, width int) string {
	if max <= 0 || v <= 0 || width <= 0 {
		return ""
	}
	var n int
	if v <= math.MaxInt64/int64(width) {
		n = int(v * int64(width) / max)
	} else {
		n = int(float64(v) / float64(max) * float64(width))
	}
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}
