// Package progress renders single-line progress on stderr while a scenario
// walks its required call sequence.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const barWidth = 40

// SequenceBar shows how much of a required call sequence has been seen.
type SequenceBar struct {
	total      int
	matched    int
	last       string
	label      string
	startTime  time.Time
	lastRender time.Time
	throttle   time.Duration
	output     io.Writer
	enabled    bool
}

// NewSequenceBar creates a bar for total required calls.
func NewSequenceBar(total int, label string) *SequenceBar {
	return &SequenceBar{
		total:     total,
		label:     label,
		startTime: time.Now(),
		throttle:  100 * time.Millisecond,
		output:    os.Stderr,
		enabled:   true,
	}
}

// SetOutput redirects rendering.
func (b *SequenceBar) SetOutput(w io.Writer) { b.output = w }

// Disable turns rendering off.
func (b *SequenceBar) Disable() { b.enabled = false }

// Enable turns rendering on.
func (b *SequenceBar) Enable() { b.enabled = true }

// Set records that matched calls have been seen, the latest being call.
func (b *SequenceBar) Set(matched int, call string) {
	if matched > b.total {
		matched = b.total
	}
	b.matched = matched
	if call != "" {
		b.last = call
	}
	b.render(false)
}

// Line returns the current progress line without a carriage return.
func (b *SequenceBar) Line() string {
	var percent float64
	if b.total > 0 {
		percent = float64(b.matched) / float64(b.total) * 100
	}
	filled := 0
	if b.total > 0 {
		filled = barWidth * b.matched / b.total
	}

	var bar strings.Builder
	bar.WriteString(strings.Repeat("=", filled))
	if filled < barWidth {
		bar.WriteByte('>')
		bar.WriteString(strings.Repeat("-", barWidth-filled-1))
	}

	line := fmt.Sprintf("[%s] %d/%d (%.1f%%)", bar.String(), b.matched, b.total, percent)
	if b.label != "" {
		line = b.label + " " + line
	}
	if b.last != "" {
		line += " | " + b.last
	}
	return line + " | Elapsed: " + formatDuration(time.Since(b.startTime))
}

func (b *SequenceBar) render(force bool) {
	if !b.enabled {
		return
	}
	now := time.Now()
	if !force && now.Sub(b.lastRender) < b.throttle && b.matched < b.total {
		return
	}
	b.lastRender = now
	fmt.Fprint(b.output, "\r"+b.Line())
}

// Finish draws the final state and ends the line.
func (b *SequenceBar) Finish() {
	if !b.enabled {
		return
	}
	b.render(true)
	fmt.Fprint(b.output, "\n")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// FrameCounter prints a running count of frames at most once per interval.
type FrameCounter struct {
	output     io.Writer
	enabled    bool
	label      string
	lastUpdate time.Time
	interval   time.Duration
}

// NewFrameCounter creates a counter that redraws at most every interval.
func NewFrameCounter(label string, interval time.Duration) *FrameCounter {
	return &FrameCounter{
		output:   os.Stderr,
		enabled:  true,
		label:    label,
		interval: interval,
	}
}

// Update redraws the counter with tx and rx frame counts.
func (c *FrameCounter) Update(tx, rx int, message string) {
	if !c.enabled {
		return
	}
	now := time.Now()
	if now.Sub(c.lastUpdate) < c.interval {
		return
	}
	c.lastUpdate = now

	line := fmt.Sprintf("\r%d tx / %d rx frames", tx, rx)
	if c.label != "" {
		line = fmt.Sprintf("\r%s: %d tx / %d rx frames", c.label, tx, rx)
	}
	if message != "" {
		line += " | " + message
	}
	fmt.Fprint(c.output, line)
}

// Finish draws the final counts regardless of the interval and ends the line.
func (c *FrameCounter) Finish(tx, rx int, message string) {
	if !c.enabled {
		return
	}
	c.lastUpdate = time.Time{}
	c.Update(tx, rx, message)
	fmt.Fprint(c.output, "\n")
}
