// Package console prints user-facing progress lines. Diagnostics go to the
// structured logger instead.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

type Console struct {
	mu   sync.Mutex
	w    io.Writer
	info *color.Color
	ok   *color.Color
	warn *color.Color
	fail *color.Color
}

// New writes to w. Colors are disabled when noColor is set, independent of
// the global color.NoColor detection.
func New(w io.Writer, noColor bool) *Console {
	c := &Console{
		w:    w,
		info: color.New(color.FgCyan),
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
	}
	if noColor {
		for _, col := range []*color.Color{c.info, c.ok, c.warn, c.fail} {
			col.DisableColor()
		}
	}
	return c
}

func (c *Console) Infof(format string, args ...any)  { c.line(c.info, format, args...) }
func (c *Console) Okf(format string, args ...any)    { c.line(c.ok, format, args...) }
func (c *Console) Warnf(format string, args ...any)  { c.line(c.warn, format, args...) }
func (c *Console) Errorf(format string, args ...any) { c.line(c.fail, format, args...) }

func (c *Console) line(col *color.Color, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = col.Fprintln(c.w, fmt.Sprintf(format, args...))
}

// Summary is the per-taxpayer result line.
type Summary struct {
	CIF     string
	Listed  int
	Saved   int
	Skipped int
	Failed  int
	PDFs    int
}

func (c *Console) Summary(s Summary) {
	col := c.ok
	if s.Failed > 0 {
		col = c.warn
	}
	c.line(col, "%s: %d listed, %d saved, %d skipped, %d failed, %d pdf",
		s.CIF, s.Listed, s.Saved, s.Skipped, s.Failed, s.PDFs)
}
