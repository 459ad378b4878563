package ui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
	runewidth "github.com/mattn/go-runewidth"
)

// Table renders rows as space-aligned columns. Widths are measured in terminal
// cells so CJK text and styled cells line up.
type Table struct {
	Headers []string
	Rows    [][]string
	Gap     int
}

func cellWidth(s string) int {
	return runewidth.StringWidth(xansi.Strip(s))
}

func pad(s string, w int) string {
	if n := w - cellWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// String renders the table with a styled header row.
func (t Table) String() string {
	gap := t.Gap
	if gap <= 0 {
		gap = 2
	}
	cols := len(t.Headers)
	for _, r := range t.Rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, c := range row {
			if w := cellWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, r := range t.Rows {
		measure(r)
	}

	var b strings.Builder
	line := func(row []string, header bool) {
		var l strings.Builder
		for i := 0; i < cols; i++ {
			c := ""
			if i < len(row) {
				c = row[i]
			}
			if header {
				c = HeaderStyle().Render(c)
			}
			if i < cols-1 {
				l.WriteString(pad(c, widths[i]+gap))
			} else {
				l.WriteString(c)
			}
		}
		b.WriteString(strings.TrimRight(l.String(), " "))
		b.WriteByte('\n')
	}
	if len(t.Headers) > 0 {
		line(t.Headers, true)
	}
	for _, r := range t.Rows {
		line(r, false)
	}
	return b.String()
}
