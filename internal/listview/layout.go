package listview

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// LinkSeparator sits between link labels in the links cell.
const LinkSeparator = " "

// Gap is the spacing between columns.
const Gap = 2

// maxWidths caps each column so one long value cannot push the rest off
// screen.
var maxWidths = [NumColumns]int{36, 20, 24, 26, 14, 7, 13, 11, 15}

// Layout fixes column widths and offsets for a set of rows so that cells
// can be padded for display and mouse positions mapped back to cells.
type Layout struct {
	Widths  [NumColumns]int
	Offsets [NumColumns]int
}

// NewLayout sizes every column to its widest cell, header included.
func NewLayout(rows []Row) Layout {
	var l Layout
	for c := Column(0); c < NumColumns; c++ {
		l.Widths[c] = ansi.StringWidth(Headers[c])
	}
	for _, r := range rows {
		cells := r.Cells()
		for c, text := range cells {
			if w := ansi.StringWidth(text); w > l.Widths[c] {
				l.Widths[c] = w
			}
		}
	}
	x := 0
	for c := Column(0); c < NumColumns; c++ {
		l.Widths[c] = min(l.Widths[c], maxWidths[c])
		l.Offsets[c] = x
		x += l.Widths[c] + Gap
	}
	return l
}

// Pad truncates or pads s to the width of column c. s may carry ANSI
// styling.
func (l Layout) Pad(c Column, s string) string {
	w := l.Widths[c]
	if ansi.StringWidth(s) > w {
		s = ansi.Truncate(s, w, "…")
	}
	if n := w - ansi.StringWidth(s); n > 0 {
		s += strings.Repeat(" ", n)
	}
	return s
}

// Join pads each cell and joins them into one line.
func (l Layout) Join(cells [NumColumns]string) string {
	var b strings.Builder
	for c := Column(0); c < NumColumns; c++ {
		if c > 0 {
			b.WriteString(strings.Repeat(" ", Gap))
		}
		b.WriteString(l.Pad(c, cells[c]))
	}
	return b.String()
}

// LinkAt returns the link of r under x. Only the label text is
// activatable; the gaps between labels and the placeholder are not.
func (l Layout) LinkAt(r Row, x int) (Link, bool) {
	start := l.Offsets[ColLinks]
	end := start + l.Widths[ColLinks]
	for _, link := range r.Links {
		w := ansi.StringWidth(link.Label())
		if x >= start && x < start+w && x < end {
			return link, true
		}
		start += w + ansi.StringWidth(LinkSeparator)
	}
	return Link{}, false
}
