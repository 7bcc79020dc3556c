package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/sells-group/discovery-cli/internal/controller"
	"github.com/sells-group/discovery-cli/internal/detail"
	"github.com/sells-group/discovery-cli/internal/intel"
	"github.com/sells-group/discovery-cli/internal/listview"
)

const (
	title        = "Form D Discovery"
	closeLabel   = "[ close ]"
	overlayWidth = 78
	labelWidth   = 15

	fallbackWidth  = 80
	fallbackHeight = 40
)

// View implements tea.Model.
func (m Model) View() string {
	lines := []string{
		m.titleLine(),
		m.bar.view(m.ctrl.Filter(), m.opts.DefaultLimit, m.theme, m.width),
	}
	lines = append(lines, m.banners()...)
	lines = append(lines, m.listLines()...)

	footer := strings.Split(m.helpView(), "\n")
	for m.height > 0 && len(lines) < m.height-len(footer) {
		lines = append(lines, "")
	}
	lines = append(lines, footer...)

	view := strings.Join(lines, "\n")
	if box, ok := m.overlayBox(); ok {
		view = spliceOverlay(view, box.lines, box.x, box.y)
	}
	return view
}

func (m Model) titleLine() string {
	head := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground).Render(title)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	var status []string
	if m.ctrl.State() == controller.Loading {
		status = append(status, m.spinner.View()+" Loading…")
	}
	if m.ctrl.Ingesting() {
		status = append(status, m.spinner.View()+" Scanning filings…")
	}
	if m.ctrl.Loaded() {
		status = append(status, humanize.Comma(int64(len(m.rows)))+" companies")
		status = append(status, "updated "+humanize.RelTime(m.ctrl.UpdatedAt(), m.opts.Now(), "ago", "from now"))
	}
	if n := len(m.watch); n > 0 {
		status = append(status, fmt.Sprintf("%d enriching", n))
	}
	if len(status) == 0 {
		return truncateLine(head, m.width)
	}
	return truncateLine(head+"  "+faint.Render(strings.Join(status, " · ")), m.width)
}

// banners are the one-line messages between the filter bar and the list.
// The list error and the scan error are shown separately.
func (m Model) banners() []string {
	errStyle := lipgloss.NewStyle().Foreground(m.theme.ErrorForeground).Background(m.theme.ErrorBackground)
	var out []string
	if m.ctrl.State() == controller.Failed && m.ctrl.Err() != nil {
		out = append(out, truncateLine(errStyle.Render(fmt.Sprintf(" Could not load companies: %v (r to retry) ", m.ctrl.Err())), m.width))
	}
	if err := m.ctrl.IngestErr(); err != nil {
		out = append(out, truncateLine(errStyle.Render(fmt.Sprintf(" Scan failed: %v (d to dismiss) ", err)), m.width))
	}
	if m.notice != "" {
		out = append(out, truncateLine(lipgloss.NewStyle().Foreground(m.theme.NoticeForeground).Render(m.notice), m.width))
	}
	return out
}

// listTop is the screen row of the first company row.
func (m Model) listTop() int {
	return 2 + len(m.banners()) + 1
}

func (m Model) visibleRows() int {
	if m.height <= 0 {
		return max(len(m.rows), 1)
	}
	footer := lipgloss.Height(m.helpView())
	return max(m.height-m.listTop()-footer, 1)
}

func (m Model) listLines() []string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	if !m.ctrl.Loaded() {
		if m.ctrl.State() == controller.Loading {
			return []string{faint.Render("Loading companies…")}
		}
		return []string{""}
	}
	if len(m.rows) == 0 {
		return []string{faint.Render(listview.EmptyMessage)}
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
	lines := []string{truncateLine(header.Render(m.layout.Join(listview.Headers)), m.width)}

	end := min(m.offset+m.visibleRows(), len(m.rows))
	for i := m.offset; i < end; i++ {
		lines = append(lines, truncateLine(m.rowLine(m.rows[i], i == m.cursor), m.width))
	}
	return lines
}

func (m Model) rowLine(r listview.Row, selected bool) string {
	if selected {
		style := lipgloss.NewStyle().
			Foreground(m.theme.SelectedForeground).
			Background(m.theme.SelectedBackground)
		return style.Render(m.layout.Join(r.Cells()))
	}

	cells := r.Cells()
	normal := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	for c := range cells {
		cells[c] = normal.Render(cells[c])
	}
	cells[listview.ColStatus] = lipgloss.NewStyle().
		Foreground(m.theme.StatusColor(r.Status)).
		Render(listview.Badge(r.Status))
	cells[listview.ColLinks] = m.linksCell(r)
	return m.layout.Join(cells)
}

func (m Model) linksCell(r listview.Row) string {
	if len(r.Links) == 0 {
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(listview.NoLinks)
	}
	parts := make([]string, len(r.Links))
	for i, l := range r.Links {
		color := m.theme.WebsiteLink
		if l.Kind == listview.Careers {
			color = m.theme.CareersLink
		}
		parts[i] = lipgloss.NewStyle().Foreground(color).Underline(true).Render(l.Label())
	}
	return strings.Join(parts, listview.LinkSeparator)
}

func (m Model) helpView() string {
	var keys help.KeyMap = listKeys(m.keys)
	switch {
	case m.overlay.Mounted():
		keys = overlayKeys(m.keys)
	case m.focus == focusFilters:
		keys = filterKeys(m.keys)
	}
	return m.help.View(keys)
}

// Overlay.

type linkHit struct {
	link       listview.Link
	start, end int
}

// overlayBox is the rendered detail overlay and its screen geometry.
type overlayBox struct {
	x, y, w, h int
	lines      []string

	links   map[int]linkHit // by screen row, x in screen columns
	closeY  int
	closeX0 int
	closeX1 int
}

func (b overlayBox) contains(x, y int) bool {
	return x >= b.x && x < b.x+b.w && y >= b.y && y < b.y+b.h
}

func (b overlayBox) onClose(x, y int) bool {
	return y == b.closeY && x >= b.closeX0 && x < b.closeX1
}

func (b overlayBox) linkAt(x, y int) (listview.Link, bool) {
	hit, ok := b.links[y]
	if !ok || x < hit.start || x >= hit.end {
		return listview.Link{}, false
	}
	return hit.link, true
}

func (m Model) overlayBox() (overlayBox, bool) {
	c, ok := m.overlay.Subject()
	if !ok || !m.overlay.Mounted() {
		return overlayBox{}, false
	}
	width, height := m.width, m.height
	if width <= 0 {
		width = fallbackWidth
	}
	if height <= 0 {
		height = fallbackHeight
	}

	w := min(overlayWidth, width)
	inner := max(w-4, len(closeLabel)+1)
	content, hits := m.detailLines(detail.Project(c), inner)
	if limit := max(height-2, 1); len(content) > limit {
		content = content[:limit]
	}
	for i := range content {
		content[i] = fitLine(content[i], inner)
	}

	border := m.theme.FocusBorder
	if m.overlay.Phase() != detail.Open {
		border = m.theme.BorderColor
	}
	rendered := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(strings.Join(content, "\n"))

	b := overlayBox{
		lines: strings.Split(rendered, "\n"),
		w:     lipgloss.Width(rendered),
		h:     lipgloss.Height(rendered),
		links: make(map[int]linkHit),
	}
	b.x = max((width-b.w)/2, 0)
	b.y = max((height-b.h)/2, 0)

	// Content starts one row below the border and two columns in.
	left, top := b.x+2, b.y+1
	for i, hit := range hits {
		if i >= len(content) {
			continue
		}
		b.links[top+i] = linkHit{link: hit.link, start: left + hit.start, end: left + min(hit.end, inner)}
	}
	b.closeY = top
	b.closeX1 = left + inner
	b.closeX0 = b.closeX1 - len(closeLabel)
	return b, true
}

// detailLines renders the overlay content, one entry per line, with link
// positions keyed by line index.
func (m Model) detailLines(d detail.Detail, inner int) ([]string, map[int]linkHit) {
	bold := lipgloss.NewStyle().Bold(true).Foreground(m.theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	label := func(s string) string { return faint.Render(fmt.Sprintf("%-*s", labelWidth, s)) }

	name := ansi.Truncate(d.Name, inner-len(closeLabel)-1, "…")
	gap := inner - ansi.StringWidth(name) - len(closeLabel)
	lines := []string{
		bold.Render(name) + strings.Repeat(" ", max(gap, 1)) + faint.Render(closeLabel),
		label("CIK") + normal.Render(d.CIK) + "  " +
			lipgloss.NewStyle().Foreground(m.theme.StatusColor(d.Status)).Render(d.Badge),
		"",
	}
	for _, f := range d.Fields {
		lines = append(lines, label(f.Label)+normal.Render(f.Value))
	}

	hits := make(map[int]linkHit)
	if len(d.Links) == 0 {
		lines = append(lines, label("Links")+faint.Render(listview.NoLinks))
	}
	for _, l := range d.Links {
		text, color := "Visit Website →", m.theme.WebsiteLink
		if l.Kind == listview.Careers {
			text, color = "View Careers Page →", m.theme.CareersLink
		}
		hits[len(lines)] = linkHit{link: l, start: labelWidth, end: labelWidth + ansi.StringWidth(text)}
		lines = append(lines, label(l.Label())+lipgloss.NewStyle().Foreground(color).Underline(true).Render(text))
	}

	if d.HasIntel {
		lines = append(lines, "")
		lines = append(lines, m.intelLines(d.Intel, inner)...)
	}
	return lines, hits
}

func (m Model) intelLines(card intel.Card, inner int) []string {
	bold := lipgloss.NewStyle().Bold(true).Foreground(m.theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	accent := lipgloss.NewStyle().Foreground(m.theme.Accent)

	head := bold.Render("Design Intelligence")
	if card.Stage != "" {
		head += "  " + accent.Render(card.Stage)
	}
	lines := []string{head, faint.Render("Engagement Strategy")}
	lines = append(lines, wrap(`"`+card.Recommendation+`"`, inner)...)

	lines = append(lines, faint.Render("Bottlenecks"))
	for _, b := range card.Bottlenecks {
		lines = append(lines, wrap("• "+b, inner)...)
	}

	var meta []string
	if card.HiringVelocity != "" {
		meta = append(meta, faint.Render("Hiring: ")+card.HiringVelocity)
	}
	if card.PresenceScore != "" {
		meta = append(meta, faint.Render("Web Presence: ")+card.PresenceScore)
	}
	if card.Priority != "" {
		priority := card.Priority
		if card.Emphasized() {
			priority = lipgloss.NewStyle().Bold(true).Foreground(m.theme.PriorityHigh).Render(priority)
		}
		meta = append(meta, faint.Render("Priority: ")+priority)
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, "   "))
	}

	if card.FounderInsights != "" {
		lines = append(lines, faint.Render("Founder Insights"))
		lines = append(lines, wrap(card.FounderInsights, inner)...)
	}
	if card.MarketPositioning != "" {
		lines = append(lines, faint.Render("Market Positioning"))
		lines = append(lines, wrap(card.MarketPositioning, inner)...)
	}
	if len(card.Opportunities) > 0 {
		lines = append(lines, faint.Render("AI Design Opportunities"))
		for _, o := range card.Opportunities {
			lines = append(lines, wrap("• "+o, inner)...)
		}
	}
	if len(card.KeyQuestions) > 0 {
		lines = append(lines, faint.Render("Key Questions"))
		for _, q := range card.KeyQuestions {
			lines = append(lines, wrap("? "+q, inner)...)
		}
	}
	return lines
}

func wrap(s string, width int) []string {
	return strings.Split(ansi.Wrap(s, width, ""), "\n")
}

// fitLine truncates or pads s to exactly width columns.
func fitLine(s string, width int) string {
	s = truncateLine(s, width)
	if n := width - ansi.StringWidth(s); n > 0 {
		s += strings.Repeat(" ", n)
	}
	return s
}

// truncateLine cuts s to width columns. A non-positive width leaves s
// untouched.
func truncateLine(s string, width int) string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "")
}

// spliceOverlay replaces a rectangle of view with the overlay lines,
// anchored at (x, y). Styling on both sides of the overlay is kept.
func spliceOverlay(view string, overlay []string, x, y int) string {
	if len(overlay) == 0 {
		return view
	}
	lines := strings.Split(view, "\n")
	width := ansi.StringWidth(overlay[0])

	for i, ol := range overlay {
		row := y + i
		if row < 0 || row >= len(lines) {
			continue
		}
		line := lines[row]
		lineWidth := ansi.StringWidth(line)

		var b strings.Builder
		if x > 0 {
			prefix := ansi.Truncate(line, x, "")
			b.WriteString(prefix)
			if n := x - ansi.StringWidth(prefix); n > 0 {
				b.WriteString(strings.Repeat(" ", n))
			}
		}
		b.WriteString("\x1b[0m")
		b.WriteString(ol)
		b.WriteString("\x1b[0m")
		if end := x + width; end < lineWidth {
			b.WriteString(ansi.TruncateLeft(line, end, ""))
		}
		lines[row] = b.String()
	}
	return strings.Join(lines, "\n")
}
