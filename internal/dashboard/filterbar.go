package dashboard

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/discovery-cli/internal/filter"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// fieldLabels are the filter bar labels.
var fieldLabels = map[filter.Field]string{
	filter.City:         "City",
	filter.State:        "State",
	filter.Industry:     "Industry",
	filter.RevenueRange: "Revenue",
	filter.FoundedYear:  "Founded",
	filter.Limit:        "Limit",
	filter.DaysAgo:      "Filed",
	filter.StartupMode:  "Startups",
}

// isText reports whether a field is edited as free text. The others cycle
// through fixed choices.
func isText(f filter.Field) bool {
	switch f {
	case filter.City, filter.State, filter.Industry, filter.FoundedYear:
		return true
	default:
		return false
	}
}

// filterBar is the row of filter inputs. Text fields are buffered in
// inputs until applied; enum fields are read straight from the committed
// filter.
type filterBar struct {
	inputs  map[filter.Field]textinput.Model
	active  int
	focused bool
}

func newFilterBar(f discovery.Filter) filterBar {
	b := filterBar{inputs: make(map[filter.Field]textinput.Model)}
	for _, field := range filter.Fields {
		if !isText(field) {
			continue
		}
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 64
		in.Placeholder = "any"
		in.SetValue(filter.Value(f, field))
		b.inputs[field] = in
	}
	return b
}

func (b filterBar) field() filter.Field {
	return filter.Fields[b.active]
}

func (b *filterBar) focus() tea.Cmd {
	b.focused = true
	return b.syncFocus()
}

func (b *filterBar) blur() {
	b.focused = false
	b.syncFocus()
}

func (b *filterBar) move(delta int) tea.Cmd {
	n := len(filter.Fields)
	b.active = ((b.active+delta)%n + n) % n
	return b.syncFocus()
}

func (b *filterBar) syncFocus() tea.Cmd {
	var cmd tea.Cmd
	for field, in := range b.inputs {
		if b.focused && field == b.field() {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
		b.inputs[field] = in
	}
	return cmd
}

// update routes a key to the active text input. It returns whether the
// value changed.
func (b *filterBar) update(msg tea.KeyMsg) (bool, tea.Cmd) {
	in, ok := b.inputs[b.field()]
	if !ok {
		return false, nil
	}
	before := in.Value()
	in, cmd := in.Update(msg)
	b.inputs[b.field()] = in
	return in.Value() != before, cmd
}

// pending returns the text edits that differ from the committed filter.
func (b filterBar) pending(committed discovery.Filter) filter.Patch {
	p := filter.Patch{}
	for field, in := range b.inputs {
		if in.Value() != filter.Value(committed, field) {
			p[field] = in.Value()
		}
	}
	return p
}

// reset replaces every text input with the committed values.
func (b *filterBar) reset(f discovery.Filter) {
	for field, in := range b.inputs {
		in.SetValue(filter.Value(f, field))
		b.inputs[field] = in
	}
}

// cycle returns the patch that moves an enum field one choice forward or
// back. It returns false for text fields.
func cycle(f discovery.Filter, field filter.Field, forward bool, defaultLimit int) (filter.Patch, bool) {
	step := func(choices []int, cur int) int {
		if forward {
			return filter.Next(choices, cur)
		}
		return filter.Prev(choices, cur)
	}

	switch field {
	case filter.RevenueRange:
		choices := append([]string{""}, discovery.RevenueRanges...)
		var next string
		if forward {
			next = filter.Next(choices, f.RevenueRange)
		} else {
			next = filter.Prev(choices, f.RevenueRange)
		}
		return filter.Patch{field: next}, true
	case filter.Limit:
		cur := f.Limit
		if cur <= 0 {
			cur = defaultLimit
		}
		return filter.Patch{field: strconv.Itoa(step(filter.LimitChoices, cur))}, true
	case filter.DaysAgo:
		next := step(filter.DaysAgoChoices, max(f.DaysAgo, 0))
		if next == 0 {
			return filter.Patch{field: ""}, true
		}
		return filter.Patch{field: strconv.Itoa(next)}, true
	case filter.StartupMode:
		return filter.Patch{field: strconv.FormatBool(!f.StartupMode)}, true
	default:
		return nil, false
	}
}

// enumLabel is the display text of an enum field.
func enumLabel(f discovery.Filter, field filter.Field, defaultLimit int) string {
	switch field {
	case filter.RevenueRange:
		if f.RevenueRange == "" {
			return "any"
		}
		return f.RevenueRange
	case filter.Limit:
		if f.Limit <= 0 {
			return strconv.Itoa(defaultLimit)
		}
		return strconv.Itoa(f.Limit)
	case filter.DaysAgo:
		switch f.DaysAgo {
		case 0:
			return "any time"
		case 1:
			return "last day"
		default:
			return "last " + strconv.Itoa(f.DaysAgo) + " days"
		}
	case filter.StartupMode:
		if f.StartupMode {
			return "on"
		}
		return "off"
	}
	return ""
}

func (b filterBar) view(f discovery.Filter, defaultLimit int, theme Theme, width int) string {
	label := lipgloss.NewStyle().Foreground(theme.FaintText)
	value := lipgloss.NewStyle().Foreground(theme.NormalText)
	active := lipgloss.NewStyle().Foreground(theme.SelectedForeground).Background(theme.SelectedBackground)

	parts := make([]string, 0, len(filter.Fields))
	for i, field := range filter.Fields {
		var text string
		if in, ok := b.inputs[field]; ok {
			in.Width = max(len(in.Value()), len(in.Placeholder))
			text = in.View()
		} else {
			text = "‹" + enumLabel(f, field, defaultLimit) + "›"
		}
		cell := label.Render(fieldLabels[field]+":") + " " + text
		if b.focused && i == b.active {
			cell = active.Render(fieldLabels[field]+":") + " " + text
		} else if !isText(field) {
			cell = label.Render(fieldLabels[field]+":") + " " + value.Render(text)
		}
		parts = append(parts, cell)
	}
	return truncateLine(strings.Join(parts, "  "), width)
}
