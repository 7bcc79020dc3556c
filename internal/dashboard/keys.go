package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the dashboard.
type KeyMap struct {
	// List navigation.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Row actions.
	Open        key.Binding // Open the detail overlay for the cursor row.
	OpenWebsite key.Binding
	OpenCareers key.Binding
	Enrich      key.Binding
	EnrichAll   key.Binding

	// Result set actions.
	Scan         key.Binding // Trigger an ingestion scan.
	Refresh      key.Binding
	ClearFilters key.Binding
	Dismiss      key.Binding // Dismiss the scan failure banner.

	// Filter bar.
	FocusFilters key.Binding
	NextField    key.Binding
	PrevField    key.Binding
	CycleNext    key.Binding // Enum fields: next choice.
	CyclePrev    key.Binding // Enum fields: previous choice.
	Apply        key.Binding // Text fields: apply without waiting.
	Back         key.Binding // Leave the filter bar or close the overlay.

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "details"),
	),
	OpenWebsite: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "website"),
	),
	OpenCareers: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "careers"),
	),
	Enrich: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "enrich"),
	),
	EnrichAll: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "enrich all"),
	),
	Scan: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "scan filings"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	ClearFilters: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear filters"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "dismiss"),
	),
	FocusFilters: key.NewBinding(
		key.WithKeys("/", "tab"),
		key.WithHelp("/", "filters"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-Tab", "prev field"),
	),
	CycleNext: key.NewBinding(
		key.WithKeys("right", " "),
		key.WithHelp("→/Space", "next choice"),
	),
	CyclePrev: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "prev choice"),
	),
	Apply: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "apply"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// listKeys is the help view for the result list.
type listKeys KeyMap

func (k listKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Scan, k.Refresh, k.Enrich, k.FocusFilters, k.Help, k.Quit}
}

func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Open, k.OpenWebsite, k.OpenCareers},
		{k.Scan, k.Refresh, k.Enrich, k.EnrichAll},
		{k.FocusFilters, k.ClearFilters, k.Dismiss, k.Help, k.Quit},
	}
}

// filterKeys is the help view while the filter bar has focus.
type filterKeys KeyMap

func (k filterKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.CycleNext, k.Apply, k.Back}
}

func (k filterKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.NextField, k.PrevField, k.CycleNext, k.CyclePrev, k.Apply, k.Back}}
}

// overlayKeys is the help view while the detail overlay is open.
type overlayKeys KeyMap

func (k overlayKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.OpenWebsite, k.OpenCareers, k.Enrich}
}

func (k overlayKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
