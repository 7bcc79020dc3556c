// Package dashboard is the interactive terminal dashboard: a filter bar, the
// company list, and the company detail overlay, driven by the result
// controller.
//
// All state lives in Model and is only touched from Update. Network calls
// run inside tea.Cmd functions and report back as messages; list results
// carry the generation they were issued with so the controller can drop
// stale ones.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/discovery-cli/internal/controller"
	"github.com/sells-group/discovery-cli/internal/detail"
	"github.com/sells-group/discovery-cli/internal/filter"
	"github.com/sells-group/discovery-cli/internal/listview"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

const (
	noticeDuration = 4 * time.Second
	clockInterval  = time.Second
)

// API is the part of the discovery client the dashboard uses.
type API interface {
	controller.API
	TriggerEnrichOne(ctx context.Context, companyID int) (*discovery.EnrichResponse, error)
	TriggerEnrichAll(ctx context.Context) (*discovery.EnrichAllResponse, error)
	EnrichmentStatus(ctx context.Context, companyID int) (*discovery.StatusResponse, error)
}

// Options configures the dashboard. Zero durations make the matching
// transition immediate.
type Options struct {
	Filter         discovery.Filter
	DefaultLimit   int
	IngestLimit    int
	Debounce       time.Duration
	OverlayOpen    time.Duration
	OverlayClose   time.Duration
	EnrichPoll     time.Duration
	RequestTimeout time.Duration
	Concurrency    int
	Opener         LinkOpener
	Keys           *KeyMap
	Theme          *Theme
	Now            func() time.Time
}

type focus int

const (
	focusList focus = iota
	focusFilters
)

// Messages.
type (
	fetchResultMsg  struct{ result controller.FetchResult }
	ingestResultMsg struct{ result controller.IngestResult }
	debounceMsg     struct{ rev uint64 }
	overlayMsg      struct{ token detail.Token }
	enrichResultMsg struct {
		id   int
		name string
		err  error
	}
	enrichAllResultMsg struct {
		message string
		err     error
	}
	pollMsg         struct{}
	statusResultMsg struct {
		statuses map[int]discovery.EnrichmentStatus
	}
	noticeFadeMsg struct{ seq int }
	linkOpenedMsg struct {
		url string
		err error
	}
	clockMsg struct{}
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	api     API
	ctrl    *controller.Controller
	overlay *detail.Overlay
	bar     filterBar
	focus   focus
	keys    KeyMap
	theme   Theme
	opts    Options

	initial controller.Fetch

	rows   []listview.Row
	layout listview.Layout
	cursor int
	offset int

	spinner  spinner.Model
	spinning bool
	help     help.Model

	debounceRev uint64
	notice      string
	noticeSeq   int

	// watch holds companies whose enrichment the user started, until a
	// status poll reports them finished.
	watch   map[int]discovery.EnrichmentStatus
	polling bool

	width  int
	height int
}

// New creates the dashboard model. The initial list fetch is issued by
// Init.
func New(api API, opts Options) Model {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = filter.DefaultLimit
	}
	if opts.IngestLimit <= 0 {
		opts.IngestLimit = controller.DefaultIngestLimit
	}
	if opts.EnrichPoll <= 0 {
		opts.EnrichPoll = 3 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Opener == nil {
		opts.Opener = SystemOpener{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	keys := DefaultKeyMap
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	ctrl := controller.New(api,
		controller.WithFilter(opts.Filter),
		controller.WithIngestLimit(opts.IngestLimit),
		controller.WithClock(opts.Now),
	)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	m := Model{
		api:      api,
		ctrl:     ctrl,
		overlay:  detail.NewOverlay(opts.OverlayOpen, opts.OverlayClose),
		bar:      newFilterBar(opts.Filter),
		keys:     keys,
		theme:    theme,
		opts:     opts,
		spinner:  sp,
		spinning: true,
		help:     help.New(),
		watch:    make(map[int]discovery.EnrichmentStatus),
	}
	m.initial = ctrl.Start()
	return m
}

// Init issues the initial list fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(m.initial), m.spinner.Tick, clockTick())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampCursor()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		cmd = m.handleMouse(msg)

	case fetchResultMsg:
		m.applyFetch(msg.result)

	case ingestResultMsg:
		cmd = m.applyIngest(msg.result)

	case debounceMsg:
		if msg.rev == m.debounceRev {
			cmd = m.commitText()
		}

	case overlayMsg:
		m.overlay.Advance(msg.token)

	case enrichResultMsg:
		cmd = m.applyEnrich(msg)

	case enrichAllResultMsg:
		cmd = m.applyEnrichAll(msg)

	case pollMsg:
		cmd = m.pollStatuses()

	case statusResultMsg:
		cmd = m.applyStatuses(msg)

	case noticeFadeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}

	case linkOpenedMsg:
		if msg.err != nil {
			zap.L().Warn("dashboard: open link failed", zap.String("url", msg.url), zap.Error(msg.err))
			cmd = m.flash("Could not open " + msg.url)
		}

	case clockMsg:
		cmd = clockTick()

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			break
		}
		m.spinner, cmd = m.spinner.Update(msg)
	}
	return m, cmd
}

func (m Model) busy() bool {
	return m.ctrl.State() == controller.Loading || m.ctrl.Ingesting()
}

// Keyboard.

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.overlay.Mounted() {
		return m.handleOverlayKey(msg)
	}
	if m.focus == focusFilters {
		return m.handleFilterKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.visibleRows())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.visibleRows())
	case key.Matches(msg, m.keys.Home):
		m.moveCursor(-len(m.rows))
	case key.Matches(msg, m.keys.End):
		m.moveCursor(len(m.rows))
	case key.Matches(msg, m.keys.Open):
		if c, ok := m.cursorCompany(); ok {
			return m.openDetail(c)
		}
	case key.Matches(msg, m.keys.OpenWebsite):
		return m.openRowLink(listview.Website)
	case key.Matches(msg, m.keys.OpenCareers):
		return m.openRowLink(listview.Careers)
	case key.Matches(msg, m.keys.Enrich):
		if c, ok := m.cursorCompany(); ok {
			return m.enrich(c)
		}
	case key.Matches(msg, m.keys.EnrichAll):
		return m.enrichAll()
	case key.Matches(msg, m.keys.Scan):
		return m.scan()
	case key.Matches(msg, m.keys.Refresh):
		return m.issue(m.ctrl.Refresh())
	case key.Matches(msg, m.keys.ClearFilters):
		return m.clearFilters()
	case key.Matches(msg, m.keys.Dismiss):
		m.ctrl.DismissIngestError()
	case key.Matches(msg, m.keys.FocusFilters):
		m.focus = focusFilters
		return m.bar.focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.clampCursor()
	}
	return nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.focus = focusList
		m.bar.blur()
	case key.Matches(msg, m.keys.NextField):
		return m.bar.move(1)
	case key.Matches(msg, m.keys.PrevField):
		return m.bar.move(-1)
	case key.Matches(msg, m.keys.Apply):
		return m.commitText()
	case !isText(m.bar.field()):
		switch {
		case key.Matches(msg, m.keys.CycleNext):
			return m.cycleField(true)
		case key.Matches(msg, m.keys.CyclePrev):
			return m.cycleField(false)
		}
	default:
		changed, cmd := m.bar.update(msg)
		if changed {
			return tea.Batch(cmd, m.scheduleCommit())
		}
		return cmd
	}
	return nil
}

func (m *Model) handleOverlayKey(msg tea.KeyMsg) tea.Cmd {
	if !m.overlay.Interactive() {
		return nil
	}
	c, _ := m.overlay.Subject()
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.closeOverlay()
	case key.Matches(msg, m.keys.OpenWebsite):
		return m.openLink(c.WebsiteURL)
	case key.Matches(msg, m.keys.OpenCareers):
		return m.openLink(c.CareersURL)
	case key.Matches(msg, m.keys.Enrich):
		return m.enrich(c)
	}
	return nil
}

// Mouse.

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if !m.overlay.Mounted() {
			m.moveCursor(-1)
		}
		return nil
	case tea.MouseButtonWheelDown:
		if !m.overlay.Mounted() {
			m.moveCursor(1)
		}
		return nil
	case tea.MouseButtonLeft:
	default:
		return nil
	}

	if m.overlay.Mounted() {
		return m.handleOverlayClick(msg.X, msg.Y)
	}

	idx, ok := m.rowAt(msg.Y)
	if !ok {
		return nil
	}
	row := m.rows[idx]
	if link, ok := m.layout.LinkAt(row, msg.X); ok {
		return m.openLink(link.URL)
	}
	if c, ok := m.ctrl.Find(row.ID); ok {
		return m.openDetail(c)
	}
	return nil
}

func (m *Model) handleOverlayClick(x, y int) tea.Cmd {
	box, ok := m.overlayBox()
	if !ok || !m.overlay.Interactive() {
		return nil
	}
	if !box.contains(x, y) || box.onClose(x, y) {
		return m.closeOverlay()
	}
	if link, ok := box.linkAt(x, y); ok {
		return m.openLink(link.URL)
	}
	return nil
}

// rowAt maps a screen row to an index into rows.
func (m Model) rowAt(y int) (int, bool) {
	i := y - m.listTop()
	if i < 0 || i >= m.visibleRows() {
		return 0, false
	}
	idx := m.offset + i
	if idx >= len(m.rows) {
		return 0, false
	}
	return idx, true
}

// Cursor.

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if maxOffset := max(len(m.rows)-visible, 0); m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) cursorCompany() (discovery.Company, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return discovery.Company{}, false
	}
	return m.ctrl.Find(m.rows[m.cursor].ID)
}

// Fetching.

func (m *Model) issue(f controller.Fetch) tea.Cmd {
	return tea.Batch(m.fetchCmd(f), m.spin())
}

func (m Model) fetchCmd(f controller.Fetch) tea.Cmd {
	ctrl, timeout := m.ctrl, m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		return fetchResultMsg{result: ctrl.Run(ctx, f)}
	}
}

func (m *Model) applyFetch(r controller.FetchResult) {
	if !m.ctrl.Apply(r) || r.Err != nil {
		return
	}
	m.rows = listview.ProjectAll(m.ctrl.Companies())
	m.layout = listview.NewLayout(m.rows)
	m.clampCursor()
	for _, c := range m.ctrl.Companies() {
		m.overlay.Refresh(c)
	}
}

func (m *Model) spin() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// Filters.

func (m *Model) scheduleCommit() tea.Cmd {
	if m.opts.Debounce <= 0 {
		return m.commitText()
	}
	m.debounceRev++
	rev := m.debounceRev
	return tea.Tick(m.opts.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{rev: rev}
	})
}

// commitText applies buffered text edits and cancels any pending debounce.
func (m *Model) commitText() tea.Cmd {
	m.debounceRev++
	p := m.bar.pending(m.ctrl.Filter())
	if len(p) == 0 {
		return nil
	}
	return m.issue(m.ctrl.UpdateFilter(p))
}

func (m *Model) cycleField(forward bool) tea.Cmd {
	committed := m.ctrl.Filter()
	p, ok := cycle(committed, m.bar.field(), forward, m.opts.DefaultLimit)
	if !ok {
		return nil
	}
	for field, v := range m.bar.pending(committed) {
		p[field] = v
	}
	m.debounceRev++
	return m.issue(m.ctrl.UpdateFilter(p))
}

func (m *Model) clearFilters() tea.Cmd {
	m.debounceRev++
	f := m.ctrl.ResetFilter()
	m.bar.reset(m.ctrl.Filter())
	return m.issue(f)
}

// Ingestion.

func (m *Model) scan() tea.Cmd {
	req, ok := m.ctrl.BeginIngest()
	if !ok {
		return m.flash("A scan is already running")
	}
	ctrl, timeout := m.ctrl, m.opts.RequestTimeout
	run := func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		return ingestResultMsg{result: ctrl.RunIngest(ctx, req)}
	}
	return tea.Batch(run, m.spin())
}

func (m *Model) applyIngest(r controller.IngestResult) tea.Cmd {
	f, ok := m.ctrl.ApplyIngest(r)
	if !ok {
		return nil
	}
	cmd := m.issue(f)
	if msg := m.ctrl.IngestMessage(); msg != "" {
		return tea.Batch(cmd, m.flash(msg))
	}
	return cmd
}

// Enrichment.

func (m *Model) enrich(c discovery.Company) tea.Cmd {
	api, timeout := m.api, m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		_, err := api.TriggerEnrichOne(ctx, c.ID)
		return enrichResultMsg{id: c.ID, name: c.Name, err: err}
	}
}

func (m *Model) applyEnrich(msg enrichResultMsg) tea.Cmd {
	if msg.err != nil {
		zap.L().Warn("dashboard: enrich failed", zap.Int("company_id", msg.id), zap.Error(msg.err))
		return m.flash(fmt.Sprintf("Enrichment failed for %s: %v", msg.name, msg.err))
	}
	m.watch[msg.id] = discovery.StatusProcessing
	return tea.Batch(
		m.flash("Enrichment started for "+msg.name),
		m.issue(m.ctrl.Refresh()),
		m.startPolling(),
	)
}

func (m *Model) enrichAll() tea.Cmd {
	api, timeout := m.api, m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		resp, err := api.TriggerEnrichAll(ctx)
		if err != nil {
			return enrichAllResultMsg{err: err}
		}
		return enrichAllResultMsg{message: resp.Message}
	}
}

func (m *Model) applyEnrichAll(msg enrichAllResultMsg) tea.Cmd {
	if msg.err != nil {
		zap.L().Warn("dashboard: enrich all failed", zap.Error(msg.err))
		return m.flash(fmt.Sprintf("Enrich all failed: %v", msg.err))
	}
	for _, c := range m.ctrl.Companies() {
		if !c.Status().Terminal() {
			m.watch[c.ID] = c.Status()
		}
	}
	return tea.Batch(m.flash(msg.message), m.issue(m.ctrl.Refresh()), m.startPolling())
}

func (m *Model) startPolling() tea.Cmd {
	if m.polling || len(m.watch) == 0 {
		return nil
	}
	m.polling = true
	return m.pollTick()
}

func (m Model) pollTick() tea.Cmd {
	return tea.Tick(m.opts.EnrichPoll, func(time.Time) tea.Msg { return pollMsg{} })
}

// pollStatuses fetches the status of every watched company concurrently.
// Individual failures are logged and retried on the next poll.
func (m *Model) pollStatuses() tea.Cmd {
	ids := make([]int, 0, len(m.watch))
	for id := range m.watch {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	api, timeout, limit := m.api, m.opts.RequestTimeout, m.opts.Concurrency

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		statuses := make([]discovery.EnrichmentStatus, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, id := range ids {
			g.Go(func() error {
				resp, err := api.EnrichmentStatus(gctx, id)
				if err != nil {
					zap.L().Debug("dashboard: enrichment status failed", zap.Int("company_id", id), zap.Error(err))
					return nil
				}
				statuses[i] = resp.EnrichmentStatus
				return nil
			})
		}
		_ = g.Wait()

		out := make(map[int]discovery.EnrichmentStatus, len(ids))
		for i, id := range ids {
			if statuses[i] != "" {
				out[id] = statuses[i]
			}
		}
		return statusResultMsg{statuses: out}
	}
}

func (m *Model) applyStatuses(msg statusResultMsg) tea.Cmd {
	finished := 0
	for id, status := range msg.statuses {
		if _, ok := m.watch[id]; !ok {
			continue
		}
		if status.Terminal() {
			delete(m.watch, id)
			finished++
			continue
		}
		m.watch[id] = status
	}

	var cmds []tea.Cmd
	if finished > 0 {
		cmds = append(cmds, m.issue(m.ctrl.Refresh()), m.flash(fmt.Sprintf("%d enrichment(s) finished", finished)))
	}
	if len(m.watch) > 0 {
		cmds = append(cmds, m.pollTick())
	} else {
		m.polling = false
	}
	return tea.Batch(cmds...)
}

// Detail overlay and links.

func (m *Model) openDetail(c discovery.Company) tea.Cmd {
	return overlayTimer(m.overlay.Open(c))
}

func (m *Model) closeOverlay() tea.Cmd {
	tr, ok := m.overlay.Close()
	if !ok {
		return nil
	}
	return overlayTimer(tr)
}

func overlayTimer(tr detail.Transition) tea.Cmd {
	msg := overlayMsg{token: tr.Token}
	if tr.After <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(tr.After, func(time.Time) tea.Msg { return msg })
}

func (m *Model) openRowLink(kind listview.LinkKind) tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	link, ok := m.rows[m.cursor].Link(kind)
	if !ok {
		return m.flash("No " + kind.String() + " link for this company")
	}
	return m.openLink(link.URL)
}

func (m *Model) openLink(url string) tea.Cmd {
	if url == "" {
		return m.flash("No link available")
	}
	opener := m.opts.Opener
	return func() tea.Msg {
		return linkOpenedMsg{url: url, err: opener.OpenURL(context.Background(), url)}
	}
}

// Notices.

func (m *Model) flash(text string) tea.Cmd {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg { return noticeFadeMsg{seq: seq} })
}

func clockTick() tea.Cmd {
	return tea.Tick(clockInterval, func(time.Time) tea.Msg { return clockMsg{} })
}

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

// Run starts the dashboard full screen and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, api API, opts Options) error {
	p := tea.NewProgram(New(api, opts),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
