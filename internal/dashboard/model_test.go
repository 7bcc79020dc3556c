package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/discovery-cli/internal/detail"
	"github.com/sells-group/discovery-cli/internal/filter"
	"github.com/sells-group/discovery-cli/internal/listview"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// cmdWait bounds how long a command may run before the driver drops it.
// Long timers (spinner, clock, notice fade, cursor blink) are dropped;
// fake API calls and millisecond timers finish well inside it.
const cmdWait = 50 * time.Millisecond

var fixedNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu        sync.Mutex
	companies []discovery.Company
	listErr   error
	ingestErr error
	enrichErr error

	lists       []discovery.Filter
	ingests     []int
	enriched    []int
	enrichAll   int
	statusSeq   map[int][]discovery.EnrichmentStatus
	statusCalls int
}

func (f *fakeAPI) ListCompanies(_ context.Context, flt discovery.Filter) ([]discovery.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, flt)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []discovery.Company
	for _, c := range f.companies {
		if flt.City == "" || c.City == flt.City {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAPI) TriggerIngest(_ context.Context, limit int) (*discovery.IngestResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingests = append(f.ingests, limit)
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return &discovery.IngestResponse{Message: "Ingested 3 filings"}, nil
}

func (f *fakeAPI) TriggerEnrichOne(_ context.Context, id int) (*discovery.EnrichResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enrichErr != nil {
		return nil, f.enrichErr
	}
	f.enriched = append(f.enriched, id)
	return &discovery.EnrichResponse{Status: "enrichment_started", CompanyID: id}, nil
}

func (f *fakeAPI) TriggerEnrichAll(context.Context) (*discovery.EnrichAllResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrichAll++
	for i := range f.companies {
		if f.companies[i].Status() == discovery.StatusPending {
			f.companies[i].EnrichmentStatus = discovery.StatusProcessing
		}
	}
	return &discovery.EnrichAllResponse{Status: "enrichment_started", Message: "Enrichment started for all"}, nil
}

func (f *fakeAPI) EnrichmentStatus(_ context.Context, id int) (*discovery.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	status := discovery.StatusCompleted
	if seq := f.statusSeq[id]; len(seq) > 0 {
		status, f.statusSeq[id] = seq[0], seq[1:]
	}
	return &discovery.StatusResponse{CompanyID: id, EnrichmentStatus: status}, nil
}

func (f *fakeAPI) lastList() discovery.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lists) == 0 {
		return discovery.Filter{}
	}
	return f.lists[len(f.lists)-1]
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists)
}

type fakeOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *fakeOpener) OpenURL(_ context.Context, url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

func (o *fakeOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

func sampleCompanies() []discovery.Company {
	return []discovery.Company{
		{ID: 1, Name: "Acme Robotics", CIK: "0001", City: "Austin", State: "TX", Industry: "Robotics",
			AmountSold: "1500000", WebsiteURL: "https://acme.example", CareersURL: "https://acme.example/jobs"},
		{ID: 2, Name: "Beta Bio", CIK: "0002", City: "Boston", State: "MA", Industry: "Biotech",
			EnrichmentStatus: discovery.StatusCompleted},
		{ID: 3, Name: "Gamma Grid", CIK: "0003", City: "Austin", State: "TX", Industry: "Energy"},
	}
}

// collect runs cmd and returns the messages it produced, flattening
// batches and dropping periodic ticks.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(cmdWait):
		return nil
	}

	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case spinner.TickMsg, clockMsg, noticeFadeMsg:
		return nil
	}
	return []tea.Msg{msg}
}

// drive feeds msgs to m and keeps feeding the messages their commands
// produce until nothing is left.
func drive(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	queue := append([]tea.Msg(nil), msgs...)
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 1000, "dashboard did not settle")
		msg := queue[0]
		queue = queue[1:]
		next, cmd := m.Update(msg)
		m = next.(Model)
		queue = append(queue, collect(cmd)...)
	}
	return m
}

func start(t *testing.T, api *fakeAPI, opener *fakeOpener, tweak ...func(*Options)) Model {
	t.Helper()
	opts := Options{
		Debounce:   time.Millisecond,
		EnrichPoll: time.Millisecond,
		Opener:     opener,
		Now:        func() time.Time { return fixedNow },
	}
	for _, fn := range tweak {
		fn(&opts)
	}
	m := New(api, opts)
	m = drive(t, m, tea.WindowSizeMsg{Width: 180, Height: 40})
	return drive(t, m, collect(m.Init())...)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typed(s string) []tea.Msg {
	out := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		out = append(out, runes(string(r)))
	}
	return out
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestModel_InitialLoad(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies()}
	m := start(t, api, &fakeOpener{})

	require.Len(t, m.rows, 3)
	assert.Equal(t, 1, api.listCount())
	assert.False(t, m.busy())

	view := m.View()
	assert.Contains(t, view, "Form D Discovery")
	assert.Contains(t, view, "3 companies")
	assert.Contains(t, view, "Acme Robotics (0001)")
	assert.Contains(t, view, "$1,500,000")
	assert.Contains(t, view, "AI Enriched")
	assert.Contains(t, view, "Website Careers")
}

func TestModel_EmptyState(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{}, &fakeOpener{})

	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), listview.EmptyMessage)
}

func TestModel_LoadErrorAndRetry(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies(), listErr: errors.New("connection refused")}
	m := start(t, api, &fakeOpener{})

	view := m.View()
	assert.Contains(t, view, "Could not load companies")
	assert.Contains(t, view, "connection refused")

	api.mu.Lock()
	api.listErr = nil
	api.mu.Unlock()

	m = drive(t, m, runes("r"))
	assert.Len(t, m.rows, 3)
	assert.NotContains(t, m.View(), "Could not load companies")
}

func TestModel_TextFilterIsDebounced(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies()}
	m := start(t, api, &fakeOpener{})
	before := api.listCount()

	m = drive(t, m, runes("/"))
	require.Equal(t, focusFilters, m.focus)
	require.Equal(t, filter.City, m.bar.field())

	m = drive(t, m, typed("Austin")...)

	assert.Equal(t, before+1, api.listCount(), "one fetch for the whole burst")
	assert.Equal(t, "Austin", api.lastList().City)
	assert.Equal(t, "Austin", m.ctrl.Filter().City)
	require.Len(t, m.rows, 2)
	for _, r := range m.rows {
		assert.Equal(t, "Austin, TX", r.Location)
	}
}

func TestModel_TextFilterWithoutDebounce(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies()}
	m := start(t, api, &fakeOpener{}, func(o *Options) { o.Debounce = 0 })
	before := api.listCount()

	m = drive(t, m, runes("/"))
	m = drive(t, m, typed("Bo")...)

	assert.Equal(t, before+2, api.listCount())
	assert.Equal(t, "Bo", m.ctrl.Filter().City)
}

func TestModel_EnumFilterAppliesImmediately(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies()}
	m := start(t, api, &fakeOpener{})

	m = drive(t, m, runes("/"))
	for m.bar.field() != filter.Limit {
		m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRight})

	assert.Equal(t, 500, m.ctrl.Filter().Limit)
	assert.Equal(t, 500, api.lastList().Limit)
	assert.Contains(t, m.View(), "‹500›")
}

func TestModel_LatestFilterWins(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies()}
	m := start(t, api, &fakeOpener{})

	fAustin := m.ctrl.UpdateFilter(filter.Patch{filter.City: "Austin"})
	fBoston := m.ctrl.UpdateFilter(filter.Patch{filter.City: "Boston"})

	boston := m.fetchCmd(fBoston)()
	austin := m.fetchCmd(fAustin)()
	m = drive(t, m, boston, austin)

	require.Len(t, m.rows, 1)
	assert.Equal(t, "Beta Bio", m.rows[0].Name)
	assert.Equal(t, "Boston", m.ctrl.Filter().City)
}

func TestModel_ClearFilters(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies()}
	m := start(t, api, &fakeOpener{}, func(o *Options) {
		o.Filter = discovery.Filter{City: "Austin", StartupMode: true}
	})
	require.Len(t, m.rows, 2)

	m = drive(t, m, runes("x"))

	assert.Equal(t, discovery.Filter{}, m.ctrl.Filter())
	assert.Equal(t, discovery.Filter{}, api.lastList())
	assert.Empty(t, m.bar.inputs[filter.City].Value())
	assert.Len(t, m.rows, 3)
}

func TestModel_Scan(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies()}
	m := start(t, api, &fakeOpener{}, func(o *Options) { o.IngestLimit = 7 })
	before := api.listCount()

	m = drive(t, m, runes("s"))

	assert.Equal(t, []int{7}, api.ingests)
	assert.Equal(t, before+1, api.listCount(), "scan reloads the list")
	assert.False(t, m.ctrl.Ingesting())
	assert.Contains(t, m.View(), "Ingested 3 filings")
}

func TestModel_ScanFailureKeepsList(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies(), ingestErr: errors.New("sec unavailable")}
	m := start(t, api, &fakeOpener{})

	m = drive(t, m, runes("s"))

	view := m.View()
	assert.Contains(t, view, "Scan failed")
	assert.Contains(t, view, "sec unavailable")
	assert.NotContains(t, view, "Could not load companies")
	assert.Len(t, m.rows, 3)

	m = drive(t, m, runes("d"))
	assert.NotContains(t, m.View(), "Scan failed")
}

func TestModel_CursorClamps(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{companies: sampleCompanies()}, &fakeOpener{})

	m = drive(t, m, runes("k"))
	assert.Equal(t, 0, m.cursor)

	m = drive(t, m, runes("j"), runes("j"), runes("j"), runes("j"))
	assert.Equal(t, 2, m.cursor)

	m = drive(t, m, runes("g"))
	assert.Equal(t, 0, m.cursor)
	m = drive(t, m, runes("G"))
	assert.Equal(t, 2, m.cursor)
}

func TestModel_DetailOpensAndClosesWithKeys(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{companies: sampleCompanies()}, &fakeOpener{})

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, detail.Open, m.overlay.Phase())
	c, _ := m.overlay.Subject()
	assert.Equal(t, 1, c.ID)

	view := m.View()
	assert.Contains(t, view, closeLabel)
	assert.Contains(t, view, "Key Executive")
	assert.Contains(t, view, "Visit Website →")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, detail.Closed, m.overlay.Phase())
	assert.NotContains(t, m.View(), closeLabel)
}

func TestModel_OverlayAnimatesThroughPhases(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{companies: sampleCompanies()}, &fakeOpener{}, func(o *Options) {
		o.OverlayOpen = time.Hour
	})

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, detail.Opening, m.overlay.Phase())
	assert.True(t, m.overlay.Interactive())

	// Close before the open timer fires; the pending open timer is stale.
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, detail.Closed, m.overlay.Phase())
}

func TestModel_RowClickOpensDetailWithoutMovingCursor(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{companies: sampleCompanies()}, &fakeOpener{})

	m = drive(t, m, click(1, m.listTop()+2))

	require.True(t, m.overlay.Mounted())
	c, _ := m.overlay.Subject()
	assert.Equal(t, 3, c.ID)
	assert.Equal(t, 0, m.cursor)
}

func TestModel_LinkClickOpensOnlyTheLink(t *testing.T) {
	t.Parallel()
	opener := &fakeOpener{}
	m := start(t, &fakeAPI{companies: sampleCompanies()}, opener)

	x := m.layout.Offsets[listview.ColLinks]
	m = drive(t, m, click(x, m.listTop()))
	assert.Equal(t, []string{"https://acme.example"}, opener.opened())
	assert.False(t, m.overlay.Mounted())

	m = drive(t, m, click(x+len("Website")+len(listview.LinkSeparator), m.listTop()))
	assert.Equal(t, []string{"https://acme.example", "https://acme.example/jobs"}, opener.opened())
	assert.False(t, m.overlay.Mounted())
}

func TestModel_OverlayClickOutsideCloses(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{companies: sampleCompanies()}, &fakeOpener{})
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	box, ok := m.overlayBox()
	require.True(t, ok)

	// Inside the box but not on a control: stays open.
	m = drive(t, m, click(box.x+2, box.y+3))
	assert.Equal(t, detail.Open, m.overlay.Phase())

	m = drive(t, m, click(0, 0))
	assert.Equal(t, detail.Closed, m.overlay.Phase())
}

func TestModel_OverlayCloseControl(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{companies: sampleCompanies()}, &fakeOpener{})
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	box, ok := m.overlayBox()
	require.True(t, ok)

	m = drive(t, m, click(box.closeX0, box.closeY))
	assert.Equal(t, detail.Closed, m.overlay.Phase())
}

func TestModel_OverlayLinkClick(t *testing.T) {
	t.Parallel()
	opener := &fakeOpener{}
	m := start(t, &fakeAPI{companies: sampleCompanies()}, opener)
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	box, ok := m.overlayBox()
	require.True(t, ok)

	var urls []string
	for y, hit := range box.links {
		m = drive(t, m, click(hit.start, y))
		urls = append(urls, hit.link.URL)
	}
	assert.ElementsMatch(t, urls, opener.opened())
	assert.Len(t, urls, 2)
	assert.Equal(t, detail.Open, m.overlay.Phase())
}

func TestModel_OverlayShowsIntelligence(t *testing.T) {
	t.Parallel()
	companies := sampleCompanies()
	companies[0].DesignOpportunity = `{"priority":"High","key_questions":["Who owns design?"]}`
	companies[0].MaturityInfo = `{"stage":"Seed"}`
	companies[0].EngagementRecommendation = "Offer a design sprint"
	m := start(t, &fakeAPI{companies: companies}, &fakeOpener{})

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	view := m.View()
	assert.Contains(t, view, "Design Intelligence")
	assert.Contains(t, view, "Seed")
	assert.Contains(t, view, `"Offer a design sprint"`)
	assert.Contains(t, view, "Priority: High")
	assert.Contains(t, view, "Who owns design?")
	assert.Contains(t, view, "None detected")
}

func TestModel_EnrichPollsUntilFinished(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{
		companies: sampleCompanies(),
		statusSeq: map[int][]discovery.EnrichmentStatus{
			1: {discovery.StatusProcessing, discovery.StatusProcessing},
		},
	}
	m := start(t, api, &fakeOpener{})

	m = drive(t, m, runes("e"))

	assert.Equal(t, []int{1}, api.enriched)
	assert.Equal(t, 3, api.statusCalls)
	assert.Empty(t, m.watch)
	assert.False(t, m.polling)
	assert.Contains(t, m.View(), "1 enrichment(s) finished")
}

func TestModel_EnrichFailureShowsNotice(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies(), enrichErr: errors.New("company not found")}
	m := start(t, api, &fakeOpener{})

	m = drive(t, m, runes("e"))

	assert.Empty(t, m.watch)
	assert.Contains(t, m.View(), "Enrichment failed for Acme Robotics")
}

func TestModel_EnrichAllWatchesUnfinished(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{companies: sampleCompanies()}
	m := start(t, api, &fakeOpener{})

	m = drive(t, m, runes("E"))

	assert.Equal(t, 1, api.enrichAll)
	// Companies 1 and 3 were pending; each is polled once and completes.
	assert.Equal(t, 2, api.statusCalls)
	assert.Empty(t, m.watch)
}

func TestModel_HelpToggle(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{companies: sampleCompanies()}, &fakeOpener{})

	short := lineCount(m.helpView())
	m = drive(t, m, runes("?"))
	assert.Greater(t, lineCount(m.helpView()), short)
	assert.Contains(t, m.View(), "enrich all")
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()
	m := start(t, &fakeAPI{}, &fakeOpener{})

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

func TestSpliceOverlay(t *testing.T) {
	t.Parallel()
	view := "aaaaaaaa\nbbbbbbbb\ncccccccc"
	out := spliceOverlay(view, []string{"XX", "YY"}, 3, 1)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "aaaaaaaa", lines[0])
	assert.Equal(t, "bbb\x1b[0mXX\x1b[0mbbb", lines[1])
	assert.Equal(t, "ccc\x1b[0mYY\x1b[0mccc", lines[2])
}

func TestTruncateLine(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", truncateLine("abcdef", 3))
	assert.Equal(t, "abcdef", truncateLine("abcdef", 0))
	assert.Equal(t, "ab", truncateLine("ab", 5))
	assert.Equal(t, "ab   ", fitLine("ab", 5))
}
