// Package controller keeps the company result set consistent with the
// filter specification and the ingestion trigger while list requests may
// overlap.
//
// The controller is a state machine driven from a single goroutine. Network
// calls are split into issue, run and apply steps: Run performs the call and
// may execute on any goroutine, while issuing and applying mutate state and
// must happen on the owning goroutine. Every issued fetch carries a
// generation number; only the result of the most recently issued fetch is
// applied.
package controller

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/discovery-cli/internal/filter"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// DefaultIngestLimit is the scan size used when the filter has no limit.
const DefaultIngestLimit = 10

// State is the fetch state of the result set.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// API is the subset of the discovery client the controller drives.
type API interface {
	ListCompanies(ctx context.Context, filter discovery.Filter) ([]discovery.Company, error)
	TriggerIngest(ctx context.Context, limit int) (*discovery.IngestResponse, error)
}

// Fetch is an issued list request.
type Fetch struct {
	Generation uint64
	Filter     discovery.Filter
}

// FetchResult is the outcome of running a Fetch.
type FetchResult struct {
	Fetch
	Companies []discovery.Company
	Err       error
}

// IngestRequest is an issued ingestion scan.
type IngestRequest struct {
	Limit int
}

// IngestResult is the outcome of running an IngestRequest.
type IngestResult struct {
	Request IngestRequest
	Message string
	Err     error
}

// Option configures a Controller.
type Option func(*Controller)

// WithIngestLimit sets the scan size used when the filter has no limit.
func WithIngestLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.ingestLimit = n
		}
	}
}

// WithFilter sets the initial filter specification.
func WithFilter(f discovery.Filter) Option {
	return func(c *Controller) {
		c.filters = filter.NewFrom(f)
	}
}

// WithClock overrides time.Now for the last-updated timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller owns the filter specification and the result set; it is their
// only writer.
type Controller struct {
	api         API
	filters     *filter.Store
	ingestLimit int
	now         func() time.Time

	state      State
	generation uint64
	companies  []discovery.Company
	err        error
	loaded     bool
	updatedAt  time.Time

	ingesting     bool
	ingestGen     uint64
	ingestErr     error
	ingestMessage string
}

// New creates a controller in the Idle state with an empty result set.
func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:         api,
		filters:     filter.New(),
		ingestLimit: DefaultIngestLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start issues the initial fetch.
func (c *Controller) Start() Fetch {
	return c.issue()
}

// UpdateFilter applies a filter edit and issues a fetch for the new
// snapshot.
func (c *Controller) UpdateFilter(p filter.Patch) Fetch {
	c.filters.Update(p)
	return c.issue()
}

// ResetFilter clears every filter field and issues a fetch.
func (c *Controller) ResetFilter() Fetch {
	c.filters.Reset()
	return c.issue()
}

// Refresh re-issues a fetch for the current filter.
func (c *Controller) Refresh() Fetch {
	return c.issue()
}

func (c *Controller) issue() Fetch {
	c.generation++
	c.state = Loading
	c.err = nil
	return Fetch{Generation: c.generation, Filter: c.filters.Snapshot()}
}

// Run performs the list call for f. It touches no controller state and may
// be called from any goroutine.
func (c *Controller) Run(ctx context.Context, f Fetch) FetchResult {
	companies, err := c.api.ListCompanies(ctx, f.Filter)
	return FetchResult{Fetch: f, Companies: companies, Err: err}
}

// Apply folds a fetch result into the state. It returns false when the
// result is stale, that is when a newer fetch has been issued since.
// Failures keep the previous result set.
func (c *Controller) Apply(r FetchResult) bool {
	if c.ingesting && c.ingestGen != 0 &&
		(r.Generation == c.ingestGen || (r.Generation > c.ingestGen && r.Generation == c.generation)) {
		c.ingesting = false
		c.ingestGen = 0
	}

	if r.Generation != c.generation {
		zap.L().Debug("controller: dropping stale fetch result",
			zap.Uint64("generation", r.Generation),
			zap.Uint64("latest", c.generation),
		)
		return false
	}

	if r.Err != nil {
		c.state = Failed
		c.err = r.Err
		zap.L().Warn("controller: fetch companies failed",
			zap.Uint64("generation", r.Generation),
			zap.Error(r.Err),
		)
		return true
	}

	c.state = Ready
	c.companies = r.Companies
	if c.companies == nil {
		c.companies = []discovery.Company{}
	}
	c.loaded = true
	c.updatedAt = c.now()
	return true
}

// BeginIngest marks an ingestion scan in progress and returns the request
// to run. It returns false while another scan is still in progress.
func (c *Controller) BeginIngest() (IngestRequest, bool) {
	if c.ingesting {
		return IngestRequest{}, false
	}
	c.ingesting = true
	c.ingestGen = 0
	c.ingestErr = nil
	c.ingestMessage = ""
	return IngestRequest{Limit: filter.IngestLimit(c.filters.Snapshot(), c.ingestLimit)}, true
}

// RunIngest performs the ingest call. Like Run it may execute on any
// goroutine.
func (c *Controller) RunIngest(ctx context.Context, req IngestRequest) IngestResult {
	resp, err := c.api.TriggerIngest(ctx, req.Limit)
	if err != nil {
		return IngestResult{Request: req, Err: err}
	}
	return IngestResult{Request: req, Message: resp.Message}
}

// ApplyIngest folds an ingest result into the state. On success it issues
// exactly one fetch for the filter current now and returns it; the
// ingesting flag stays set until that fetch's result arrives. On failure
// the result set is left alone and no fetch is issued.
func (c *Controller) ApplyIngest(r IngestResult) (Fetch, bool) {
	if !c.ingesting {
		return Fetch{}, false
	}
	if r.Err != nil {
		c.ingesting = false
		c.ingestErr = r.Err
		zap.L().Warn("controller: ingest failed", zap.Int("limit", r.Request.Limit), zap.Error(r.Err))
		return Fetch{}, false
	}

	c.ingestMessage = r.Message
	f := c.issue()
	c.ingestGen = f.Generation
	zap.L().Info("controller: ingest complete",
		zap.Int("limit", r.Request.Limit),
		zap.String("message", r.Message),
		zap.Uint64("refetch_generation", f.Generation),
	)
	return f, true
}

// Load issues a fetch for the current filter and waits for it.
func (c *Controller) Load(ctx context.Context) error {
	f := c.Refresh()
	c.Apply(c.Run(ctx, f))
	return c.err
}

// Ingest runs a scan followed by its refetch and waits for both.
func (c *Controller) Ingest(ctx context.Context) error {
	req, ok := c.BeginIngest()
	if !ok {
		return eris.New("controller: ingest already in progress")
	}
	f, ok := c.ApplyIngest(c.RunIngest(ctx, req))
	if !ok {
		return c.ingestErr
	}
	c.Apply(c.Run(ctx, f))
	return c.err
}

// DismissIngestError clears the ingest failure banner.
func (c *Controller) DismissIngestError() {
	c.ingestErr = nil
}

// State returns the fetch state.
func (c *Controller) State() State { return c.state }

// Filter returns the current filter snapshot.
func (c *Controller) Filter() discovery.Filter { return c.filters.Snapshot() }

// Companies returns the current result set. Callers must not modify it.
func (c *Controller) Companies() []discovery.Company { return c.companies }

// Loaded reports whether any fetch has succeeded yet.
func (c *Controller) Loaded() bool { return c.loaded }

// UpdatedAt is when the result set was last replaced.
func (c *Controller) UpdatedAt() time.Time { return c.updatedAt }

// Err returns the last list failure, cleared when a new fetch is issued.
func (c *Controller) Err() error { return c.err }

// Ingesting reports whether a scan or its refetch is outstanding.
func (c *Controller) Ingesting() bool { return c.ingesting }

// IngestErr returns the last ingest failure.
func (c *Controller) IngestErr() error { return c.ingestErr }

// IngestMessage returns the backend's message for the last successful scan.
func (c *Controller) IngestMessage() string { return c.ingestMessage }

// Generation returns the generation of the most recently issued fetch.
func (c *Controller) Generation() uint64 { return c.generation }

// Find returns the company with the given id from the result set.
func (c *Controller) Find(id int) (discovery.Company, bool) {
	for _, co := range c.companies {
		if co.ID == id {
			return co, true
		}
	}
	return discovery.Company{}, false
}
