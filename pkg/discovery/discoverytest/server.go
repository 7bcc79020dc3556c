// Package discoverytest provides an in-memory implementation of the
// discovery API over HTTP for tests.
package discoverytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// Request records one call received by the fake server.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Query    url.Values
}

// Server is a fake discovery API. All exported hooks must be set before the
// server receives traffic.
type Server struct {
	URL string

	// Before runs at the start of every request, before any state is read.
	// Tests use it to block or delay specific calls.
	Before func(r *http.Request)

	// StatusOverride forces a status code for a route pattern such as
	// "GET /companies" or "POST /ingest".
	StatusOverride map[string]int

	// EnrichSteps is how many status polls a queued enrichment stays in
	// processing before it completes. Zero completes on the first poll.
	EnrichSteps int

	mu        sync.Mutex
	companies []discovery.Company
	backlog   []discovery.Company
	polls     map[int]int
	requests  []Request
}

// New starts a fake server seeded with companies and registers cleanup
// with t.
func New(t testing.TB, companies ...discovery.Company) *Server {
	t.Helper()
	s := &Server{
		StatusOverride: map[string]int{},
		companies:      append([]discovery.Company(nil), companies...),
		polls:          map[int]int{},
	}
	srv := httptest.NewServer(s.router())
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// QueueFilings stages companies that the next ingest call will add.
func (s *Server) QueueFilings(companies ...discovery.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backlog = append(s.backlog, companies...)
}

// Companies returns a copy of the current company table.
func (s *Server) Companies() []discovery.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]discovery.Company(nil), s.companies...)
}

// Requests returns the calls received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many calls matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/companies", s.override("GET /companies", s.handleList))
	r.Post("/ingest", s.override("POST /ingest", s.handleIngest))
	r.Post("/companies/{id}/enrich", s.override("POST /companies/{id}/enrich", s.handleEnrich))
	r.Get("/companies/{id}/enrichment-status", s.override("GET /companies/{id}/enrichment-status", s.handleStatus))
	r.Post("/enrich-all", s.override("POST /enrich-all", s.handleEnrichAll))
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Query:    r.URL.Query(),
		})
		s.mu.Unlock()
		if s.Before != nil {
			s.Before(r)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) override(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		code := s.StatusOverride[route]
		s.mu.Unlock()
		if code != 0 {
			http.Error(w, `{"detail":"forced failure"}`, code)
			return
		}
		h(w, r)
	}
}

// SetStatus forces a status code for a route; zero clears the override.
func (s *Server) SetStatus(route string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == 0 {
		delete(s.StatusOverride, route)
		return
	}
	s.StatusOverride[route] = code
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, `{"detail":"invalid limit"}`, http.StatusUnprocessableEntity)
			return
		}
		limit = n
	}

	s.mu.Lock()
	out := []discovery.Company{}
	for _, c := range s.companies {
		if !matches(c, q) {
			continue
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func matches(c discovery.Company, q url.Values) bool {
	checks := map[string]string{
		"industry":      c.Industry,
		"city":          c.City,
		"state":         c.State,
		"revenue_range": c.RevenueRange,
		"founded_year":  c.FoundedYear,
	}
	for key, have := range checks {
		if want := q.Get(key); want != "" && want != have {
			return false
		}
	}
	return true
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		http.Error(w, `{"detail":"invalid limit"}`, http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	n := min(limit, len(s.backlog))
	s.companies = append(s.backlog[:n:n], s.companies...)
	s.backlog = s.backlog[n:]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, discovery.IngestResponse{Message: fmt.Sprintf("Ingested %d filings", n)})
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	id, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.setStatus(id, discovery.StatusProcessing)
	writeJSON(w, http.StatusOK, discovery.EnrichResponse{Status: "enrichment_started", CompanyID: id})
}

func (s *Server) handleEnrichAll(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	n := 0
	for i := range s.companies {
		if s.companies[i].Status() == discovery.StatusPending {
			s.companies[i].EnrichmentStatus = discovery.StatusProcessing
			n++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, discovery.EnrichAllResponse{
		Status:  "enrichment_started",
		Message: fmt.Sprintf("Enrichment started for %d companies", n),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	var status discovery.EnrichmentStatus
	for i := range s.companies {
		if s.companies[i].ID != id {
			continue
		}
		if s.companies[i].EnrichmentStatus == discovery.StatusProcessing {
			s.polls[id]++
			if s.polls[id] > s.EnrichSteps {
				s.companies[i].EnrichmentStatus = discovery.StatusCompleted
			}
		}
		status = s.companies[i].Status()
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, discovery.StatusResponse{CompanyID: id, EnrichmentStatus: status})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"detail":"invalid id"}`, http.StatusUnprocessableEntity)
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.ID == id {
			return id, true
		}
	}
	http.Error(w, `{"detail":"Company not found"}`, http.StatusNotFound)
	return 0, false
}

func (s *Server) setStatus(id int, status discovery.EnrichmentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if s.companies[i].ID == id {
			s.companies[i].EnrichmentStatus = status
			s.polls[id] = 0
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
