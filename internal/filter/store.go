// Package filter holds the dashboard's filter specification. Each edit
// produces a new immutable snapshot; in-flight requests keep the snapshot
// they were issued with.
package filter

import (
	"strconv"
	"strings"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// Field names a filter field. Values match the API query parameter names.
type Field string

const (
	Industry     Field = "industry"
	City         Field = "city"
	State        Field = "state"
	RevenueRange Field = "revenue_range"
	FoundedYear  Field = "founded_year"
	Limit        Field = "limit"
	DaysAgo      Field = "days_ago"
	StartupMode  Field = "startup_mode"
)

// Fields lists every field in filter bar order.
var Fields = []Field{City, State, Industry, RevenueRange, FoundedYear, Limit, DaysAgo, StartupMode}

// DefaultLimit is the display limit shown when none is selected.
const DefaultLimit = 100

// LimitChoices are the selectable result limits.
var LimitChoices = []int{10, 50, 100, 500}

// DaysAgoChoices are the selectable filing windows; 0 means any time.
var DaysAgoChoices = []int{0, 1, 3, 7, 14, 30}

// Patch is a set of raw field edits, typically straight from user input.
type Patch map[Field]string

// Store holds the current filter snapshot. It is not safe for concurrent
// use; the owner serializes access.
type Store struct {
	current discovery.Filter
}

// New returns a store holding the empty filter.
func New() *Store {
	return &Store{}
}

// NewFrom returns a store starting at f.
func NewFrom(f discovery.Filter) *Store {
	return &Store{current: f}
}

// Snapshot returns the current filter by value.
func (s *Store) Snapshot() discovery.Filter {
	return s.current
}

// Update merges p into a new snapshot and returns it. Text fields are taken
// verbatim; numeric fields that do not parse as positive integers become
// unset, and an unparsable startup_mode becomes false.
func (s *Store) Update(p Patch) discovery.Filter {
	next := s.current
	for field, raw := range p {
		apply(&next, field, raw)
	}
	s.current = next
	return next
}

// Reset replaces the snapshot with the empty filter.
func (s *Store) Reset() discovery.Filter {
	s.current = discovery.Filter{}
	return s.current
}

func apply(f *discovery.Filter, field Field, raw string) {
	switch field {
	case Industry:
		f.Industry = raw
	case City:
		f.City = raw
	case State:
		f.State = raw
	case RevenueRange:
		f.RevenueRange = raw
	case FoundedYear:
		f.FoundedYear = raw
	case Limit:
		f.Limit = positiveInt(raw)
	case DaysAgo:
		f.DaysAgo = positiveInt(raw)
	case StartupMode:
		on, err := strconv.ParseBool(strings.TrimSpace(raw))
		f.StartupMode = err == nil && on
	}
}

func positiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Value returns the raw text form of a field in f, the inverse of Update.
func Value(f discovery.Filter, field Field) string {
	switch field {
	case Industry:
		return f.Industry
	case City:
		return f.City
	case State:
		return f.State
	case RevenueRange:
		return f.RevenueRange
	case FoundedYear:
		return f.FoundedYear
	case Limit:
		if f.Limit > 0 {
			return strconv.Itoa(f.Limit)
		}
	case DaysAgo:
		if f.DaysAgo > 0 {
			return strconv.Itoa(f.DaysAgo)
		}
	case StartupMode:
		if f.StartupMode {
			return "true"
		}
	}
	return ""
}

// IngestLimit is the scan size for the ingest trigger: the filter's limit,
// or fallback when unset.
func IngestLimit(f discovery.Filter, fallback int) int {
	if f.Limit > 0 {
		return f.Limit
	}
	return fallback
}

// Next returns the choice following current in choices, wrapping around.
// A current value not in choices yields the first choice.
func Next[T comparable](choices []T, current T) T {
	return step(choices, current, 1)
}

// Prev returns the choice preceding current in choices, wrapping around.
func Prev[T comparable](choices []T, current T) T {
	return step(choices, current, -1)
}

func step[T comparable](choices []T, current T, delta int) T {
	var zero T
	if len(choices) == 0 {
		return zero
	}
	for i, c := range choices {
		if c == current {
			return choices[(i+delta+len(choices))%len(choices)]
		}
	}
	return choices[0]
}
