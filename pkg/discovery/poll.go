package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInitial = 2 * time.Second
	defaultPollCap     = 15 * time.Second
	defaultPollTimeout = 5 * time.Minute
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	initial  time.Duration
	cap      time.Duration
	timeout  time.Duration
	onStatus func(EnrichmentStatus)
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
	}
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.initial = d
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.cap = d
	}
}

// WithPollTimeout overrides the default timeout (applied only if the parent
// context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// WithStatusCallback is invoked with every status observed, including the
// final one.
func WithStatusCallback(fn func(EnrichmentStatus)) PollOption {
	return func(c *pollConfig) {
		c.onStatus = fn
	}
}

// PollEnrichment polls EnrichmentStatus until the company is completed or
// failed, or the context expires. Uses exponential backoff: 2s -> 4s -> 8s ->
// 15s (capped). A failed enrichment is returned as a status, not an error.
func PollEnrichment(ctx context.Context, client Client, companyID int, opts ...PollOption) (*StatusResponse, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	interval := cfg.initial
	for {
		status, err := client.EnrichmentStatus(ctx, companyID)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("discovery: poll enrichment %d", companyID))
		}
		if cfg.onStatus != nil {
			cfg.onStatus(status.EnrichmentStatus)
		}
		if status.EnrichmentStatus.Terminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("discovery: poll enrichment %d timed out", companyID))
		case <-time.After(interval):
		}

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}
