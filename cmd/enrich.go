package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/discovery-cli/internal/listview"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <company-id>...",
	Short: "Trigger AI enrichment for companies",
	Long:  "Queues AI enrichment for each company id. With --wait, polls enrichment status until every company is completed or failed.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return eris.Wrap(err, "enrich")
		}
		wait, _ := cmd.Flags().GetBool("wait")
		poll, _ := cmd.Flags().GetDuration("poll")
		if poll <= 0 {
			poll = cfg.Dashboard.EnrichPoll()
		}
		opts := enrichOptions{wait: wait, poll: poll, concurrency: cfg.API.Concurrency}
		return runEnrich(cmd.Context(), os.Stdout, newClient(cfg), ids, opts)
	},
}

type enrichOptions struct {
	wait        bool
	poll        time.Duration
	concurrency int
}

type enrichResult struct {
	id     int
	status string
}

// runEnrich triggers enrichment for every id concurrently and prints one
// row per company in argument order. The first failure cancels the rest.
func runEnrich(ctx context.Context, out io.Writer, client discovery.Client, ids []int, opts enrichOptions) error {
	results := make([]enrichResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.concurrency, 1))
	for i, id := range ids {
		g.Go(func() error {
			resp, err := client.TriggerEnrichOne(gctx, id)
			if err != nil {
				return companyError(err, "enrich", id)
			}
			results[i] = enrichResult{id: id, status: resp.Status}
			if !opts.wait {
				return nil
			}

			final, err := discovery.PollEnrichment(gctx, client, id,
				discovery.WithPollInterval(opts.poll),
				discovery.WithStatusCallback(func(s discovery.EnrichmentStatus) {
					zap.L().Debug("enrichment status", zap.Int("company_id", id), zap.String("status", string(s)))
				}),
			)
			if err != nil {
				return eris.Wrapf(err, "enrich: wait for company %d", id)
			}
			results[i].status = listview.Badge(final.EnrichmentStatus)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS")
	_, _ = fmt.Fprintln(w, "--\t------")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%d\t%s\n", r.id, r.status)
	}
	return w.Flush()
}

// parseIDs converts company id arguments.
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return nil, eris.Errorf("invalid company id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// companyError wraps a per-company API failure, naming a missing company
// explicitly.
func companyError(err error, op string, id int) error {
	if discovery.StatusCode(err) == http.StatusNotFound {
		return eris.Wrapf(err, "%s: company %d not found", op, id)
	}
	return eris.Wrapf(err, "%s: company %d", op, id)
}

func init() {
	enrichCmd.Flags().Bool("wait", false, "poll until enrichment finishes")
	enrichCmd.Flags().Duration("poll", 0, "initial poll interval with --wait (default dashboard.enrich_poll_secs)")
	rootCmd.AddCommand(enrichCmd)
}
