package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/discovery-cli/internal/listview"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

var statusCmd = &cobra.Command{
	Use:   "status <company-id>...",
	Short: "Show enrichment status for companies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		return runStatus(cmd.Context(), os.Stdout, newClient(cfg), ids, cfg.API.Concurrency)
	},
}

// runStatus fetches every status concurrently and prints them in argument
// order.
func runStatus(ctx context.Context, out io.Writer, client discovery.Client, ids []int, concurrency int) error {
	statuses := make([]discovery.EnrichmentStatus, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, id := range ids {
		g.Go(func() error {
			resp, err := client.EnrichmentStatus(gctx, id)
			if err != nil {
				return companyError(err, "status", id)
			}
			statuses[i] = resp.EnrichmentStatus
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tBADGE")
	_, _ = fmt.Fprintln(w, "--\t------\t-----")
	for i, id := range ids {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", id, statuses[i], listview.Badge(statuses[i]))
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
