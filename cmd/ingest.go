package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scan SEC for new Form D filings",
	Long:  "Triggers one ingestion scan on the discovery API. Every call may run another scan; nothing is retried.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.Dashboard.IngestLimit
		}
		return runIngest(cmd.Context(), os.Stdout, newClient(cfg), limit)
	},
}

func runIngest(ctx context.Context, out io.Writer, client discovery.Client, limit int) error {
	zap.L().Info("triggering ingest", zap.Int("limit", limit))
	resp, err := client.TriggerIngest(ctx, limit)
	if err != nil {
		return eris.Wrap(err, "ingest")
	}
	_, _ = fmt.Fprintln(out, resp.Message)
	return nil
}

func init() {
	ingestCmd.Flags().Int("limit", 0, "max filings to ingest (default dashboard.ingest_limit)")
	rootCmd.AddCommand(ingestCmd)
}
