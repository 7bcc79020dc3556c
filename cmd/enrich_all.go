package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

var enrichAllCmd = &cobra.Command{
	Use:   "enrich-all",
	Short: "Trigger AI enrichment for every pending company",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runEnrichAll(cmd.Context(), os.Stdout, newClient(cfg))
	},
}

func runEnrichAll(ctx context.Context, out io.Writer, client discovery.Client) error {
	resp, err := client.TriggerEnrichAll(ctx)
	if err != nil {
		return eris.Wrap(err, "enrich-all")
	}
	_, _ = fmt.Fprintln(out, resp.Message)
	return nil
}

func init() {
	rootCmd.AddCommand(enrichAllCmd)
}
