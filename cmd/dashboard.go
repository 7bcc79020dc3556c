package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/discovery-cli/internal/config"
	"github.com/sells-group/discovery-cli/internal/dashboard"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

var dashboardCmd = &cobra.Command{
	Use:         "dashboard",
	Short:       "Open the interactive discovery dashboard",
	Long:        "Full-screen dashboard with a filter bar, the company list, a detail overlay and scan/enrich actions. Logs go to --log-file when set.",
	Annotations: map[string]string{fullScreen: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := filterFromFlags(cmd.Flags())
		if err != nil {
			return eris.Wrap(err, "dashboard")
		}
		if err := dashboard.Run(cmd.Context(), newClient(cfg), dashboardOptions(cfg, f)); err != nil {
			return eris.Wrap(err, "dashboard")
		}
		return nil
	},
}

// dashboardOptions maps configuration onto dashboard options.
func dashboardOptions(c *config.Config, f discovery.Filter) dashboard.Options {
	return dashboard.Options{
		Filter:         f,
		DefaultLimit:   c.Dashboard.DefaultLimit,
		IngestLimit:    c.Dashboard.IngestLimit,
		Debounce:       c.Dashboard.FilterDebounce(),
		OverlayOpen:    c.Dashboard.OverlayOpen(),
		OverlayClose:   c.Dashboard.OverlayClose(),
		EnrichPoll:     c.Dashboard.EnrichPoll(),
		RequestTimeout: c.API.Timeout(),
		Concurrency:    c.API.Concurrency,
	}
}

func init() {
	addFilterFlags(dashboardCmd.Flags())
	rootCmd.AddCommand(dashboardCmd)
}
