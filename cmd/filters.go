package main

import (
	"slices"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// addFilterFlags registers the company list filter flags on fs.
func addFilterFlags(fs *pflag.FlagSet) {
	fs.String("industry", "", "filter by industry")
	fs.String("city", "", "filter by city")
	fs.String("state", "", "filter by state")
	fs.String("revenue-range", "", "filter by revenue range as reported on Form D (e.g. \"$1 - $1,000,000\")")
	fs.String("founded-year", "", "filter by founding year")
	fs.Int("limit", 0, "max companies to return (0 uses the server default)")
	fs.Int("days-ago", 0, "only companies that filed within this many days")
	fs.Bool("startup-mode", false, "only likely startups")
}

// filterFromFlags reads the filter flags registered by addFilterFlags.
func filterFromFlags(fs *pflag.FlagSet) (discovery.Filter, error) {
	var f discovery.Filter
	f.Industry, _ = fs.GetString("industry")
	f.City, _ = fs.GetString("city")
	f.State, _ = fs.GetString("state")
	f.RevenueRange, _ = fs.GetString("revenue-range")
	f.FoundedYear, _ = fs.GetString("founded-year")
	f.Limit, _ = fs.GetInt("limit")
	f.DaysAgo, _ = fs.GetInt("days-ago")
	f.StartupMode, _ = fs.GetBool("startup-mode")

	if f.RevenueRange != "" && !slices.Contains(discovery.RevenueRanges, f.RevenueRange) {
		return discovery.Filter{}, eris.Errorf("unknown revenue range %q", f.RevenueRange)
	}
	if f.Limit < 0 {
		return discovery.Filter{}, eris.New("--limit must not be negative")
	}
	if f.DaysAgo < 0 {
		return discovery.Filter{}, eris.New("--days-ago must not be negative")
	}
	return f, nil
}
