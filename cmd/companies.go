package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/discovery-cli/internal/export"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List discovered companies",
	Long:  "Fetches the company list once with the given filters and prints it as a table, or exports it as JSON, YAML, CSV or XLSX.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := filterFromFlags(cmd.Flags())
		if err != nil {
			return eris.Wrap(err, "companies")
		}
		output, _ := cmd.Flags().GetString("output")
		format, err := export.ParseFormat(output)
		if err != nil {
			return eris.Wrap(err, "companies")
		}

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			if format.Binary() {
				return eris.Errorf("companies: %s output requires --file", format)
			}
			return listCompanies(cmd.Context(), os.Stdout, newClient(cfg), f, format)
		}

		if err := exportCompanies(cmd.Context(), path, newClient(cfg), f, format); err != nil {
			return err
		}
		zap.L().Info("companies exported", zap.String("file", path), zap.String("format", string(format)))
		return nil
	},
}

// exportCompanies fetches before touching path, so a failed fetch leaves no
// file behind. A failed write removes the partial file.
func exportCompanies(ctx context.Context, path string, client discovery.Client, f discovery.Filter, format export.Format) (err error) {
	companies, err := client.ListCompanies(ctx, f)
	if err != nil {
		return eris.Wrap(err, "companies: list")
	}

	out, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "companies: create output file")
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = eris.Wrap(cerr, "companies: close output file")
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return export.Write(out, format, companies)
}

// listCompanies fetches one page of companies and writes it in format.
func listCompanies(ctx context.Context, out io.Writer, client discovery.Client, f discovery.Filter, format export.Format) error {
	companies, err := client.ListCompanies(ctx, f)
	if err != nil {
		return eris.Wrap(err, "companies: list")
	}
	return export.Write(out, format, companies)
}

func init() {
	addFilterFlags(companiesCmd.Flags())
	companiesCmd.Flags().StringP("output", "o", "table", "output format (table, json, yaml, csv, xlsx)")
	companiesCmd.Flags().StringP("file", "f", "", "write output to this file instead of stdout")
	rootCmd.AddCommand(companiesCmd)
}
