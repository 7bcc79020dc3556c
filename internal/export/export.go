// Package export writes a company result set in machine-readable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/discovery-cli/internal/listview"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// Format is an output format.
type Format string

const (
	Table Format = "table"
	JSON  Format = "json"
	YAML  Format = "yaml"
	CSV   Format = "csv"
	XLSX  Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{Table, JSON, YAML, CSV, XLSX}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool { return f == XLSX }

// columns are the flat export columns for csv and xlsx.
var columns = []string{
	"ID", "Name", "CIK", "Location", "Industry", "Revenue Range", "Amount Raised",
	"Founded", "Latest Filing", "Jurisdiction", "Status", "Website", "Careers",
}

// Write encodes companies to w in the given format. JSON and YAML carry the
// raw entities; table, csv and xlsx carry the list projection.
func Write(w io.Writer, format Format, companies []discovery.Company) error {
	if companies == nil {
		companies = []discovery.Company{}
	}
	switch format {
	case Table:
		return listview.Render(w, listview.ProjectAll(companies))
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(companies); err != nil {
			return eris.Wrap(err, "export: encode json")
		}
		return nil
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(companies); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		if err := enc.Close(); err != nil {
			return eris.Wrap(err, "export: close yaml encoder")
		}
		return nil
	case CSV:
		return writeCSV(w, companies)
	case XLSX:
		return writeXLSX(w, companies)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

func record(c discovery.Company) []string {
	r := listview.Project(c)
	return []string{
		strconv.Itoa(c.ID),
		c.Name,
		c.CIK,
		r.Location,
		r.Industry,
		r.Revenue,
		r.AmountRaised,
		r.Founded,
		r.LatestFiling,
		c.Jurisdiction,
		listview.Badge(r.Status),
		c.WebsiteURL,
		c.CareersURL,
	}
}

func writeCSV(w io.Writer, companies []discovery.Company) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, c := range companies {
		if err := cw.Write(record(c)); err != nil {
			return eris.Wrapf(err, "export: write csv row for company %d", c.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

func writeXLSX(w io.Writer, companies []discovery.Company) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Companies")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	addRow(sheet, columns)
	for _, c := range companies {
		addRow(sheet, record(c))
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}
