// Package listview projects companies into the fixed columns of the result
// list and renders them as a plain table.
package listview

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// EmptyMessage replaces the table when the result set is empty.
const EmptyMessage = "No newly founded companies found. Try ingesting more data."

// NotAvailable is shown for amounts that cannot be formatted.
const NotAvailable = "N/A"

// NoLinks is the links placeholder when a company has neither URL.
const NoLinks = "-"

// Column indexes a list column.
type Column int

const (
	ColCompany Column = iota
	ColLocation
	ColIndustry
	ColRevenue
	ColAmount
	ColFounded
	ColFiling
	ColStatus
	ColLinks

	NumColumns
)

// Headers are the column titles in display order.
var Headers = [NumColumns]string{
	"Company", "Location", "Industry", "Revenue", "Amount Raised",
	"Founded", "Latest Filing", "Status", "Links",
}

// LinkKind distinguishes the two company links.
type LinkKind int

const (
	Website LinkKind = iota
	Careers
)

func (k LinkKind) String() string {
	if k == Careers {
		return "Careers"
	}
	return "Website"
}

// Link is an activatable external link.
type Link struct {
	Kind LinkKind
	URL  string
}

// Label is the link text shown in the list.
func (l Link) Label() string { return l.Kind.String() }

// Row is the display projection of one company.
type Row struct {
	ID           int
	Name         string
	CIK          string
	Location     string
	Industry     string
	Revenue      string
	AmountRaised string
	Founded      string
	LatestFiling string
	Status       discovery.EnrichmentStatus
	Links        []Link
}

// Project builds the row for c.
func Project(c discovery.Company) Row {
	r := Row{
		ID:           c.ID,
		Name:         Sanitize(c.Name),
		CIK:          Sanitize(c.CIK),
		Location:     Sanitize(FormatLocation(c.City, c.State)),
		Industry:     Sanitize(c.Industry),
		Revenue:      Sanitize(c.RevenueRange),
		AmountRaised: FormatAmount(c.AmountSold),
		Founded:      Sanitize(c.FoundedYear),
		LatestFiling: Sanitize(c.LatestFilingDate),
		Status:       c.Status(),
	}
	if c.WebsiteURL != "" {
		r.Links = append(r.Links, Link{Kind: Website, URL: c.WebsiteURL})
	}
	if c.CareersURL != "" {
		r.Links = append(r.Links, Link{Kind: Careers, URL: c.CareersURL})
	}
	return r
}

// ProjectAll projects every company, keeping order.
func ProjectAll(companies []discovery.Company) []Row {
	rows := make([]Row, len(companies))
	for i, c := range companies {
		rows[i] = Project(c)
	}
	return rows
}

// Link returns the row's link of the given kind.
func (r Row) Link(kind LinkKind) (Link, bool) {
	for _, l := range r.Links {
		if l.Kind == kind {
			return l, true
		}
	}
	return Link{}, false
}

// LinksText is the plain links cell.
func (r Row) LinksText() string {
	if len(r.Links) == 0 {
		return NoLinks
	}
	labels := make([]string, len(r.Links))
	for i, l := range r.Links {
		labels[i] = l.Label()
	}
	return strings.Join(labels, LinkSeparator)
}

// CompanyText is the plain company cell: the name followed by the CIK.
func (r Row) CompanyText() string {
	if r.CIK == "" {
		return r.Name
	}
	return r.Name + " (" + r.CIK + ")"
}

// Cells returns the plain text of every column.
func (r Row) Cells() [NumColumns]string {
	return [NumColumns]string{
		r.CompanyText(),
		r.Location,
		r.Industry,
		r.Revenue,
		r.AmountRaised,
		r.Founded,
		r.LatestFiling,
		Badge(r.Status),
		r.LinksText(),
	}
}

// Sanitize makes server text safe to print on a terminal. Escape sequences
// and control characters are removed; line breaks and tabs become spaces.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, ansi.Strip(s))
}

// FormatLocation renders "city, state", or "Unknown" when the city is the
// unknown sentinel.
func FormatLocation(city, state string) string {
	if city == discovery.Unknown {
		return discovery.Unknown
	}
	return city + ", " + state
}

// FormatAmount renders a raw amount sold as whole US dollars with thousands
// separators. Empty, "Unknown" and non-numeric values yield "N/A";
// fractional amounts are truncated.
func FormatAmount(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == discovery.Unknown {
		return NotAvailable
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= math.MaxInt64 {
		return NotAvailable
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("$%d", int64(v))
}

// Badge is the label of an enrichment status. Anything unrecognized is
// pending.
func Badge(s discovery.EnrichmentStatus) string {
	switch s {
	case discovery.StatusProcessing:
		return "Processing"
	case discovery.StatusCompleted:
		return "AI Enriched"
	case discovery.StatusFailed:
		return "Failed"
	default:
		return "Pending"
	}
}

// Render writes rows as an aligned table, or the empty-state message when
// there are none.
func Render(out io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, EmptyMessage)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := make([]string, NumColumns)
	rule := make([]string, NumColumns)
	for i, h := range Headers {
		header[i] = strings.ToUpper(h)
		rule[i] = strings.Repeat("-", len(h))
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	_, _ = fmt.Fprintln(w, strings.Join(rule, "\t"))

	for _, r := range rows {
		cells := r.Cells()
		_, _ = fmt.Fprintln(w, strings.Join(cells[:], "\t"))
	}
	return w.Flush()
}
