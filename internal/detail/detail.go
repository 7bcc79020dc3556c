package detail

import (
	"github.com/sells-group/discovery-cli/internal/intel"
	"github.com/sells-group/discovery-cli/internal/listview"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// UnknownLocation is the detail location when the city is unknown.
const UnknownLocation = "Unknown Location"

// Field is one labelled line of the detail view.
type Field struct {
	Label string
	Value string
}

// Detail is the full display projection of one company.
type Detail struct {
	ID     int
	Name   string
	CIK    string
	Status discovery.EnrichmentStatus
	Badge  string
	Fields []Field
	Links  []listview.Link

	Intel    intel.Card
	HasIntel bool
}

// Project builds the detail view of c. It is a superset of the list row
// with jurisdiction and executive added, plus the intelligence card when
// the design opportunity signal decodes.
func Project(c discovery.Company) Detail {
	row := listview.Project(c)

	location := row.Location
	if c.City == discovery.Unknown {
		location = UnknownLocation
	}

	d := Detail{
		ID:     c.ID,
		Name:   row.Name,
		CIK:    row.CIK,
		Status: c.Status(),
		Badge:  listview.Badge(c.Status()),
		Links:  row.Links,
		Fields: []Field{
			{"Location", location},
			{"Industry", row.Industry},
			{"Revenue Range", row.Revenue},
			{"Founded", row.Founded},
			{"Jurisdiction", listview.Sanitize(c.Jurisdiction)},
			{"Amount Sold", row.AmountRaised},
			{"Key Executive", listview.Sanitize(Executive(c.ExecutiveName, c.ExecutiveTitle))},
			{"Latest Filing", row.LatestFiling},
		},
	}
	d.Intel, d.HasIntel = intel.Project(c)
	return d
}

// Executive renders "name (title)", or "Unknown" when no name is known. An
// empty title leaves just the name.
func Executive(name, title string) string {
	if name == "" || name == discovery.Unknown {
		return discovery.Unknown
	}
	if title == "" {
		return name
	}
	return name + " (" + title + ")"
}
