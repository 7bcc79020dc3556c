package listview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

func acme() discovery.Company {
	return discovery.Company{
		ID:               7,
		CIK:              "0001234567",
		Name:             "Acme Robotics",
		City:             "Austin",
		State:            "TX",
		Industry:         "Other Technology",
		FoundedYear:      "2024",
		LatestFilingDate: "2025-01-15",
		RevenueRange:     "$1 - $1,000,000",
		AmountSold:       "2500000",
		WebsiteURL:       "https://acme.example",
		EnrichmentStatus: discovery.StatusCompleted,
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"2500000", "$2,500,000"},
		{"0", "$0"},
		{"999", "$999"},
		{"1500000.75", "$1,500,000"},
		{" 42000 ", "$42,000"},
		{"1,000", "$1,000"},
		{"Unknown", NotAvailable},
		{"", NotAvailable},
		{"lots", NotAvailable},
		{"NaN", NotAvailable},
		{"Inf", NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatAmount(tt.raw))
		})
	}
}

func TestFormatLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Austin, TX", FormatLocation("Austin", "TX"))
	assert.Equal(t, "Unknown", FormatLocation("Unknown", "TX"))
	assert.Equal(t, "Boston, Unknown", FormatLocation("Boston", "Unknown"))
}

func TestBadge(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Pending", Badge(discovery.StatusPending))
	assert.Equal(t, "Processing", Badge(discovery.StatusProcessing))
	assert.Equal(t, "AI Enriched", Badge(discovery.StatusCompleted))
	assert.Equal(t, "Failed", Badge(discovery.StatusFailed))
	assert.Equal(t, "Pending", Badge(""))
	assert.Equal(t, "Pending", Badge("queued"))
}

func TestProject(t *testing.T) {
	t.Parallel()

	r := Project(acme())
	assert.Equal(t, 7, r.ID)
	assert.Equal(t, [NumColumns]string{
		"Acme Robotics (0001234567)",
		"Austin, TX",
		"Other Technology",
		"$1 - $1,000,000",
		"$2,500,000",
		"2024",
		"2025-01-15",
		"AI Enriched",
		"Website",
	}, r.Cells())

	_, ok := r.Link(Careers)
	assert.False(t, ok)
	l, ok := r.Link(Website)
	require.True(t, ok)
	assert.Equal(t, "https://acme.example", l.URL)
}

func TestProject_Links(t *testing.T) {
	t.Parallel()

	c := acme()
	c.CareersURL = "https://acme.example/jobs"
	assert.Equal(t, "Website Careers", Project(c).LinksText())

	c.WebsiteURL = ""
	assert.Equal(t, "Careers", Project(c).LinksText())

	c.CareersURL = ""
	assert.Equal(t, NoLinks, Project(c).LinksText())
	assert.Empty(t, Project(c).Links)
}

func TestProject_MissingStatusIsPending(t *testing.T) {
	t.Parallel()

	c := acme()
	c.EnrichmentStatus = ""
	assert.Equal(t, "Pending", Project(c).Cells()[ColStatus])
}

func TestRender_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil))
	assert.Equal(t, EmptyMessage+"\n", buf.String())
}

func TestRender_Table(t *testing.T) {
	t.Parallel()

	other := acme()
	other.ID = 8
	other.Name = "Beta Bio"
	other.City = "Unknown"
	other.AmountSold = "Unknown"

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, ProjectAll([]discovery.Company{acme(), other})))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "COMPANY"))
	assert.Contains(t, lines[0], "AMOUNT RAISED")
	assert.Contains(t, lines[2], "$2,500,000")
	assert.Contains(t, lines[3], "Beta Bio")
	assert.Contains(t, lines[3], "N/A")
	assert.NotContains(t, buf.String(), EmptyMessage)
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Acme Robotics", "Acme Robotics"},
		{"\x1b[2J\x1b[HAcme", "Acme"},
		{"\x1b[31mRed\x1b[0m Co", "Red Co"},
		{"Line\nbreak\tand\rtab", "Line break and tab"},
		{"bell\x07 null\x00 del\x7f c1\u0085", "bell null del c1"},
		{"Café ☕", "Café ☕"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "%q", tt.in)
	}
}

func TestProject_StripsControlSequences(t *testing.T) {
	t.Parallel()

	c := acme()
	c.Name = "Evil\x1b[2J Corp"
	c.Industry = "Tech\x1b]0;pwned\x07"
	r := Project(c)
	assert.Equal(t, "Evil Corp", r.Name)
	assert.Equal(t, "Tech", r.Industry)
}
