package discovery

import (
	"net/url"
	"strconv"
)

// EnrichmentStatus is the backend's AI enrichment state for a company.
type EnrichmentStatus string

const (
	StatusPending    EnrichmentStatus = "pending"
	StatusProcessing EnrichmentStatus = "processing"
	StatusCompleted  EnrichmentStatus = "completed"
	StatusFailed     EnrichmentStatus = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s EnrichmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Unknown is the sentinel the ingestion pipeline writes for missing values.
const Unknown = "Unknown"

// RevenueRanges are the revenue bracket labels reported on Form D, in
// ascending order.
var RevenueRanges = []string{
	"$1 - $1,000,000",
	"$1,000,001 - $5,000,000",
	"$5,000,001 - $25,000,000",
	"$25,000,001 - $100,000,000",
	"Over $100,000,000",
	"Decline to Disclose",
}

// Company is a company derived from a Form D filing. Values are read-only
// projections of server state.
type Company struct {
	ID               int    `json:"id" yaml:"id"`
	CIK              string `json:"cik" yaml:"cik"`
	Name             string `json:"name" yaml:"name"`
	City             string `json:"city" yaml:"city"`
	State            string `json:"state" yaml:"state"`
	Industry         string `json:"industry" yaml:"industry"`
	FoundedYear      string `json:"founded_year" yaml:"founded_year"`
	LatestFilingDate string `json:"latest_filing_date" yaml:"latest_filing_date"`
	RevenueRange     string `json:"revenue_range" yaml:"revenue_range"`
	AmountSold       string `json:"amount_sold" yaml:"amount_sold"`
	Jurisdiction     string `json:"jurisdiction" yaml:"jurisdiction"`
	ExecutiveName    string `json:"executive_name" yaml:"executive_name"`
	ExecutiveTitle   string `json:"executive_title" yaml:"executive_title"`
	WebsiteURL       string `json:"website_url,omitempty" yaml:"website_url,omitempty"`
	CareersURL       string `json:"careers_url,omitempty" yaml:"careers_url,omitempty"`

	// Intelligence signals, each an independently JSON-encoded object.
	MaturityInfo             string `json:"maturity_info,omitempty" yaml:"maturity_info,omitempty"`
	FundingDetails           string `json:"funding_details,omitempty" yaml:"funding_details,omitempty"`
	FounderAnalysis          string `json:"founder_analysis,omitempty" yaml:"founder_analysis,omitempty"`
	PublicPresenceQuality    string `json:"public_presence_quality,omitempty" yaml:"public_presence_quality,omitempty"`
	HiringSignal             string `json:"hiring_signal,omitempty" yaml:"hiring_signal,omitempty"`
	DesignOpportunity        string `json:"design_opportunity,omitempty" yaml:"design_opportunity,omitempty"`
	EngagementRecommendation string `json:"engagement_recommendation,omitempty" yaml:"engagement_recommendation,omitempty"`

	EnrichmentStatus EnrichmentStatus `json:"enrichment_status,omitempty" yaml:"enrichment_status,omitempty"`
}

// Status returns the enrichment status, treating an absent value as pending.
func (c Company) Status() EnrichmentStatus {
	if c.EnrichmentStatus == "" {
		return StatusPending
	}
	return c.EnrichmentStatus
}

// Filter is the list query. The zero value matches everything. Empty
// strings and non-positive integers are "unset" and never serialized.
type Filter struct {
	Industry     string `json:"industry,omitempty" yaml:"industry,omitempty"`
	City         string `json:"city,omitempty" yaml:"city,omitempty"`
	State        string `json:"state,omitempty" yaml:"state,omitempty"`
	RevenueRange string `json:"revenue_range,omitempty" yaml:"revenue_range,omitempty"`
	FoundedYear  string `json:"founded_year,omitempty" yaml:"founded_year,omitempty"`
	Limit        int    `json:"limit,omitempty" yaml:"limit,omitempty"`
	DaysAgo      int    `json:"days_ago,omitempty" yaml:"days_ago,omitempty"`
	StartupMode  bool   `json:"startup_mode,omitempty" yaml:"startup_mode,omitempty"`
}

// Query encodes the present fields of f as URL query parameters.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Industry != "" {
		q.Set("industry", f.Industry)
	}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.State != "" {
		q.Set("state", f.State)
	}
	if f.RevenueRange != "" {
		q.Set("revenue_range", f.RevenueRange)
	}
	if f.FoundedYear != "" {
		q.Set("founded_year", f.FoundedYear)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.DaysAgo > 0 {
		q.Set("days_ago", strconv.Itoa(f.DaysAgo))
	}
	if f.StartupMode {
		q.Set("startup_mode", "true")
	}
	return q
}

// IngestResponse is returned by POST /ingest.
type IngestResponse struct {
	Message string `json:"message"`
}

// EnrichResponse is returned by POST /companies/{id}/enrich.
type EnrichResponse struct {
	Status    string `json:"status"`
	CompanyID int    `json:"company_id"`
}

// EnrichAllResponse is returned by POST /enrich-all.
type EnrichAllResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusResponse is returned by GET /companies/{id}/enrichment-status.
type StatusResponse struct {
	CompanyID        int              `json:"company_id"`
	EnrichmentStatus EnrichmentStatus `json:"enrichment_status"`
}
