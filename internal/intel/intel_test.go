package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

func enriched() discovery.Company {
	return discovery.Company{
		ID:                       1,
		Name:                     "Acme Robotics",
		MaturityInfo:             `{"stage":"Early-Stage","age":1,"is_early_stage":true}`,
		FundingDetails:           `{"bottlenecks":["Prototype Validation","Go-to-market"]}`,
		FounderAnalysis:          `{"summary":"Repeat founder"}`,
		PublicPresenceQuality:    `{"quality_score":"Low","website_status":"Missing"}`,
		HiringSignal:             `{"hiring_velocity":"Deferring"}`,
		DesignOpportunity:        `{"priority":"High","needs":["Brand"],"key_questions":["Who owns design?"]}`,
		EngagementRecommendation: "Lead with a brand sprint.",
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		present bool
	}{
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"null", "null", false},
		{"malformed", `{"stage":`, false},
		{"not an object", `"Early-Stage"`, false},
		{"array", `["a"]`, false},
		{"valid", `{"stage":"Growth"}`, true},
		{"empty object", `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Decode[Maturity]("maturity_info", tt.raw)
			assert.Equal(t, tt.present, got.Present)
		})
	}
}

func TestText_AcceptsScalars(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]string{
		`{"quality_score":"High"}`: "High",
		`{"quality_score":7.5}`:    "7.5",
		`{"quality_score":8}`:      "8",
		`{"quality_score":true}`:   "true",
		`{"quality_score":null}`:   "",
	} {
		got := Decode[Presence]("public_presence_quality", raw)
		require.True(t, got.Present, raw)
		assert.Equal(t, want, string(got.Value.QualityScore), raw)
	}

	got := Decode[Presence]("public_presence_quality", `{"quality_score":{"a":1},"website_status":"Live"}`)
	require.True(t, got.Present)
	assert.Empty(t, got.Value.QualityScore)
	assert.Equal(t, "Live", got.Value.WebsiteStatus)
}

func TestProject_FullCard(t *testing.T) {
	t.Parallel()

	card, ok := Project(enriched())
	require.True(t, ok)
	assert.Equal(t, "Early-Stage", card.Stage)
	assert.Equal(t, []string{"Prototype Validation", "Go-to-market"}, card.Bottlenecks)
	assert.Equal(t, "Deferring", card.HiringVelocity)
	assert.Equal(t, "Low", card.PresenceScore)
	assert.Equal(t, "High", card.Priority)
	assert.True(t, card.Emphasized())
	assert.Equal(t, "Lead with a brand sprint.", card.Recommendation)
	assert.Equal(t, "Repeat founder", card.FounderInsights)
	assert.Equal(t, []string{"Who owns design?"}, card.KeyQuestions)
}

func TestProject_OpportunityGatesCard(t *testing.T) {
	t.Parallel()

	c := enriched()
	c.DesignOpportunity = ""
	_, ok := Project(c)
	assert.False(t, ok)

	c.DesignOpportunity = `{"priority":`
	_, ok = Project(c)
	assert.False(t, ok, "malformed opportunity omits the section")
}

func TestProject_MalformedSiblingsDegrade(t *testing.T) {
	t.Parallel()

	c := enriched()
	c.MaturityInfo = "not json"
	c.FundingDetails = `{"bottlenecks": {"a": 1}}`
	c.HiringSignal = `{`
	c.PublicPresenceQuality = `[]`

	card, ok := Project(c)
	require.True(t, ok)
	assert.Empty(t, card.Stage)
	assert.Equal(t, []string{NoBottlenecks}, card.Bottlenecks)
	assert.Empty(t, card.HiringVelocity)
	assert.Empty(t, card.PresenceScore)
	assert.Equal(t, "High", card.Priority)
}

func TestProject_Defaults(t *testing.T) {
	t.Parallel()

	c := discovery.Company{DesignOpportunity: `{"priority":"Medium","founder_insights":"Technical founder"}`}
	card, ok := Project(c)
	require.True(t, ok)
	assert.Equal(t, NoRecommendation, card.Recommendation)
	assert.Equal(t, []string{NoBottlenecks}, card.Bottlenecks)
	assert.False(t, card.Emphasized())
	assert.Equal(t, "Technical founder", card.FounderInsights)

	c.FundingDetails = `{"bottlenecks":[]}`
	card, _ = Project(c)
	assert.Equal(t, []string{NoBottlenecks}, card.Bottlenecks)
}

func TestOptional(t *testing.T) {
	t.Parallel()

	v, ok := Some(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	var none Optional[int]
	_, ok = none.Get()
	assert.False(t, ok)
}

func TestProject_LooseOpportunityKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Card
	}{
		{
			name: "numeric confidence",
			raw:  `{"priority":"High","confidence_score":0.8}`,
			want: Card{Priority: "High"},
		},
		{
			name: "object opportunities",
			raw:  `{"priority":"High","ai_design_opportunities":[{"title":"x"},{"name":"y"},{"other":1},"z"]}`,
			want: Card{Priority: "High", Opportunities: []string{"x", "y", "z"}},
		},
		{
			name: "scalar needs",
			raw:  `{"priority":"High","needs":"ux"}`,
			want: Card{Priority: "High"},
		},
		{
			name: "scalar key questions",
			raw:  `{"priority":"High","key_questions":"Who ships?","founder_insights":["a"],"market_positioning":3}`,
			want: Card{Priority: "High", KeyQuestions: []string{"Who ships?"}, MarketPositioning: "3"},
		},
		{
			name: "numeric priority",
			raw:  `{"priority":2}`,
			want: Card{Priority: "2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			card, ok := Project(discovery.Company{DesignOpportunity: tt.raw})
			require.True(t, ok)
			assert.Equal(t, tt.want.Priority, card.Priority)
			assert.Equal(t, tt.want.Priority == HighPriority, card.Emphasized())
			assert.Equal(t, tt.want.Opportunities, card.Opportunities)
			assert.Equal(t, tt.want.KeyQuestions, card.KeyQuestions)
			assert.Equal(t, tt.want.MarketPositioning, card.MarketPositioning)
			assert.Empty(t, card.FounderInsights)
		})
	}
}

func TestDecode_LooseSiblingKeys(t *testing.T) {
	t.Parallel()

	m := Decode[Maturity]("maturity_info", `{"stage":"Seed","is_early_stage":"yes"}`)
	require.True(t, m.Present)
	assert.Equal(t, "Seed", m.Value.Stage)
	assert.False(t, m.Value.IsEarlyStage)

	m = Decode[Maturity]("maturity_info", `{"stage":"Seed","is_early_stage":"true"}`)
	assert.True(t, m.Value.IsEarlyStage)

	p := Decode[Presence]("public_presence_quality", `{"quality_score":"Low","website_status":{"code":404}}`)
	require.True(t, p.Present)
	assert.Equal(t, Text("Low"), p.Value.QualityScore)
	assert.Empty(t, p.Value.WebsiteStatus)

	f := Decode[Funding]("funding_details", `{"bottlenecks":["Hiring",null,7]}`)
	require.True(t, f.Present)
	assert.Equal(t, []string{"Hiring", "7"}, f.Value.Bottlenecks)
}

func TestProject_StripsControlSequences(t *testing.T) {
	t.Parallel()

	c := enriched()
	c.EngagementRecommendation = "Call\x1b[2J now"
	c.FundingDetails = `{"bottlenecks":["\u001b[31mCash\u001b[0m"]}`
	c.DesignOpportunity = `{"priority":"High\u0007","key_questions":["Why\nnow?"]}`

	card, ok := Project(c)
	require.True(t, ok)
	assert.Equal(t, "Call now", card.Recommendation)
	assert.Equal(t, []string{"Cash"}, card.Bottlenecks)
	assert.Equal(t, "High", card.Priority)
	assert.True(t, card.Emphasized())
	assert.Equal(t, []string{"Why now?"}, card.KeyQuestions)
}
