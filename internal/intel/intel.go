// Package intel decodes the AI-derived intelligence signals attached to a
// company. Each signal arrives as an independently JSON-encoded string; a
// missing or malformed signal is treated as absent and never reported as an
// error.
package intel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/discovery-cli/internal/listview"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// HighPriority is the top priority label; it gets visual emphasis.
const HighPriority = "High"

// NoBottlenecks is shown when no funding bottleneck was detected.
const NoBottlenecks = "None detected"

// NoRecommendation is shown when the engagement recommendation is empty.
const NoRecommendation = "No specific recommendation."

// Optional holds a decoded signal or nothing.
type Optional[T any] struct {
	Value   T
	Present bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

// Decode parses raw as a JSON object of type T. Empty input and decode
// failures both yield an absent value.
func Decode[T any](field, raw string) Optional[T] {
	var out Optional[T]
	if strings.TrimSpace(raw) == "" {
		return out
	}
	var v *T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		zap.L().Debug("intel: ignoring malformed signal", zap.String("field", field), zap.Error(err))
		return out
	}
	if v == nil {
		return out
	}
	return Some(*v)
}

// Text is a JSON scalar rendered as text. It accepts strings, numbers and
// booleans so that scores survive either encoding.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*t = Text(strconv.FormatBool(v))
		return nil
	}
	return fmt.Errorf("intel: cannot render %s as text", b)
}

// object is a signal decoded key by key. A key whose value has an
// unexpected type reads as its zero value and leaves its siblings intact.
type object map[string]json.RawMessage

func (o object) text(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var t Text
	if err := json.Unmarshal(raw, &t); err != nil {
		zap.L().Debug("intel: ignoring malformed key", zap.String("key", key), zap.Error(err))
		return ""
	}
	return string(t)
}

// list reads an array of scalars or named objects. A lone scalar is a
// one-item list.
func (o object) list(key string) []string {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := o.text(key); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := itemText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (o object) flag(key string) bool {
	b, _ := strconv.ParseBool(o.text(key))
	return b
}

// itemText renders one list element. Objects use their title, name or
// description.
func itemText(raw json.RawMessage) string {
	var t Text
	if err := json.Unmarshal(raw, &t); err == nil {
		return string(t)
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return ""
	}
	for _, key := range []string{"title", "name", "description"} {
		if s := o.text(key); s != "" {
			return s
		}
	}
	return ""
}

// Maturity is the decoded maturity_info signal.
type Maturity struct {
	Stage        string
	Age          Text
	IsEarlyStage bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Maturity) UnmarshalJSON(b []byte) error {
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	*m = Maturity{Stage: o.text("stage"), Age: Text(o.text("age")), IsEarlyStage: o.flag("is_early_stage")}
	return nil
}

// Funding is the decoded funding_details signal.
type Funding struct {
	Bottlenecks []string
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Funding) UnmarshalJSON(b []byte) error {
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	*f = Funding{Bottlenecks: o.list("bottlenecks")}
	return nil
}

// Founders is the decoded founder_analysis signal.
type Founders struct {
	Summary string
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Founders) UnmarshalJSON(b []byte) error {
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	*f = Founders{Summary: o.text("summary")}
	return nil
}

// Presence is the decoded public_presence_quality signal.
type Presence struct {
	QualityScore  Text
	WebsiteStatus string
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Presence) UnmarshalJSON(b []byte) error {
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	*p = Presence{QualityScore: Text(o.text("quality_score")), WebsiteStatus: o.text("website_status")}
	return nil
}

// Hiring is the decoded hiring_signal signal.
type Hiring struct {
	HiringVelocity string
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hiring) UnmarshalJSON(b []byte) error {
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	*h = Hiring{HiringVelocity: o.text("hiring_velocity")}
	return nil
}

// Opportunity is the decoded design_opportunity signal, including the
// fields merged in by AI enrichment. Enrichment output is passed through
// from a language model, so every key is read on its own.
type Opportunity struct {
	Priority              string
	Needs                 []string
	AIDesignOpportunities []string
	FounderInsights       string
	MarketPositioning     string
	ConfidenceScore       string
	KeyQuestions          []string
}

// UnmarshalJSON implements json.Unmarshaler.
func (op *Opportunity) UnmarshalJSON(b []byte) error {
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	*op = Opportunity{
		Priority:              o.text("priority"),
		Needs:                 o.list("needs"),
		AIDesignOpportunities: o.list("ai_design_opportunities"),
		FounderInsights:       o.text("founder_insights"),
		MarketPositioning:     o.text("market_positioning"),
		ConfidenceScore:       o.text("confidence_score"),
		KeyQuestions:          o.list("key_questions"),
	}
	return nil
}

// Signals holds every decoded signal of one company.
type Signals struct {
	Maturity    Optional[Maturity]
	Funding     Optional[Funding]
	Founders    Optional[Founders]
	Presence    Optional[Presence]
	Hiring      Optional[Hiring]
	Opportunity Optional[Opportunity]
}

// DecodeAll decodes every intelligence field of c.
func DecodeAll(c discovery.Company) Signals {
	return Signals{
		Maturity:    Decode[Maturity]("maturity_info", c.MaturityInfo),
		Funding:     Decode[Funding]("funding_details", c.FundingDetails),
		Founders:    Decode[Founders]("founder_analysis", c.FounderAnalysis),
		Presence:    Decode[Presence]("public_presence_quality", c.PublicPresenceQuality),
		Hiring:      Decode[Hiring]("hiring_signal", c.HiringSignal),
		Opportunity: Decode[Opportunity]("design_opportunity", c.DesignOpportunity),
	}
}

// Card is the display projection of a company's intelligence.
type Card struct {
	Stage          string
	Recommendation string
	Bottlenecks    []string
	HiringVelocity string
	PresenceScore  string
	Priority       string

	FounderInsights   string
	MarketPositioning string
	Opportunities     []string
	KeyQuestions      []string
}

// Emphasized reports whether the priority is the highest one.
func (c Card) Emphasized() bool {
	return c.Priority == HighPriority
}

// Project builds the intelligence card for c. It returns false when the
// design opportunity signal is missing or malformed; no card is shown then.
func Project(c discovery.Company) (Card, bool) {
	s := DecodeAll(c)
	opp, ok := s.Opportunity.Get()
	if !ok {
		return Card{}, false
	}

	card := Card{
		Recommendation:    c.EngagementRecommendation,
		Priority:          opp.Priority,
		FounderInsights:   opp.FounderInsights,
		MarketPositioning: opp.MarketPositioning,
		Opportunities:     opp.AIDesignOpportunities,
		KeyQuestions:      opp.KeyQuestions,
	}
	if card.Recommendation == "" {
		card.Recommendation = NoRecommendation
	}
	if m, ok := s.Maturity.Get(); ok {
		card.Stage = m.Stage
	}
	if f, ok := s.Funding.Get(); ok && len(f.Bottlenecks) > 0 {
		card.Bottlenecks = f.Bottlenecks
	} else {
		card.Bottlenecks = []string{NoBottlenecks}
	}
	if h, ok := s.Hiring.Get(); ok {
		card.HiringVelocity = h.HiringVelocity
	}
	if p, ok := s.Presence.Get(); ok {
		card.PresenceScore = string(p.QualityScore)
	}
	if card.FounderInsights == "" {
		if f, ok := s.Founders.Get(); ok {
			card.FounderInsights = f.Summary
		}
	}
	return card.sanitized(), true
}

// sanitized strips terminal control sequences from every model-written
// string.
func (c Card) sanitized() Card {
	c.Stage = listview.Sanitize(c.Stage)
	c.Recommendation = listview.Sanitize(c.Recommendation)
	c.HiringVelocity = listview.Sanitize(c.HiringVelocity)
	c.PresenceScore = listview.Sanitize(c.PresenceScore)
	c.Priority = listview.Sanitize(c.Priority)
	c.FounderInsights = listview.Sanitize(c.FounderInsights)
	c.MarketPositioning = listview.Sanitize(c.MarketPositioning)
	c.Bottlenecks = sanitizeAll(c.Bottlenecks)
	c.Opportunities = sanitizeAll(c.Opportunities)
	c.KeyQuestions = sanitizeAll(c.KeyQuestions)
	return c
}

func sanitizeAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = listview.Sanitize(s)
	}
	return out
}
