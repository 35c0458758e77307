package report

import "encoding/json"

// Section is one typed block of a Report. It is an open record discriminated
// by its "type" field; any extension field is preserved as decoded.
type Section map[string]any

// Trend values used by single-statistic sections.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

func (s Section) Type() string    { return s.String("type") }
func (s Section) Title() string   { return s.String("title") }
func (s Section) Content() string { return s.String("content") }

// String returns the named field when it is a string.
func (s Section) String(field string) string {
	v, _ := s[field].(string)
	return v
}

// Has reports whether field is present with a non-null value.
func (s Section) Has(field string) bool {
	v, ok := s[field]
	return ok && v != nil
}

// Decode re-encodes the section into out, for callers that want a typed view
// of a known section shape.
func (s Section) Decode(out any) error {
	raw, err := json.Marshal(map[string]any(s))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Step is one entry of a "steps" sequence.
type Step struct {
	Step        float64 `json:"step"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// ComparisonItem is one row of a "comparisonItems" sequence.
type ComparisonItem struct {
	Label string `json:"label"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

// DataPoint is an element of the legacy chart "data" array.
type DataPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}
