package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestFromValue_RequiresTitleAndSections(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{"complete", `{"title":"T","sections":[]}`, true},
		{"empty title", `{"title":"","sections":[]}`, false},
		{"missing sections", `{"title":"T"}`, false},
		{"sections not array", `{"title":"T","sections":{}}`, false},
		{"title not string", `{"title":5,"sections":[]}`, false},
		{"array root", `[1,2]`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, ok := FromValue(decode(t, tc.in))
			assert.Equal(t, tc.ok, ok)
			if ok {
				assert.True(t, r.Displayable())
			}
		})
	}
}

func TestFromValue_KeepsOpenSectionFields(t *testing.T) {
	r, ok := FromValue(decode(t, `{"title":"T","summary":"S","sections":[
		{"type":"mystery_type","title":"x","custom":{"a":1}},
		"not-a-section",
		{"type":"stat","statValue":"42%","statTrend":"up"}
	]}`))
	require.True(t, ok)
	require.Len(t, r.Sections, 2)
	assert.Equal(t, "mystery_type", r.Sections[0].Type())
	assert.True(t, r.Sections[0].Has("custom"))
	assert.Equal(t, TrendUp, r.Sections[1].String("statTrend"))
	assert.Equal(t, "S", r.Summary)
}

func TestFromValue_DedupesSourcesByURI(t *testing.T) {
	r, ok := FromValue(decode(t, `{"title":"T","sections":[],"sources":[
		{"title":"a","uri":"https://a"},
		{"title":"a again","uri":"https://a"},
		{"title":"no uri"},
		{"title":"b","uri":"https://b"}
	]}`))
	require.True(t, ok)
	assert.Equal(t, []Source{{Title: "a", URI: "https://a"}, {Title: "b", URI: "https://b"}}, r.Sources)
}

func TestMarshal_OmitsEmptySourcesAndKeepsSectionsArray(t *testing.T) {
	raw, err := json.Marshal(&Report{Title: "T"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"T","summary":"","sections":[]}`, string(raw))

	withSrc := (&Report{Title: "T", Sections: []Section{}}).WithSources([]Source{{Title: "s", URI: "u"}})
	raw, err = json.Marshal(withSrc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sources":[{"title":"s","uri":"u"}]`)
}

func TestSectionDecode(t *testing.T) {
	s := Section{"type": "process", "steps": []any{
		map[string]any{"step": 1.0, "title": "Plan", "description": "d"},
	}}
	var out struct {
		Steps []Step `json:"steps"`
	}
	require.NoError(t, s.Decode(&out))
	require.Len(t, out.Steps, 1)
	assert.Equal(t, "Plan", out.Steps[0].Title)
}
