// Package report holds the document model produced by a generation: a Report
// with its ordered, open-ended sections and optional citations.
package report

import (
	"encoding/json"
	"strings"
)

// Source is a citation attached to a Report. Sources are unique by URI.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Report is the top-level generated document.
type Report struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Sections []Section `json:"sections"`
	Sources  []Source  `json:"sources,omitempty"`
}

// Displayable reports whether r may be surfaced to a caller: a non-empty title
// and a present (possibly empty) sections sequence.
func (r *Report) Displayable() bool {
	return r != nil && r.Title != "" && r.Sections != nil
}

// WithSources returns a copy of r carrying srcs. An empty srcs leaves the
// copy without a sources field.
func (r *Report) WithSources(srcs []Source) *Report {
	if r == nil {
		return nil
	}
	out := *r
	if len(srcs) == 0 {
		out.Sources = nil
		return &out
	}
	out.Sources = append([]Source(nil), srcs...)
	return &out
}

func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	if r.Sections == nil {
		r.Sections = []Section{}
	}
	return json.Marshal(plain(r))
}

// FromValue converts a decoded JSON value into a Report. The second result is
// false when v is not an object or the result is not Displayable.
//
// Field presence inside sections is not checked; sections are kept as open
// records. Non-object entries of "sections" are skipped.
func FromValue(v any) (*Report, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	title, _ := obj["title"].(string)
	rawSections, ok := obj["sections"].([]any)
	if !ok || title == "" {
		return nil, false
	}
	summary, _ := obj["summary"].(string)

	sections := make([]Section, 0, len(rawSections))
	for _, rs := range rawSections {
		if m, ok := rs.(map[string]any); ok {
			sections = append(sections, Section(m))
		}
	}
	r := &Report{
		Title:    title,
		Summary:  summary,
		Sections: sections,
		Sources:  sourcesFrom(obj["sources"]),
	}
	return r, true
}

func sourcesFrom(v any) []Source {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []Source
	seen := make(map[string]struct{}, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		uri, _ := m["uri"].(string)
		uri = strings.TrimSpace(uri)
		if uri == "" {
			continue
		}
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		title, _ := m["title"].(string)
		out = append(out, Source{Title: title, URI: uri})
	}
	return out
}
