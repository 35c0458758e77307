// Package prompt builds the instructions sent to every backend: generation
// rules, the catalogue of section types, a language directive and sampled
// worked examples.
package prompt

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"infographic/internal/report"
	"infographic/internal/sectiontype"
	"infographic/internal/util/jsonutil"
)

const (
	MinSections     = 3
	MaxSections     = 12
	DefaultSections = 6
)

// TypeSource is the view of the section type registry the composer needs.
type TypeSource interface {
	TypeNames() []string
	Get(name string) (sectiontype.Definition, bool)
	ByCategory(c sectiontype.Category) []sectiontype.Definition
}

// Composer assembles system instructions. Example sampling is driven by an
// internal rand source, so a fixed seed gives reproducible prompts.
type Composer struct {
	types TypeSource

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewComposer returns a Composer over types. A zero seed uses the clock.
func NewComposer(types TypeSource, seed int64) *Composer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Composer{types: types, rnd: rand.New(rand.NewSource(seed))}
}

// ClampSections bounds n to the supported range; n <= 0 means the default.
func ClampSections(n int) int {
	switch {
	case n <= 0:
		return DefaultSections
	case n < MinSections:
		return MinSections
	case n > MaxSections:
		return MaxSections
	}
	return n
}

// BuildSystemInstruction renders the full system prompt.
func (c *Composer) BuildSystemInstruction(sectionCount int, lang Language, includeFewShot bool) string {
	n := ClampSections(sectionCount)
	var b strings.Builder

	b.WriteString("You are an information designer. Produce a single JSON object describing an infographic report about the user's topic.\n")
	b.WriteString("Respond with JSON only. Do not wrap it in markdown and do not add commentary.\n\n")

	b.WriteString("## Output shape\n")
	b.WriteString(`{"title": string, "summary": string, "sections": [section, ...]}` + "\n")
	b.WriteString("- title: a concise headline.\n")
	b.WriteString("- summary: an executive summary of 80 to 100 words.\n\n")

	b.WriteString("## Rules\n")
	fmt.Fprintf(&b, "1. Produce exactly %d sections.\n", n)
	b.WriteString("2. Use at least three different section types and never repeat the same type back to back.\n")
	b.WriteString("3. Every number must be realistic and internally consistent. Prefer recent figures.\n")
	b.WriteString("4. Never emit empty arrays, empty objects or placeholder strings.\n")
	b.WriteString("5. Only use the field names listed for the chosen type; fields listed as forbidden must be absent.\n")
	c.writeVolumeRules(&b)
	b.WriteString("\n")

	b.WriteString("## Section types\n")
	b.WriteString("Allowed values for \"type\": " + strings.Join(c.types.TypeNames(), ", ") + "\n")
	for _, cat := range sectiontype.Categories() {
		defs := c.types.ByCategory(cat)
		if len(defs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s types\n%s\n", cat, categoryShape(cat))
		for _, d := range defs {
			fmt.Fprintf(&b, "- %s: %s. required: %s", d.Name, d.Description, strings.Join(d.RequiredFields, ", "))
			if len(d.OptionalFields) > 0 {
				fmt.Fprintf(&b, "; optional: %s", strings.Join(d.OptionalFields, ", "))
			}
			if len(d.ForbiddenFields) > 0 {
				fmt.Fprintf(&b, "; forbidden: %s", strings.Join(d.ForbiddenFields, ", "))
			}
			b.WriteString("\n")
		}
	}

	if includeFewShot {
		if examples := c.sampleExamples(); len(examples) > 0 {
			b.WriteString("\n## Examples\nOne sample section per shape. Copy the structure, not the content.\n")
			for _, ex := range examples {
				raw, err := jsonutil.MarshalNoEscapeIndent(ex)
				if err != nil {
					continue
				}
				b.Write(raw)
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n## Language\n")
	fmt.Fprintf(&b, "Write every human-readable string (title, summary, section titles, labels, descriptions) in %s. Keep JSON keys and type values in English.\n", lang.DisplayName())
	return b.String()
}

func (c *Composer) writeVolumeRules(b *strings.Builder) {
	rule := 6
	for _, cat := range sectiontype.Categories() {
		min := 0
		for _, d := range c.types.ByCategory(cat) {
			if d.MinItems > min {
				min = d.MinItems
			}
		}
		if min == 0 {
			continue
		}
		fmt.Fprintf(b, "%d. %s types need at least %d entries in their main collection.\n", rule, cat, min)
		rule++
	}
}

func categoryShape(c sectiontype.Category) string {
	switch c {
	case sectiontype.Legacy:
		return `"data" is an array: [{"name": string, "value": number}, ...]`
	case sectiontype.Flat:
		return `fields sit on the section itself: "content", "steps": [{"step", "title", "description"}], "comparisonItems": [{"label", "left", "right"}], "statValue", "statLabel", "statTrend" ("up"|"down"|"neutral")`
	case sectiontype.Nested:
		return `"data" is an object, usually {"items": [...]}; tables use {"headers": [...], "rows": [[...]]}`
	}
	return ""
}

// sampleExamples picks one example per category.
func (c *Composer) sampleExamples() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, cat := range sectiontype.Categories() {
		var pool []map[string]any
		for _, d := range c.types.ByCategory(cat) {
			if d.Example != nil {
				pool = append(pool, d.Example)
			}
		}
		if len(pool) == 0 {
			continue
		}
		out = append(out, pool[c.rnd.Intn(len(pool))])
	}
	return out
}

// UserInstruction is the user turn sent with every request.
func UserInstruction(topic string, lang Language) string {
	return fmt.Sprintf("Create an infographic report about: %s\nWrite it in %s.", strings.TrimSpace(topic), lang.DisplayName())
}

// ResponseSchema describes the Report for backends that accept an output
// schema. The type enum comes from types.
func ResponseSchema(types TypeSource) *report.Schema {
	str := func(desc string) *report.Schema { return &report.Schema{Type: report.TypeString, Description: desc} }
	legacyData := &report.Schema{
		Type: report.TypeArray,
		Items: &report.Schema{
			Type: report.TypeObject,
			Properties: map[string]*report.Schema{
				"name":  str(""),
				"value": {Type: report.TypeNumber},
			},
			Required: []string{"name", "value"},
		},
	}
	nestedData := &report.Schema{
		Type: report.TypeObject,
		Properties: map[string]*report.Schema{
			"items": {Type: report.TypeArray, Items: &report.Schema{
				Type: report.TypeObject,
				Properties: map[string]*report.Schema{
					"label":       str(""),
					"title":       str(""),
					"date":        str(""),
					"value":       str(""),
					"description": str(""),
					"trend":       {Type: report.TypeString, Enum: []string{report.TrendUp, report.TrendDown, report.TrendNeutral}},
				},
			}},
			"headers": {Type: report.TypeArray, Items: str("")},
			"rows":    {Type: report.TypeArray, Items: &report.Schema{Type: report.TypeArray, Items: str("")}},
		},
	}
	section := &report.Schema{
		Type: report.TypeObject,
		Properties: map[string]*report.Schema{
			"type":      {Type: report.TypeString, Enum: types.TypeNames()},
			"title":     str(""),
			"content":   str(""),
			"data":      {AnyOf: []*report.Schema{legacyData, nestedData}},
			"statValue": str(""),
			"statLabel": str(""),
			"statTrend": {Type: report.TypeString, Enum: []string{report.TrendUp, report.TrendDown, report.TrendNeutral}},
			"steps": {Type: report.TypeArray, Items: &report.Schema{
				Type: report.TypeObject,
				Properties: map[string]*report.Schema{
					"step":        {Type: report.TypeInteger},
					"title":       str(""),
					"description": str(""),
				},
			}},
			"comparisonItems": {Type: report.TypeArray, Items: &report.Schema{
				Type: report.TypeObject,
				Properties: map[string]*report.Schema{
					"label": str(""),
					"left":  str(""),
					"right": str(""),
				},
			}},
		},
		Required: []string{"type"},
	}
	return &report.Schema{
		Type: report.TypeObject,
		Properties: map[string]*report.Schema{
			"title":    str("headline"),
			"summary":  str("80 to 100 word executive summary"),
			"sections": {Type: report.TypeArray, Items: section},
		},
		Required: []string{"title", "summary", "sections"},
	}
}
