package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infographic/internal/sectiontype"
)

func newRegistry() *sectiontype.Registry {
	r := sectiontype.NewRegistry()
	r.Register(sectiontype.Builtins()...)
	return r
}

func TestBuildSystemInstruction_ListsEveryRegisteredType(t *testing.T) {
	reg := newRegistry()
	reg.Register(sectiontype.Definition{Name: "heatmap", Category: sectiontype.Nested, Description: "intensity grid", RequiredFields: []string{"type", "data"}})
	c := NewComposer(reg, 1)

	out := c.BuildSystemInstruction(5, English, false)
	for _, name := range reg.TypeNames() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "exactly 5 sections")
	assert.NotContains(t, out, "## Examples")
}

func TestBuildSystemInstruction_ClampsSectionCount(t *testing.T) {
	c := NewComposer(newRegistry(), 1)
	assert.Contains(t, c.BuildSystemInstruction(0, English, false), "exactly 6 sections")
	assert.Contains(t, c.BuildSystemInstruction(1, English, false), "exactly 3 sections")
	assert.Contains(t, c.BuildSystemInstruction(40, English, false), "exactly 12 sections")
}

func TestBuildSystemInstruction_LanguageDirective(t *testing.T) {
	c := NewComposer(newRegistry(), 1)
	assert.Contains(t, c.BuildSystemInstruction(6, Japanese, false), "in Japanese")
	assert.Contains(t, c.BuildSystemInstruction(6, Language("xx"), false), "in English")
}

func TestBuildSystemInstruction_SeededSamplingIsDeterministic(t *testing.T) {
	a := NewComposer(newRegistry(), 42).BuildSystemInstruction(6, English, true)
	b := NewComposer(newRegistry(), 42).BuildSystemInstruction(6, English, true)
	assert.Equal(t, a, b)
	require.Contains(t, a, "## Examples")

	// One example per category: each category contributes exactly one "type" line.
	examples := a[strings.Index(a, "## Examples"):strings.Index(a, "## Language")]
	assert.Equal(t, len(sectiontype.Categories()), strings.Count(examples, `"type": `))
}

func TestBuildSystemInstruction_ResamplesAcrossCalls(t *testing.T) {
	c := NewComposer(newRegistry(), 3)
	seen := map[string]bool{}
	for i := 0; i < 30; i++ {
		seen[c.BuildSystemInstruction(6, English, true)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, Portuguese, ParseLanguage("pt-BR"))
	assert.Equal(t, Korean, ParseLanguage(" KO "))
	assert.Equal(t, English, ParseLanguage("tlh"))
	assert.Len(t, Languages(), 8)
}

func TestUserInstruction(t *testing.T) {
	out := UserInstruction("  coral reefs ", French)
	assert.Contains(t, out, "about: coral reefs\n")
	assert.Contains(t, out, "French")
}

func TestResponseSchema_TypeEnumTracksRegistry(t *testing.T) {
	reg := newRegistry()
	s := ResponseSchema(reg)
	enum := s.Properties["sections"].Items.Properties["type"].Enum
	assert.Equal(t, reg.TypeNames(), enum)
	assert.ElementsMatch(t, []string{"title", "summary", "sections"}, s.Required)
}
