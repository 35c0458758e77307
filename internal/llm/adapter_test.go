package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmclient "infographic/internal/llmClient"
	"infographic/internal/prompt"
	"infographic/internal/report"
)

const validDoc = `{"title":"Bees","summary":"Pollinators","sections":[{"type":"stat","statValue":"75%","statLabel":"crops"},{"type":"text","title":"Decline","content":"Colony losses"}]}`

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestFactory(t *testing.T, client llmclient.StreamClient, mutate ...func(*FactoryConfig)) *Factory {
	t.Helper()
	cfg := FactoryConfig{
		Credentials: StaticCredentials{"fake": "k"},
		Retry:       RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: noSleep},
		Seed:        1,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	f := NewFactory(cfg)
	require.NoError(t, f.RegisterProvider(FakeProvider("fake", client)))
	return f
}

func newTestAdapter(t *testing.T, client llmclient.StreamClient, mutate ...func(*FactoryConfig)) *Adapter {
	t.Helper()
	a, err := newTestFactory(t, client, mutate...).Create(context.Background(), "fake")
	require.NoError(t, err)
	return a
}

func TestGenerate_StreamsPartialsAndReturnsFinal(t *testing.T) {
	fake := NewFakeClient(TextScript(validDoc, 7))
	a := newTestAdapter(t, fake)

	var partials []*report.Report
	r, err := a.GenerateInfographic(context.Background(), "bees", func(p *report.Report) {
		partials = append(partials, p)
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Bees", r.Title)
	assert.Len(t, r.Sections, 2)
	assert.Nil(t, r.Sources)

	require.NotEmpty(t, partials)
	prev := 0
	for _, p := range partials {
		assert.True(t, p.Displayable())
		assert.GreaterOrEqual(t, len(p.Sections), prev)
		prev = len(p.Sections)
	}
	assert.Equal(t, 1, fake.Calls())
}

func TestGenerate_RetriesThreeTimesThenFails(t *testing.T) {
	fake := NewFakeClient(FakeScript{Err: errors.New("connection reset")})
	a := newTestAdapter(t, fake)

	_, err := a.GenerateInfographic(context.Background(), "t", nil, Options{})
	var gf *GenerationFailedError
	require.ErrorAs(t, err, &gf)
	assert.Equal(t, 3, gf.Attempts)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Contains(t, err.Error(), "connection reset")
	var tb *TransientBackendError
	assert.ErrorAs(t, err, &tb)
	assert.Equal(t, 3, fake.Calls())
	assert.Equal(t, KindGenerationFailed, ErrorKind(err))
}

func TestGenerate_MalformedOutputIsRetriedWithFreshAccumulator(t *testing.T) {
	fake := NewFakeClient(
		TextScript(`Sure! Here is your infographic:`, 5),
		TextScript(validDoc, 11),
	)
	a := newTestAdapter(t, fake)

	var partials int
	r, err := a.GenerateInfographic(context.Background(), "t", func(*report.Report) { partials++ }, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Bees", r.Title)
	assert.Equal(t, 2, fake.Calls())
	assert.Positive(t, partials)
}

func TestGenerate_AlwaysMalformedFails(t *testing.T) {
	fake := NewFakeClient(TextScript(`not json at all`, 4))
	a := newTestAdapter(t, fake)
	_, err := a.GenerateInfographic(context.Background(), "t", nil, Options{})
	var mo *MalformedOutputError
	require.ErrorAs(t, err, &mo)
	assert.Equal(t, len(`not json at all`), mo.Length)
	var gf *GenerationFailedError
	require.ErrorAs(t, err, &gf)
	assert.Equal(t, 3, gf.Attempts)
}

func TestGenerate_EmptyStreamIsRetried(t *testing.T) {
	fake := NewFakeClient(FakeScript{}, FakeScript{}, TextScript(validDoc, 3))
	a := newTestAdapter(t, fake)
	r, err := a.GenerateInfographic(context.Background(), "t", nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Bees", r.Title)
	assert.Equal(t, 3, fake.Calls())

	fake = NewFakeClient(FakeScript{})
	_, err = newTestAdapter(t, fake).GenerateInfographic(context.Background(), "t", nil, Options{})
	require.ErrorIs(t, err, llmclient.ErrEmptyResponse)
	var mo *MalformedOutputError
	assert.ErrorAs(t, err, &mo)
	assert.Equal(t, 3, fake.Calls())
}

func TestGenerate_TruncatedStreamFallsBackToLastPartial(t *testing.T) {
	truncated := `{"title":"Cut","sections":[{"type":"text","content":"a"},{"type":"stat","statVal`
	a := newTestAdapter(t, NewFakeClient(TextScript(truncated, 10)))
	r, err := a.GenerateInfographic(context.Background(), "t", nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Cut", r.Title)
	assert.NotEmpty(t, r.Sections)
}

func TestGenerate_RejectedCredentialIsNotRetried(t *testing.T) {
	fake := NewFakeClient(FakeScript{Err: &llmclient.StatusError{Provider: "fake", StatusCode: 401}})
	a := newTestAdapter(t, fake)
	_, err := a.GenerateInfographic(context.Background(), "t", nil, Options{})
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, fake.Calls())
	assert.Equal(t, KindConfiguration, ErrorKind(err))
}

func TestGenerate_CollectsDedupedSources(t *testing.T) {
	script := TextScript(validDoc, 20)
	script.Chunks[0].Sources = []report.Source{{Title: "A", URI: "https://a"}, {Title: "A dup", URI: "https://a"}}
	script.Chunks[1].Sources = []report.Source{{Title: "B", URI: "https://b"}, {Title: "empty"}}
	a := newTestAdapter(t, NewFakeClient(script))

	r, err := a.GenerateInfographic(context.Background(), "t", nil, Options{EnableSearch: true})
	require.NoError(t, err)
	assert.Equal(t, []report.Source{{Title: "A", URI: "https://a"}, {Title: "B", URI: "https://b"}}, r.Sources)
}

func TestGenerate_SourcesCap(t *testing.T) {
	script := TextScript(validDoc, 20)
	for i := range script.Chunks {
		script.Chunks[i].Sources = []report.Source{{URI: "https://s/" + string(rune('a'+i))}}
	}
	a := newTestAdapter(t, NewFakeClient(script), func(c *FactoryConfig) { c.MaxSources = 2 })
	r, err := a.GenerateInfographic(context.Background(), "t", nil, Options{})
	require.NoError(t, err)
	assert.Len(t, r.Sources, 2)
}

func TestGenerate_BuildsRequestFromOptions(t *testing.T) {
	fake := NewFakeClient(TextScript(validDoc, 0))
	a := newTestAdapter(t, fake)

	_, err := a.GenerateInfographic(context.Background(), "volcanoes", nil, Options{
		Language:     prompt.German,
		SectionCount: 4,
		MaxTokens:    900,
		EnableSearch: true,
	})
	require.NoError(t, err)
	req := fake.Requests()[0]
	assert.Equal(t, "fake-reasoning", req.Model)
	assert.Equal(t, 900, req.MaxTokens)
	assert.True(t, req.EnableSearch)
	assert.Contains(t, req.System, "exactly 4 sections")
	assert.Contains(t, req.System, "German")
	assert.Contains(t, req.User, "volcanoes")
	assert.Nil(t, req.Schema)
}

func TestResolveModel(t *testing.T) {
	a := newTestAdapter(t, NewFakeClient())
	assert.Equal(t, "fake-default", a.ResolveModel(Options{}))
	assert.Equal(t, "fake-reasoning", a.ResolveModel(Options{MaxTokens: 1}))
	assert.Equal(t, "explicit", a.ResolveModel(Options{Model: "explicit", MaxTokens: 1}))
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newTestAdapter(t, NewFakeClient(TextScript(validDoc, 5)))
	_, err := a.GenerateInfographic(ctx, "t", nil, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindCanceled, ErrorKind(err))
}
