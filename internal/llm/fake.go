package llm

import (
	"context"
	"iter"
	"sync"

	llmclient "infographic/internal/llmClient"
)

// FakeClient replays scripted streams for offline runs and tests. Each call to
// Stream consumes the next script; the last script repeats.
type FakeClient struct {
	mu       sync.Mutex
	scripts  []FakeScript
	calls    int
	requests []llmclient.StreamRequest
}

// FakeScript is one scripted stream: chunks in order, then Err if set.
type FakeScript struct {
	Chunks []llmclient.Chunk
	Err    error
}

// TextScript splits text into chunks of size n.
func TextScript(text string, n int) FakeScript {
	if n <= 0 {
		n = len(text)
	}
	var s FakeScript
	for i := 0; i < len(text); i += n {
		end := min(i+n, len(text))
		s.Chunks = append(s.Chunks, llmclient.Chunk{Text: text[i:end]})
	}
	return s
}

func NewFakeClient(scripts ...FakeScript) *FakeClient {
	return &FakeClient{scripts: scripts}
}

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

// Calls returns how many streams were opened.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Requests returns the requests seen so far.
func (f *FakeClient) Requests() []llmclient.StreamRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llmclient.StreamRequest(nil), f.requests...)
}

func (f *FakeClient) Stream(ctx context.Context, req llmclient.StreamRequest) iter.Seq2[llmclient.Chunk, error] {
	f.mu.Lock()
	var script FakeScript
	if n := len(f.scripts); n > 0 {
		script = f.scripts[min(f.calls, n-1)]
	}
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	return func(yield func(llmclient.Chunk, error) bool) {
		for _, c := range script.Chunks {
			if err := ctx.Err(); err != nil {
				yield(llmclient.Chunk{}, err)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
		if script.Err != nil {
			yield(llmclient.Chunk{}, script.Err)
		}
	}
}

// FakeProvider returns a ProviderSpec whose clients are backed by client.
func FakeProvider(id string, client llmclient.StreamClient) llmclient.ProviderSpec {
	return llmclient.ProviderSpec{
		ID:             id,
		Name:           "Fake " + id,
		DefaultModel:   "fake-default",
		ReasoningModel: "fake-reasoning",
		SupportsSearch: true,
		CredentialEnv:  "FAKE_API_KEY",
		Models:         []llmclient.ModelInfo{{ID: "fake-default", Name: "Fake", Free: true}},
		Factory: func(context.Context, string, llmclient.Options) (llmclient.StreamClient, error) {
			return client, nil
		},
	}
}
