package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reportcache "infographic/internal/cache/report"
	"infographic/internal/gateway/handler"
	"infographic/internal/gateway/repository/history"
	"infographic/internal/gateway/service/generation"
	"infographic/internal/llm"
	"infographic/internal/report"
)

const doc = `{"title":"Glaciers","summary":"Ice","sections":[{"type":"text","content":"melt"},{"type":"stat","statValue":"70%","statLabel":"fresh water"}]}`

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type testAPI struct {
	srv     *httptest.Server
	fake    *llm.FakeClient
	history *history.MemoryStore
}

func newTestAPI(t *testing.T, scripts ...llm.FakeScript) *testAPI {
	t.Helper()
	if len(scripts) == 0 {
		scripts = []llm.FakeScript{llm.TextScript(doc, 11)}
	}
	fake := llm.NewFakeClient(scripts...)
	factory := llm.NewFactory(llm.FactoryConfig{
		Credentials:     llm.StaticCredentials{"fake": "k"},
		DefaultProvider: "fake",
		Retry:           llm.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Sleep: noSleep},
		Seed:            1,
	})
	require.NoError(t, factory.RegisterProvider(llm.FakeProvider("fake", fake)))
	require.NoError(t, factory.RegisterProvider(llm.FakeProvider("locked", fake)))

	store := history.NewMemoryStore()
	cache := reportcache.WithMetrics(reportcache.NewLRU(8, time.Hour))
	svc := generation.New(generation.Config{Factory: factory, Cache: cache, History: store, Logger: zerolog.Nop()})
	h := handler.New(factory, svc, store, zerolog.Nop(), handler.WithCacheStats(cache.Snapshot))

	srv := httptest.NewServer(NewMux(h, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, fake: fake, history: store}
}

func (a *testAPI) do(t *testing.T, method, path, body string, header ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type errorResponse struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "cache")
}

func TestProviders(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/v1/providers", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fake", resp.Header.Get("X-Default-Provider"))

	body := decode[struct {
		Default   string `json:"default"`
		Providers []struct {
			ID             string `json:"id"`
			DefaultModel   string `json:"defaultModel"`
			SupportsSearch bool   `json:"supportsSearch"`
			Configured     bool   `json:"configured"`
		} `json:"providers"`
	}](t, resp)
	assert.Equal(t, "fake", body.Default)
	require.Len(t, body.Providers, 2)
	assert.Equal(t, "fake", body.Providers[0].ID)
	assert.Equal(t, "fake-default", body.Providers[0].DefaultModel)
	assert.True(t, body.Providers[0].Configured)
	assert.False(t, body.Providers[1].Configured)
}

func TestModels(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/v1/providers/fake/models", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/v1/providers/nope/models", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, llm.KindUnknownProvider, decode[errorResponse](t, resp).Error.Kind)
}

func TestSectionTypes(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/v1/section-types", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		SectionTypes []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"sectionTypes"`
	}](t, resp)
	assert.NotEmpty(t, body.SectionTypes)
}

func TestCreateReport_JSON(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/v1/reports", `{"topic":"glaciers","language":"es","sectionCount":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[generation.Result](t, resp)
	assert.Equal(t, "Glaciers", res.Report.Title)
	assert.Equal(t, "fake", res.Provider)
	assert.NotEmpty(t, res.ID)

	reqs := api.fake.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].System, "exactly 4 sections")
	assert.Contains(t, reqs[0].User, "Spanish")
}

func TestCreateReport_ErrorStatuses(t *testing.T) {
	api := newTestAPI(t)
	cases := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"malformed json", `{"topic":`, http.StatusBadRequest, "bad_request"},
		{"unknown field", `{"topic":"x","colour":"red"}`, http.StatusBadRequest, "bad_request"},
		{"empty topic", `{"topic":" "}`, http.StatusBadRequest, "bad_request"},
		{"unknown provider", `{"provider":"nope","topic":"x"}`, http.StatusNotFound, llm.KindUnknownProvider},
		{"missing credential", `{"provider":"locked","topic":"x"}`, http.StatusPreconditionFailed, llm.KindConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.do(t, http.MethodPost, "/api/v1/reports", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.kind, decode[errorResponse](t, resp).Error.Kind)
		})
	}
}

func TestCreateReport_GenerationFailed(t *testing.T) {
	api := newTestAPI(t, llm.FakeScript{Chunks: nil, Err: assert.AnError})
	resp := api.do(t, http.MethodPost, "/api/v1/reports", `{"topic":"x"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, llm.KindGenerationFailed, decode[errorResponse](t, resp).Error.Kind)
}

type sseEvent struct {
	name string
	data string
}

func readSSE(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()
	var (
		events []sseEvent
		cur    sseEvent
	)
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func TestCreateReport_SSE(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/v1/reports", `{"topic":"glaciers"}`, "Accept", "text/event-stream")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readSSE(t, resp)
	require.GreaterOrEqual(t, len(events), 2)
	last := events[len(events)-1]
	assert.Equal(t, "final", last.name)
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, "partial", ev.name)
		var r report.Report
		require.NoError(t, json.Unmarshal([]byte(ev.data), &r))
		assert.Equal(t, "Glaciers", r.Title)
	}
	var res generation.Result
	require.NoError(t, json.Unmarshal([]byte(last.data), &res))
	assert.Len(t, res.Report.Sections, 2)
}

func TestCreateReport_SSEError(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/v1/reports", `{"provider":"locked","topic":"x"}`, "Accept", "text/event-stream")
	events := readSSE(t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].name)
	assert.Contains(t, events[0].data, `"kind":"configuration"`)
}

func TestReportWS(t *testing.T) {
	api := newTestAPI(t)
	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/api/v1/reports/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"topic": "glaciers"}))

	var types []string
	for {
		var msg struct {
			Type   string         `json:"type"`
			Report *report.Report `json:"report"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		types = append(types, msg.Type)
		require.NotNil(t, msg.Report)
	}
	require.NotEmpty(t, types)
	assert.Equal(t, "final", types[len(types)-1])
}

func TestHistoryEndpoints(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/v1/reports", `{"topic":"glaciers"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := decode[generation.Result](t, resp).ID

	resp = api.do(t, http.MethodGet, "/api/v1/history?limit=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Items []report.HistoryItem `json:"items"`
	}](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, id, list.Items[0].ID)
	assert.Equal(t, "glaciers", list.Items[0].Query)

	resp = api.do(t, http.MethodGet, "/api/v1/history/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/v1/history?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodDelete, "/api/v1/history/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/v1/history/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode[errorResponse](t, resp).Error.Kind)
}
