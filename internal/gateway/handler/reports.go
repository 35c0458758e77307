package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"infographic/internal/gateway/service/generation"
	"infographic/internal/util/jsonutil"
)

const maxRequestBody = 64 << 10

func decodeRequest(r *http.Request) (generation.Request, error) {
	var req generation.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, badRequest("invalid json body: " + err.Error())
	}
	return req, nil
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// CreateReport generates a report. With "Accept: text/event-stream" the
// snapshots are streamed as SSE partial events followed by one final or
// error event; otherwise the finished result is returned as JSON.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsEventStream(r) {
		h.streamSSE(w, r, req)
		return
	}
	res, err := h.gen.Generate(r.Context(), req, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) streamSSE(w http.ResponseWriter, r *http.Request, req generation.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := zerolog.Ctx(r.Context())
	for ev := range h.gen.Stream(r.Context(), req) {
		var payload any
		switch ev.Kind {
		case generation.EventPartial:
			payload = ev.Report
		case generation.EventFinal:
			payload = ev.Result
		case generation.EventError:
			_, body := classify(ev.Err)
			payload = body
			log.Warn().Err(ev.Err).Str("kind", body.Kind).Msg("report stream failed")
		}
		if err := writeSSE(w, string(ev.Kind), payload); err != nil {
			log.Debug().Err(err).Msg("sse client gone")
			continue
		}
		flusher.Flush()
	}
}

func writeSSE(w io.Writer, event string, payload any) error {
	data, err := jsonutil.MarshalNoEscape(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
