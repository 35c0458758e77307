package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"infographic/internal/gateway/repository/history"
	"infographic/internal/gateway/service/generation"
	"infographic/internal/llm"
	"infographic/internal/util/jsonutil"
)

const (
	kindBadRequest = "bad_request"
	kindNotFound   = "not_found"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(raw, '\n'))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("kind", body.Kind).Msg("request failed")
	}
	writeJSON(w, status, map[string]any{"error": body})
}

// classify maps err to a status and the body clients see.
func classify(err error) (int, errorBody) {
	body := errorBody{Kind: llm.ErrorKind(err), Message: err.Error()}
	switch {
	case errors.Is(err, generation.ErrInvalidRequest):
		body.Kind = kindBadRequest
		return http.StatusBadRequest, body
	case errors.Is(err, history.ErrNotFound):
		body.Kind = kindNotFound
		return http.StatusNotFound, body
	}
	switch body.Kind {
	case llm.KindConfiguration:
		return http.StatusPreconditionFailed, body
	case llm.KindUnknownProvider:
		return http.StatusNotFound, body
	case llm.KindGenerationFailed:
		return http.StatusBadGateway, body
	case llm.KindCanceled:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, body
		}
		return http.StatusServiceUnavailable, body
	}
	return http.StatusInternalServerError, body
}

func badRequest(msg string) error {
	return errors.Join(generation.ErrInvalidRequest, errors.New(msg))
}
