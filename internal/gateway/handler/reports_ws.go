package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"infographic/internal/gateway/service/generation"
	"infographic/internal/report"
)

const (
	reportWSWriteWait = 10 * time.Second
	reportWSReadWait  = 30 * time.Second
)

var reportWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type reportWSOutbound struct {
	Type   string             `json:"type"`
	Report *report.Report     `json:"report,omitempty"`
	Result *generation.Result `json:"result,omitempty"`
	Error  *errorBody         `json:"error,omitempty"`
}

// ReportWS reads one generation request from the socket, streams
// partial messages followed by one final or error message, then closes.
func (h *Handler) ReportWS(w http.ResponseWriter, r *http.Request) {
	conn, err := reportWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := zerolog.Ctx(r.Context())
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	write := func(out reportWSOutbound) error {
		if err := conn.SetWriteDeadline(time.Now().Add(reportWSWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(out)
	}

	_ = conn.SetReadDeadline(time.Now().Add(reportWSReadWait))
	var req generation.Request
	if err := conn.ReadJSON(&req); err != nil {
		_ = write(reportWSOutbound{Type: string(generation.EventError), Error: &errorBody{
			Kind: kindBadRequest, Message: "invalid request: " + err.Error(),
		}})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	// A client close cancels the generation.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if !forwardWSEvents(h.gen.Stream(ctx, req), write, func(err error) {
		log.Debug().Err(err).Msg("report ws write failed")
		cancel()
	}) {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(reportWSWriteWait))
}

// forwardWSEvents writes each event until a write fails. After that it calls
// onBroken once and only drains events. It reports whether every write
// succeeded.
func forwardWSEvents(events <-chan generation.Event, write func(reportWSOutbound) error, onBroken func(error)) bool {
	broken := false
	for ev := range events {
		if broken {
			continue
		}
		out := reportWSOutbound{Type: string(ev.Kind)}
		switch ev.Kind {
		case generation.EventPartial:
			out.Report = ev.Report
		case generation.EventFinal:
			out.Report, out.Result = ev.Report, ev.Result
		case generation.EventError:
			_, body := classify(ev.Err)
			out.Error = &body
		}
		if err := write(out); err != nil {
			broken = true
			onBroken(err)
		}
	}
	return !broken
}
