package generation

import (
	"context"

	"infographic/internal/report"
)

type EventKind string

const (
	EventPartial EventKind = "partial"
	EventFinal   EventKind = "final"
	EventError   EventKind = "error"
)

// Event is one observation of a streamed generation. Result is set on
// the final event and Err on the error event.
type Event struct {
	Kind   EventKind
	Report *report.Report
	Result *Result
	Err    error
}

// Stream runs Generate in the background and delivers its snapshots in
// order. The channel ends with exactly one final or error event and is
// then closed. Callers must drain it or cancel ctx; after cancellation
// the terminal event is delivered only if the buffer has room.
func (s *Service) Stream(ctx context.Context, req Request) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		send := func(ev Event) {
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		}
		res, err := s.Generate(ctx, req, func(r *report.Report) {
			send(Event{Kind: EventPartial, Report: r})
		})
		terminal := Event{Kind: EventFinal}
		if err != nil {
			terminal = Event{Kind: EventError, Err: err}
		} else {
			terminal.Report, terminal.Result = res.Report, res
		}
		select {
		case ch <- terminal:
		case <-ctx.Done():
			// Deliver if there is room; an abandoned channel must not
			// pin the goroutine.
			select {
			case ch <- terminal:
			default:
			}
		}
	}()
	return ch
}
