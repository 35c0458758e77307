package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"infographic/internal/gateway/service/generation"
	"infographic/internal/report"
)

func eventsOf(evs ...generation.Event) <-chan generation.Event {
	ch := make(chan generation.Event, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestForwardWSEvents_StopsWritingAfterFailure(t *testing.T) {
	partial := &report.Report{Title: "T", Sections: []report.Section{}}
	events := eventsOf(
		generation.Event{Kind: generation.EventPartial, Report: partial},
		generation.Event{Kind: generation.EventPartial, Report: partial},
		generation.Event{Kind: generation.EventFinal, Report: partial, Result: &generation.Result{Report: partial}},
	)

	writes, broken := 0, 0
	ok := forwardWSEvents(events, func(reportWSOutbound) error {
		writes++
		return errors.New("connection reset")
	}, func(error) { broken++ })

	assert.False(t, ok)
	assert.Equal(t, 1, writes)
	assert.Equal(t, 1, broken)
	_, open := <-events
	assert.False(t, open)
}

func TestForwardWSEvents_WritesEveryEvent(t *testing.T) {
	partial := &report.Report{Title: "T", Sections: []report.Section{}}
	events := eventsOf(
		generation.Event{Kind: generation.EventPartial, Report: partial},
		generation.Event{Kind: generation.EventError, Err: errors.New("boom")},
	)

	var got []reportWSOutbound
	ok := forwardWSEvents(events, func(out reportWSOutbound) error {
		got = append(got, out)
		return nil
	}, func(error) { t.Fatal("unexpected write failure") })

	assert.True(t, ok)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "partial", got[0].Type)
		assert.Same(t, partial, got[0].Report)
		assert.Equal(t, "error", got[1].Type)
		assert.Equal(t, "internal", got[1].Error.Kind)
	}
}
