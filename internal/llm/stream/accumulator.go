// Package stream accumulates the text deltas of one generation and turns them
// into Report snapshots as soon as the buffer can be repaired into one.
package stream

import (
	"errors"
	"strings"

	"infographic/internal/jsonrepair"
	"infographic/internal/report"
)

// ErrIncompleteGeneration is returned by Finalize when no tier could recover a
// displayable Report.
var ErrIncompleteGeneration = errors.New("incomplete or invalid generation")

// Accumulator is scoped to a single generation attempt and is not safe for
// concurrent use.
type Accumulator struct {
	buf       strings.Builder
	last      *report.Report
	onPartial func(*report.Report)
	partials  int
}

// New returns an empty Accumulator. onPartial may be nil.
func New(onPartial func(*report.Report)) *Accumulator {
	return &Accumulator{onPartial: onPartial}
}

// Feed appends delta and tries to repair the whole buffer. When the result is
// displayable it becomes the last valid partial and is passed to onPartial.
// It reports whether a new snapshot was produced.
func (a *Accumulator) Feed(delta string) bool {
	if delta == "" {
		return false
	}
	a.buf.WriteString(delta)

	v, ok := jsonrepair.Repair(Unfence(a.buf.String()))
	if !ok {
		return false
	}
	r, ok := report.FromValue(v)
	if !ok {
		return false
	}
	a.last = r
	a.partials++
	if a.onPartial != nil {
		a.onPartial(r)
	}
	return true
}

// Text returns everything fed so far.
func (a *Accumulator) Text() string { return a.buf.String() }

// LastValid returns the most recent snapshot, or nil.
func (a *Accumulator) LastValid() *report.Report { return a.last }

// Partials returns how many snapshots were delivered.
func (a *Accumulator) Partials() int { return a.partials }

// Finalize resolves the final Report from fullText, falling back in order to
// a strict parse, the last valid partial, and one more repair. An empty
// fullText means the accumulated buffer.
func (a *Accumulator) Finalize(fullText string) (*report.Report, error) {
	if fullText == "" {
		fullText = a.Text()
	}
	text := Unfence(fullText)

	if v, ok := jsonrepair.Parse(text); ok {
		if r, ok := report.FromValue(v); ok {
			return r, nil
		}
	}
	if a.last != nil {
		return a.last, nil
	}
	if v, ok := jsonrepair.Repair(text); ok {
		if r, ok := report.FromValue(v); ok {
			return r, nil
		}
	}
	return nil, ErrIncompleteGeneration
}
