package report

import "time"

// MaxHistory is the number of HistoryItems kept by every history backend.
const MaxHistory = 50

// HistoryItem records one finished generation.
type HistoryItem struct {
	ID        string  `json:"id"`
	Query     string  `json:"query"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
	Report    *Report `json:"report"`
}

// NewHistoryItem stamps r with id and the time t.
func NewHistoryItem(id, query string, t time.Time, r *Report) HistoryItem {
	return HistoryItem{ID: id, Query: query, Timestamp: t.UnixMilli(), Report: r}
}

// Time returns the item's timestamp.
func (h HistoryItem) Time() time.Time { return time.UnixMilli(h.Timestamp) }
