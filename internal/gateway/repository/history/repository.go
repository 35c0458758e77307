// Package history persists finished generations, newest first, capped at
// report.MaxHistory entries per store.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"infographic/internal/report"
)

// Store defines operations for persisting generation history.
type Store interface {
	// Append inserts item, replacing any entry with the same ID, and trims
	// the store to report.MaxHistory entries.
	Append(ctx context.Context, item report.HistoryItem) error
	// List returns at most limit items, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]report.HistoryItem, error)
	Get(ctx context.Context, id string) (report.HistoryItem, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

var ErrNotFound = errors.New("history item not found")

func validateItem(item report.HistoryItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if item.Report == nil {
		return fmt.Errorf("report is required")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > report.MaxHistory {
		return report.MaxHistory
	}
	return limit
}

// newer orders items newest first, breaking timestamp ties by id.
func newer(a, b report.HistoryItem) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	return a.ID > b.ID
}
