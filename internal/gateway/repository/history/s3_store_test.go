package history

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infographic/internal/report"
)

func TestObjectKey_RoundTripsAndSortsNewestFirst(t *testing.T) {
	older := objectKey(report.HistoryItem{ID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Timestamp: 1_700_000_000_000})
	newer := objectKey(report.HistoryItem{ID: "b", Timestamp: 1_700_000_000_001})

	id, ts, ok := parseObjectKey(older)
	require.True(t, ok)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", id)
	assert.Equal(t, int64(1_700_000_000_000), ts)

	keys := []string{older, newer}
	slices.Sort(keys)
	assert.Equal(t, []string{newer, older}, keys)
}

func TestParseObjectKey_RejectsForeignKeys(t *testing.T) {
	for _, k := range []string{"other/1-a.json", "history/1-a.txt", "history/x-a.json", "history/123.json", "history/1-.json"} {
		_, _, ok := parseObjectKey(k)
		assert.False(t, ok, k)
	}
}

func TestNewS3Store_Validates(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.ErrorContains(t, err, "endpoint")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "access key")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "h"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
