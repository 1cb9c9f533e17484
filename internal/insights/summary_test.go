package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSummarizeBucketsAndStats tests bucket counting and the basic statistics
func TestSummarizeBucketsAndStats(t *testing.T) {
	summary, err := Summarize([]int{10, 20, 50, 80, 100})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Count)
	assert.Equal(t, 2, summary.CriticalCount)
	assert.Equal(t, 1, summary.PartialCount)
	assert.Equal(t, 2, summary.CompleteCount)
	assert.InDelta(t, 52.0, summary.Mean, 1e-9)
	assert.InDelta(t, 50.0, summary.Median, 1e-9)

	require.Len(t, summary.Histogram, 10)
	total := 0
	for _, b := range summary.Histogram {
		total += b.Count
	}
	assert.Equal(t, 5, total, "every score lands in exactly one bucket")
	assert.Equal(t, 1, summary.Histogram[9].Count, "score 100 belongs to the last bucket")
	assert.Equal(t, 1, summary.Histogram[1].Count, "score 10 belongs to the 10-19 bucket")
}

// TestSummarizeEmpty tests that an empty collection renders zeros, not errors
func TestSummarizeEmpty(t *testing.T) {
	summary, err := Summarize(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
	assert.Empty(t, summary.Histogram)
}
