// Package insights computes the dashboard's summary strip: distribution
// statistics and histogram buckets over the collection's completeness scores.
package insights

import (
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"catalogops/internal/errors"
	"catalogops/internal/filter"
)

// Bucket is one histogram bar of the score distribution.
type Bucket struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Count int `json:"count"`
}

// Summary describes the score distribution of one collection.
type Summary struct {
	Count         int      `json:"count"`
	Mean          float64  `json:"mean"`
	Median        float64  `json:"median"`
	StdDev        float64  `json:"std_dev"`
	Q1            float64  `json:"q1"`
	Q3            float64  `json:"q3"`
	CriticalCount int      `json:"critical_count"` // score < 30
	PartialCount  int      `json:"partial_count"`  // 30 <= score < 80
	CompleteCount int      `json:"complete_count"` // score >= 80
	Histogram     []Bucket `json:"histogram"`
}

const bucketWidth = 10

// Summarize computes the distribution summary. An empty score list yields an
// all-zero summary rather than an error so an empty collection still renders.
func Summarize(scores []int) (*Summary, error) {
	summary := &Summary{Count: len(scores)}
	if len(scores) == 0 {
		return summary, nil
	}

	data := make(stats.Float64Data, len(scores))
	for i, s := range scores {
		data[i] = float64(s)
		switch {
		case s < filter.CriticalBelow:
			summary.CriticalCount++
		case s < filter.CompleteFrom:
			summary.PartialCount++
		default:
			summary.CompleteCount++
		}
	}

	var err error
	if summary.Mean, err = stats.Mean(data); err != nil {
		return nil, errors.Wrap(err, "computing mean score")
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return nil, errors.Wrap(err, "computing median score")
	}
	if summary.StdDev, err = stats.StandardDeviation(data); err != nil {
		return nil, errors.Wrap(err, "computing score deviation")
	}
	if summary.Q1, err = stats.Percentile(data, 25); err != nil {
		return nil, errors.Wrap(err, "computing first quartile")
	}
	if summary.Q3, err = stats.Percentile(data, 75); err != nil {
		return nil, errors.Wrap(err, "computing third quartile")
	}

	summary.Histogram = histogram(data)
	return summary, nil
}

// histogram bins scores into ten-point buckets, 0-9 through 90-100.
func histogram(data stats.Float64Data) []Bucket {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	nBuckets := 100 / bucketWidth
	dividers := make([]float64, nBuckets+1)
	for i := range dividers {
		dividers[i] = float64(i * bucketWidth)
	}
	// Scores of exactly 100 must land in the last bucket.
	dividers[nBuckets] = 100.5

	counts := stat.Histogram(nil, dividers, sorted, nil)

	buckets := make([]Bucket, nBuckets)
	for i := range buckets {
		to := (i + 1) * bucketWidth
		if i == nBuckets-1 {
			to = 100
		}
		buckets[i] = Bucket{From: i * bucketWidth, To: to, Count: int(counts[i])}
	}
	return buckets
}
