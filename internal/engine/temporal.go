package engine

import (
	"fmt"
	"sort"
	"time"
)

// Granularity selects the bucket size for temporal aggregation.
type Granularity int

const (
	GranularityYear Granularity = iota
	GranularityMonth
)

// PeriodPoint is one bucket of a temporal series: the mean of all
// observations in the period, plus the same capped percentage rule used
// everywhere else so trend charts and single-point dashboards agree.
type PeriodPoint struct {
	Period     string           `json:"period"` // "2024" or "2024-03"
	Year       int              `json:"year"`
	Month      time.Month       `json:"month,omitempty"` // zero for year buckets
	Value      float64          `json:"value"`
	Target     *float64         `json:"target,omitempty"`
	Percentage PercentageResult `json:"progress"`
}

// SeriesSummary holds derived reads over a temporal series. It is always
// recomputed from the series itself, never cached, so it cannot drift.
type SeriesSummary struct {
	First       float64 `json:"first"`
	Last        float64 `json:"last"`
	NetChange   float64 `json:"net_change"`
	BucketCount int     `json:"bucket_count"`
}

type bucketKey struct {
	year  int
	month time.Month
}

// ComputeTemporalSeries buckets observations by year or year-month,
// averaging duplicates within a bucket, and returns the buckets in
// ascending period order. An empty input yields ErrNoTemporalData, which is
// distinct from a series whose single bucket happens to hold 0.
func ComputeTemporalSeries(obs []Observation, target *float64, g Granularity) ([]PeriodPoint, error) {
	if len(obs) == 0 {
		return nil, ErrNoTemporalData
	}

	sums := make(map[bucketKey]float64)
	counts := make(map[bucketKey]int)
	for _, o := range obs {
		key := bucketKey{year: o.MeasuredAt.Year()}
		if g == GranularityMonth {
			key.month = o.MeasuredAt.Month()
		}
		sums[key] += o.Value
		counts[key]++
	}

	keys := make([]bucketKey, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	series := make([]PeriodPoint, 0, len(keys))
	for _, key := range keys {
		mean := sums[key] / float64(counts[key])
		point := PeriodPoint{
			Year:       key.year,
			Month:      key.month,
			Value:      mean,
			Target:     target,
			Percentage: ComputeProgress(mean, target),
		}
		if g == GranularityMonth {
			point.Period = fmt.Sprintf("%04d-%02d", key.year, int(key.month))
		} else {
			point.Period = fmt.Sprintf("%04d", key.year)
		}
		series = append(series, point)
	}
	return series, nil
}

// Summarize derives first/last/net-change figures from a temporal series.
func Summarize(series []PeriodPoint) (SeriesSummary, error) {
	if len(series) == 0 {
		return SeriesSummary{}, ErrNoTemporalData
	}
	first := series[0].Value
	last := series[len(series)-1].Value
	return SeriesSummary{
		First:       first,
		Last:        last,
		NetChange:   last - first,
		BucketCount: len(series),
	}, nil
}
