package stats

import (
	"math"
	"slices"
)

// Summary is the fixed statistic shape consumers render directly. Mean and
// median are rounded to the nearest whole second; sums are not rounded.
type Summary struct {
	Sum    int64 `json:"sum"`
	Mean   int64 `json:"mean"`
	Median int64 `json:"median"`
	Min    int64 `json:"min"`
	Max    int64 `json:"max"`
}

// Summarize reduces a slice of second-values to a Summary. An empty slice
// yields the zero Summary rather than an error, so empty runs still produce
// a well-formed document.
func Summarize(values []int64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	// Work on a copy to avoid mutating the original
	temp := make([]int64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	var sum int64
	for _, v := range temp {
		sum += v
	}

	return Summary{
		Sum:    sum,
		Mean:   int64(math.Round(float64(sum) / float64(len(temp)))),
		Median: medianOf(temp),
		Min:    temp[0],
		Max:    temp[len(temp)-1],
	}
}

// medianOf expects a sorted, non-empty slice. The median of an even-length
// set is the average of the two middle elements, rounded.
func medianOf(sorted []int64) int64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return int64(math.Round(float64(sorted[n/2-1]+sorted[n/2]) / 2.0))
}
