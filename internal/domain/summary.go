package domain

import (
	"time"

	"github.com/montanaflynn/stats"
)

// RunSummary describes one successful refresh.
type RunSummary struct {
	Org            string                  `json:"org"`
	Destination    string                  `json:"destination"`
	Fetched        int                     `json:"fetched"`
	Published      int                     `json:"published"`
	Excluded       map[ExclusionReason]int `json:"excluded"`
	MedianAgeDays  float64                 `json:"median_age_days"`
	OldestAgeDays  float64                 `json:"oldest_age_days"`
	ElapsedSeconds float64                 `json:"elapsed_seconds"`
	Warnings       []string                `json:"warnings,omitempty"`
}

// AgeStats returns the median and maximum age in days of records relative to now.
// Both are zero for an empty slice.
func AgeStats(records []ProjectRecord, now time.Time) (median, oldest float64) {
	if len(records) == 0 {
		return 0, 0
	}
	ages := make(stats.Float64Data, 0, len(records))
	for _, r := range records {
		ages = append(ages, now.Sub(r.CreatedAt).Hours()/24)
	}
	// Errors only occur on empty input, which is handled above.
	median, _ = ages.Median()
	oldest, _ = ages.Max()
	return median, oldest
}
