package aggregator

import (
	"sort"
	"time"

	"voice-appointments-go/internal/types"
)

// Summary describes a batch of extraction results.
type Summary struct {
	Total      int            `json:"total"`
	NamesFound int            `json:"names_found"`
	DatesFound int            `json:"dates_found"`
	TimesFound int            `json:"times_found"`
	Complete   int            `json:"complete"`
	ByMonth    map[string]int `json:"by_month"`
}

// Months returns the ByMonth keys in calendar order.
func (s Summary) Months() []string {
	months := make([]string, 0, len(s.ByMonth))
	for m := range s.ByMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// Aggregate counts what was found. Requests are bucketed by the YYYY-MM of
// their resolved date; results without a date are left out of ByMonth.
func Aggregate(results []types.ExtractionResult) Summary {
	s := Summary{Total: len(results), ByMonth: map[string]int{}}
	for _, r := range results {
		name := r.Name != "" && r.Name != types.Unknown
		date := r.Date != "" && r.Date != types.Unknown
		clock := r.Time != "" && r.Time != types.Unknown
		if name {
			s.NamesFound++
		}
		if clock {
			s.TimesFound++
		}
		if date {
			s.DatesFound++
			if d, err := time.Parse(time.DateOnly, r.Date); err == nil {
				s.ByMonth[d.Format("2006-01")]++
			}
		}
		if name && date && clock {
			s.Complete++
		}
	}
	return s
}
