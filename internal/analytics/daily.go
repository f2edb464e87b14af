package analytics

import (
	"sort"

	"tweetsieve/internal/model"
)

// DailyCounts counts records per created_date. Records without one are
// counted under model.UnknownDate.
func DailyCounts(records []*model.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		d, ok := r.CreatedDate()
		if !ok {
			d = model.UnknownDate
		}
		counts[d]++
	}
	return counts
}

// SortedDays returns the keys of counts in date order with the unknown
// bucket last.
func SortedDays(counts map[string]int) []string {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		if days[i] == model.UnknownDate || days[j] == model.UnknownDate {
			return days[j] == model.UnknownDate && days[i] != model.UnknownDate
		}
		return days[i] < days[j]
	})
	return days
}
