package filter

import (
	"sort"

	"tweetsieve/internal/model"
)

// SortMetric is the metric results are ordered by: the filter metric when
// one is set, otherwise reply_count.
func SortMetric(c Criteria) model.Metric {
	if c.MetricName != nil {
		return *c.MetricName
	}
	return model.DefaultSortMetric
}

// SortByMetric orders records by m, highest first. Ties keep their
// relative order and unreadable values count as zero.
func SortByMetric(records []*model.Record, m model.Metric) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MetricOrZero(m) > records[j].MetricOrZero(m)
	})
}
