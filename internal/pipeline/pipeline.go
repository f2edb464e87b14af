// Package pipeline drives one filter pass: filter, sort, then render each
// requested export format.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tweetsieve/internal/filter"
	"tweetsieve/internal/logging"
	"tweetsieve/internal/metrics"
	"tweetsieve/internal/model"
	"tweetsieve/internal/report"
)

// Outcome of Run. Records is sorted by SortedBy, highest first.
type Outcome struct {
	Total    int
	Records  []*model.Record
	Skipped  []filter.RecordError
	QueryErr error
	SortedBy model.Metric
}

// Run filters records with c and sorts the survivors. The input slice is not
// reordered; survivors gain a created_date field.
func Run(records []*model.Record, c filter.Criteria) Outcome {
	start := time.Now()
	metrics.FilterRuns.Inc()
	metrics.RecordsIn.Add(float64(len(records)))

	res := filter.Apply(records, c)
	by := filter.SortMetric(c)
	filter.SortByMetric(res.Records, by)

	metrics.RecordsKept.Add(float64(len(res.Records)))
	metrics.ObserveFilterDuration(start)
	logging.Info("filter_pass", map[string]any{
		"records":  len(records),
		"kept":     len(res.Records),
		"skipped":  len(res.Skipped),
		"sort_by":  string(by),
		"duration": time.Since(start).String(),
	})
	return Outcome{
		Total:    len(records),
		Records:  res.Records,
		Skipped:  res.Skipped,
		QueryErr: res.QueryErr,
		SortedBy: by,
	}
}

// Export renders records in each format independently. A format whose
// renderer fails is logged and left out; the others are still produced.
func Export(records []*model.Record, formats []report.Format, opts report.DocumentOptions) map[report.Format][]byte {
	out := make(map[report.Format][]byte, len(formats))
	for _, f := range formats {
		b, err := report.Render(f, records, opts)
		if err != nil {
			metrics.IncRenderFailure(string(f))
			logging.Error("render_failed", map[string]any{"format": string(f), "error": err})
			continue
		}
		out[f] = b
	}
	return out
}

// Execute is Run followed by Export of the sorted survivors.
func Execute(records []*model.Record, c filter.Criteria, formats []report.Format, opts report.DocumentOptions) (Outcome, map[report.Format][]byte) {
	o := Run(records, c)
	return o, Export(o.Records, formats, opts)
}

// WriteFiles stores each payload as dir/base.<ext> and returns the paths in
// format order.
func WriteFiles(dir, base string, payloads map[report.Format][]byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var paths []string
	for _, f := range report.Formats {
		b, ok := payloads[f]
		if !ok {
			continue
		}
		p := filepath.Join(dir, f.FileName(base))
		if err := os.WriteFile(p, b, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
