// Package filter selects records by word count, keywords, search query,
// engagement metric and creation date, and orders the survivors.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"tweetsieve/internal/model"
)

// KeywordMode decides how RequiredKeywords combine.
type KeywordMode string

const (
	ModeAll KeywordMode = "all"
	ModeAny KeywordMode = "any"
)

// ParseKeywordMode accepts "all" or "any" in any case. Blank means ModeAll.
func ParseKeywordMode(s string) (KeywordMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeAll):
		return ModeAll, nil
	case string(ModeAny):
		return ModeAny, nil
	}
	return "", fmt.Errorf("unknown keyword mode %q", s)
}

var ErrInvalidCriteria = errors.New("invalid criteria")

// Criteria is the parameter set for one filter pass. Nil pointers mean the
// bound is not set.
type Criteria struct {
	MinWords         int
	MaxWords         *int
	RequiredKeywords []string
	KeywordMode      KeywordMode
	MetricName       *model.Metric
	MinMetricValue   int64
	SearchQuery      string
	FromDate         *Date
	ToDate           *Date
}

// Validate rejects negative counts, unknown modes and unknown metrics.
func (c Criteria) Validate() error {
	if c.MinWords < 0 {
		return fmt.Errorf("%w: min_words must be >= 0", ErrInvalidCriteria)
	}
	if c.MaxWords != nil && *c.MaxWords < 0 {
		return fmt.Errorf("%w: max_words must be >= 0", ErrInvalidCriteria)
	}
	if c.MinMetricValue < 0 {
		return fmt.Errorf("%w: min_metric_value must be >= 0", ErrInvalidCriteria)
	}
	switch c.KeywordMode {
	case "", ModeAll, ModeAny:
	default:
		return fmt.Errorf("%w: keyword mode %q", ErrInvalidCriteria, c.KeywordMode)
	}
	if c.MetricName != nil {
		if _, err := model.ParseMetric(string(*c.MetricName)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
		}
	}
	return nil
}

// IntPtr is a helper for optional bounds.
func IntPtr(n int) *int { return &n }

// MetricPtr is a helper for MetricName.
func MetricPtr(m model.Metric) *model.Metric { return &m }
