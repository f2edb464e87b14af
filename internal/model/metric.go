package model

import (
	"fmt"
	"strings"
)

// Metric names one engagement counter inside a record's public_metrics mapping.
type Metric string

const (
	ReplyCount      Metric = "reply_count"
	RetweetCount    Metric = "retweet_count"
	LikeCount       Metric = "like_count"
	QuoteCount      Metric = "quote_count"
	BookmarkCount   Metric = "bookmark_count"
	ImpressionCount Metric = "impression_count"
)

// DefaultSortMetric orders results when no metric filter was chosen.
const DefaultSortMetric = ReplyCount

// Metrics lists every supported metric in display order.
var Metrics = []Metric{ReplyCount, RetweetCount, LikeCount, QuoteCount, BookmarkCount, ImpressionCount}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	s = strings.TrimSpace(s)
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Label is the human-readable name used in reports, e.g. "Replies".
func (m Metric) Label() string {
	switch m {
	case ReplyCount:
		return "Replies"
	case RetweetCount:
		return "Retweets"
	case LikeCount:
		return "Likes"
	case QuoteCount:
		return "Quotes"
	case BookmarkCount:
		return "Bookmarks"
	case ImpressionCount:
		return "Impressions"
	}
	return string(m)
}
