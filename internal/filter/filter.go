package filter

import (
	"fmt"
	"strings"

	"tweetsieve/internal/logging"
	"tweetsieve/internal/metrics"
	"tweetsieve/internal/model"
	"tweetsieve/internal/query"
	"tweetsieve/internal/util"
)

// RecordError is a record that could not be evaluated. Index is its position
// in the input batch.
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string { return fmt.Sprintf("record %d: %v", e.Index, e.Err) }

func (e RecordError) Unwrap() error { return e.Err }

// Result of one filter pass. Records keeps input order.
type Result struct {
	Records  []*model.Record
	Skipped  []RecordError
	QueryErr error
}

// pass holds per-pass state so the search query is compiled once.
type pass struct {
	c        Criteria
	q        *query.Query
	queryErr error
	keywords []string
}

func newPass(c Criteria) *pass {
	p := &pass{c: c, keywords: c.RequiredKeywords}
	if strings.TrimSpace(c.SearchQuery) != "" {
		p.q, p.queryErr = query.Compile(c.SearchQuery)
	}
	return p
}

// Match evaluates a single record. It attaches created_date when the record
// reaches the date clause. A malformed search query makes every record fail.
func Match(r *model.Record, c Criteria) (bool, error) {
	return newPass(c).match(r)
}

func (p *pass) match(r *model.Record) (bool, error) {
	if err := r.Err(); err != nil {
		return false, err
	}
	text, err := r.Text()
	if err != nil {
		return false, err
	}

	words := util.WordCount(text)
	if words < p.c.MinWords {
		return false, nil
	}
	if p.c.MaxWords != nil && words > *p.c.MaxWords {
		return false, nil
	}

	if strings.TrimSpace(p.c.SearchQuery) != "" {
		if p.queryErr != nil || !p.q.Match(text) {
			return false, nil
		}
	}

	if len(p.keywords) > 0 {
		var ok bool
		if p.c.KeywordMode == ModeAny {
			ok = util.ContainsAnyCaseInsensitive(text, p.keywords)
		} else {
			ok = util.ContainsAllCaseInsensitive(text, p.keywords)
		}
		if !ok {
			return false, nil
		}
	}

	if p.c.MetricName != nil {
		v, _, err := r.Metric(*p.c.MetricName)
		if err != nil {
			return false, err
		}
		if v < p.c.MinMetricValue {
			return false, nil
		}
	}

	date := createdDate(r)
	r.SetCreatedDate(date)
	return inRange(date, p.c.FromDate, p.c.ToDate), nil
}

// Apply runs one filter pass over records. Records that raise an error are
// logged with their index and skipped; the pass always completes.
func Apply(records []*model.Record, c Criteria) Result {
	p := newPass(c)
	var res Result
	if p.queryErr != nil {
		res.QueryErr = p.queryErr
		metrics.QueryErrors.Inc()
		logging.Warn("query_invalid", map[string]any{"query": c.SearchQuery, "error": p.queryErr})
	}
	for i, r := range records {
		ok, err := p.match(r)
		if err != nil {
			res.Skipped = append(res.Skipped, RecordError{Index: i, Err: err})
			metrics.RecordsSkipped.Inc()
			logging.Warn("record_skipped", map[string]any{"index": i, "error": err})
			continue
		}
		if ok {
			res.Records = append(res.Records, r)
		}
	}
	return res
}
