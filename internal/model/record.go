package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unknown marks a value that the record does not carry.
const Unknown = "unknown"

// UnknownDate is stored in created_date when a record has no usable timestamp.
const UnknownDate = Unknown

const (
	fieldText          = "text"
	fieldCreatedAt     = "created_at"
	fieldCreatedDate   = "created_date"
	fieldPublicMetrics = "public_metrics"
)

var (
	ErrNotObject     = errors.New("record is not a JSON object")
	ErrTextNotString = errors.New("text field is not a string")
	ErrBadMetric     = errors.New("metric value is not an integer")
)

// Record is one post from the input batch. The JSON object is kept as raw
// values in input key order so exports reproduce it verbatim; created_date is
// the only field ever added.
type Record struct {
	raw    json.RawMessage
	keys   []string
	fields map[string]json.RawMessage
	err    error

	metrics    map[string]json.RawMessage
	metricsErr error
}

// Parse wraps a raw JSON value. It never fails: a malformed value produces a
// record whose accessors report the problem.
func Parse(raw json.RawMessage) *Record {
	r := &Record{raw: raw, fields: map[string]json.RawMessage{}}
	if err := r.decode(); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrNotObject, err)
		return r
	}
	r.decodeMetrics()
	return r
}

func (r *Record) decode() error {
	dec := json.NewDecoder(bytes.NewReader(r.raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("got %s", describe(tok))
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if _, seen := r.fields[key]; !seen {
			r.keys = append(r.keys, key)
		}
		r.fields[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (r *Record) decodeMetrics() {
	v, ok := r.fields[fieldPublicMetrics]
	if !ok || isNull(v) {
		return
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(v, &m); err != nil {
		r.metricsErr = fmt.Errorf("%w: public_metrics is not an object", ErrBadMetric)
		return
	}
	r.metrics = m
}

func describe(tok json.Token) string {
	switch tok.(type) {
	case json.Delim:
		return "array"
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", tok)
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Err reports a shape error found while parsing, or nil.
func (r *Record) Err() error { return r.err }

// Text returns the post body. A missing field reads as "".
func (r *Record) Text() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	v, ok := r.fields[fieldText]
	if !ok {
		return "", nil
	}
	var s string
	if isNull(v) || json.Unmarshal(v, &s) != nil {
		return "", ErrTextNotString
	}
	return s, nil
}

// ID returns the id field as text. Numeric ids keep their JSON spelling.
func (r *Record) ID() string {
	if r.err != nil {
		return ""
	}
	v, ok := r.fields["id"]
	if !ok || isNull(v) {
		return ""
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		return s
	}
	return string(bytes.TrimSpace(v))
}

// PublicMetrics returns the raw public_metrics value, or nil.
func (r *Record) PublicMetrics() json.RawMessage {
	if r.err != nil {
		return nil
	}
	v, ok := r.fields[fieldPublicMetrics]
	if !ok || isNull(v) {
		return nil
	}
	return v
}

// CreatedAt returns created_at when it is a non-empty string.
func (r *Record) CreatedAt() (string, bool) {
	return r.stringField(fieldCreatedAt)
}

// CreatedDate returns the derived created_date, if one was attached.
func (r *Record) CreatedDate() (string, bool) {
	return r.stringField(fieldCreatedDate)
}

func (r *Record) stringField(name string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// SetCreatedDate attaches the normalized date. Calling it again with the same
// value leaves the record unchanged.
func (r *Record) SetCreatedDate(d string) {
	if r.err != nil {
		return
	}
	b, _ := json.Marshal(d)
	if _, ok := r.fields[fieldCreatedDate]; !ok {
		r.keys = append(r.keys, fieldCreatedDate)
	}
	r.fields[fieldCreatedDate] = b
}

// Metric reads public_metrics[m]. known is false when the mapping or the key
// is absent or null; such values count as zero.
func (r *Record) Metric(m Metric) (value int64, known bool, err error) {
	if r.err != nil {
		return 0, false, r.err
	}
	if r.metricsErr != nil {
		return 0, false, r.metricsErr
	}
	v, ok := r.metrics[string(m)]
	if !ok || isNull(v) {
		return 0, false, nil
	}
	n, err := parseCount(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", m, err)
	}
	return n, true, nil
}

// MetricOrZero is the sort key: anything unreadable counts as zero.
func (r *Record) MetricOrZero(m Metric) int64 {
	n, _, err := r.Metric(m)
	if err != nil {
		return 0
	}
	return n
}

// MetricDisplay renders a metric for reports; absent values become "unknown".
func (r *Record) MetricDisplay(m Metric) string {
	n, known, err := r.Metric(m)
	if err != nil || !known {
		return Unknown
	}
	return strconv.FormatInt(n, 10)
}

func parseCount(v json.RawMessage) (int64, error) {
	var x any
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return 0, ErrBadMetric
	}
	switch t := x.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, ErrBadMetric
		}
		switch {
		case f >= math.MaxInt64:
			return math.MaxInt64, nil
		case f <= math.MinInt64:
			return math.MinInt64, nil
		}
		return int64(f), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, ErrBadMetric
		}
		return n, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	return 0, ErrBadMetric
}

// MarshalJSON re-emits the object in input key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.err != nil {
		if len(bytes.TrimSpace(r.raw)) == 0 {
			return []byte("null"), nil
		}
		return r.raw, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(r.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
