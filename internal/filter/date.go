package filter

import (
	"fmt"
	"strings"
	"time"

	"tweetsieve/internal/model"
)

const dateLayout = "2006-01-02"

// Date is a calendar date in YYYY-MM-DD form. Dates in that form order
// correctly as strings.
type Date string

// ParseDate validates s as YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return Date(t.Format(dateLayout)), nil
}

// DatePtr parses s and panics on error. Intended for tests and literals.
func DatePtr(s string) *Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

// timestampLayouts are tried in order after a trailing Z is removed.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04-0700",
	"2006-01-02 15:04",
	"2006-01-02T15Z07:00",
	"2006-01-02T15",
	"2006-01-02 15",
	dateLayout,
	"20060102",
}

// DeriveDate normalizes a created_at value to its calendar date. The date
// is taken in the timestamp's own offset. ok is false when nothing parses.
func DeriveDate(createdAt string) (Date, bool) {
	s := strings.TrimSpace(createdAt)
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t.Format(dateLayout)), true
		}
	}
	return "", false
}

// createdDate returns the record's normalized date or model.UnknownDate.
func createdDate(r *model.Record) string {
	raw, ok := r.CreatedAt()
	if !ok {
		return model.UnknownDate
	}
	d, ok := DeriveDate(raw)
	if !ok {
		return model.UnknownDate
	}
	return string(d)
}

func inRange(date string, from, to *Date) bool {
	if date == model.UnknownDate {
		return true
	}
	if from != nil && date < string(*from) {
		return false
	}
	if to != nil && date > string(*to) {
		return false
	}
	return true
}
