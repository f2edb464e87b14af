// Package report renders filtered records as JSON, plain text and PDF.
package report

import (
	"errors"
	"fmt"
	"strings"

	"tweetsieve/internal/model"
)

// Format is an export format, named by its file extension.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// Formats lists every export format in the order they are written.
var Formats = []Format{FormatJSON, FormatText, FormatPDF}

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts a format name or extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseFormats parses each name and drops duplicates. An empty list selects
// every format.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return append([]Format(nil), Formats...), nil
	}
	seen := map[Format]bool{}
	var out []Format
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func (f Format) Extension() string { return string(f) }

func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileName joins base and the extension, e.g. filtered_tweets.pdf.
func (f Format) FileName(base string) string { return base + "." + f.Extension() }

// Render produces the payload for one format. The PDF renderer never fails;
// it returns FailureDocument instead.
func Render(f Format, records []*model.Record, opts DocumentOptions) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(records)
	case FormatText:
		return []byte(Text(records)), nil
	case FormatPDF:
		return PDF(records, opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

func createdDate(r *model.Record) string {
	if d, ok := r.CreatedDate(); ok {
		return d
	}
	return model.UnknownDate
}
