package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tweetsieve/internal/model"
)

// JSON writes records as a pretty-printed array, two-space indented, with
// non-ASCII text and HTML characters left as they are.
func JSON(records []*model.Record) ([]byte, error) {
	if records == nil {
		records = []*model.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
