// Package source decodes an input batch of posts.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"tweetsieve/internal/model"
)

// ErrNoRecords means the document is neither a list of records nor an
// object with a "data" list.
var ErrNoRecords = errors.New("input contains no list of tweets")

// Decode reads a batch. The top level is either a JSON array of records or
// an object whose "data" member is one, as returned by the X API. Elements
// are not validated here; malformed ones surface as per-record errors when
// filtered.
func Decode(r io.Reader) ([]*model.Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return DecodeBytes(b)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(b []byte) ([]*model.Record, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, ErrNoRecords
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("decode input: invalid JSON")
	}
	var items []json.RawMessage
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
	case '{':
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
		d := bytes.TrimSpace(env.Data)
		if len(d) == 0 || d[0] != '[' {
			return nil, ErrNoRecords
		}
		if err := json.Unmarshal(d, &items); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
	default:
		return nil, ErrNoRecords
	}
	out := make([]*model.Record, len(items))
	for i, it := range items {
		out[i] = model.Parse(it)
	}
	return out, nil
}

// LoadFile decodes the batch stored at path.
func LoadFile(path string) ([]*model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
