// Package jsonutil wraps github.com/go-json-experiment/json for the two hot
// paths of a scan: decoding scanner result lines and encoding JSONL findings.
//
// Usage:
//
//	var rec nuclei.Result
//	err := jsonutil.Unmarshal(line, &rec)
//
//	enc := jsonutil.NewLineEncoder(w)
//	err := enc.Encode(f)
package jsonutil

import (
	"io"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
// Unknown members are ignored; scanner output grows fields between releases.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent returns the indented JSON encoding of v.
func MarshalIndent(v any, indent string) ([]byte, error) {
	return json.Marshal(v, jsontext.WithIndent(indent))
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// LineEncoder writes one JSON value per line. It is safe for concurrent use.
type LineEncoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineEncoder creates an encoder that writes to w.
func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

// Encode writes the JSON encoding of v followed by a newline.
func (e *LineEncoder) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = e.w.Write(data)
	return err
}
