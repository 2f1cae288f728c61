// Package importer turns a vendor logbook export into persisted rows.
//
// The pipeline is Decode → Validator.Records → Saver.Save. Decoding and
// validation never touch storage; Save plans the whole batch in memory and
// writes it in a single transaction using collect-then-link: every row is
// inserted with its reference columns empty, then the references are
// resolved against whatever the referenced tables hold after the inserts.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Raw is one undecoded log record.
type Raw = map[string]any

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses a vendor export. The export over-escapes quotes, so every
// `\"` is collapsed to `"` before parsing. Numbers are kept as json.Number.
func Decode(payload []byte) ([]Raw, error) {
	payload = bytes.TrimPrefix(payload, utf8BOM)
	if !utf8.Valid(payload) {
		return nil, &MalformedInputError{Reason: "payload is not valid UTF-8"}
	}
	return DecodeString(string(payload))
}

// DecodeString is Decode for text payloads.
func DecodeString(text string) ([]Raw, error) {
	text = strings.ReplaceAll(text, `\"`, `"`)

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedInputError{Reason: "not parseable", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &MalformedInputError{Reason: "trailing data after top-level value"}
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, &MalformedInputError{Reason: "top-level value is not an array", Err: ErrNotArray}
	}
	out := make([]Raw, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("element %d is not an object", i), Err: ErrNotObject}
		}
		out = append(out, m)
	}
	return out, nil
}
