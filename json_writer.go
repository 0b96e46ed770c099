package pricer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/etnz/pricer/date"
)

// jsonArrayWriter helps construct a compact JSON array with a fixed element order.
// Its zero value is ready to use.
type jsonArrayWriter struct {
	bytes.Buffer
	n   int // number of elements
	err error
}

// Append marshals value and appends it as the next element.
func (w *jsonArrayWriter) Append(value any) *jsonArrayWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal array element %d: %w", w.n, err)
		return w
	}
	if w.n > 0 {
		w.WriteString(", ")
	}
	w.Write(raw)
	w.n++
	return w
}

// Null appends a JSON null.
func (w *jsonArrayWriter) Null() *jsonArrayWriter {
	return w.Append(nil)
}

// Optional appends value, or null when value is the zero string.
func (w *jsonArrayWriter) Optional(value string) *jsonArrayWriter {
	if value == "" {
		return w.Null()
	}
	return w.Append(value)
}

// Date appends a date, or null for the zero date.
func (w *jsonArrayWriter) Date(d date.Date) *jsonArrayWriter {
	if d.IsZero() {
		return w.Null()
	}
	return w.Append(d)
}

// MarshalJSON returns the final JSON array. It implements the `json.Marshaler` interface.
func (w *jsonArrayWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	final := make([]byte, 0, w.Len()+2)
	final = append(final, '[')
	final = append(final, w.Bytes()...)
	final = append(final, ']')
	return final, nil
}
