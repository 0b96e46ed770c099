package pricer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/etnz/pricer/date"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Tuple arity of each lot variant in the ledger file.
const (
	openFields       = 4 // shares, cost, until, opened
	hiddenOpenFields = 5 // ... hidden
	closedFields     = 6 // shares, cost, until, opened, sellPrice, closed
)

// document is the shape of the ledger file.
type document struct {
	Open     map[string][]json.RawMessage `json:"open"`
	Closed   map[string][]json.RawMessage `json:"closed"`
	Notes    map[string]string            `json:"notes"`
	Excludes []string                     `json:"excludes"`
}

// DecodeLedger reads a ledger file.
//
// Any deviation from the expected shape (missing "open" or "closed"
// sections, tuples of the wrong arity or field types, non positive open
// shares) is reported as an error wrapping ErrMalformedLedger.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	l, _, err := decodeLedger(r, false)
	return l, err
}

// DecodeLegacyLedger reads a ledger file written by older versions, where
// sold lots were left in the "open" section with their sale fields appended.
// Those lots are moved to the "closed" section, and open lots with no
// shares are dropped. It returns the number of lots moved or dropped.
func DecodeLegacyLedger(r io.Reader) (*Ledger, int, error) {
	return decodeLedger(r, true)
}

func decodeLedger(r io.Reader, legacy bool) (*Ledger, int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: error reading ledger: %w", ErrIO, err)
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedLedger, err)
	}
	for _, name := range []string{"open", "closed"} {
		if s, ok := sections[name]; !ok || string(s) == "null" {
			return nil, 0, fmt.Errorf("%w: missing %q section", ErrMalformedLedger, name)
		}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedLedger, err)
	}

	ledger := NewLedger()
	fixed := 0
	// symbols are visited in file-independent order, tuples in file order
	// so that lots of equal cost keep their relative order.
	for _, key := range slices.Sorted(maps.Keys(doc.Open)) {
		sym := Symbol(key)
		rec := ledger.ensure(sym)
		for i, tuple := range doc.Open[key] {
			fields, err := splitTuple(tuple)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: open[%s][%d]: %w", ErrMalformedLedger, key, i, err)
			}
			if legacy && len(fields) == closedFields {
				c, err := decodeClosed(fields)
				if err != nil {
					return nil, 0, fmt.Errorf("%w: open[%s][%d]: %w", ErrMalformedLedger, key, i, err)
				}
				rec.closed = append(rec.closed, c)
				fixed++
				log.Info().Str("symbol", sym).Int("index", i).Msg("moving sold lot to the closed section")
				continue
			}
			o, err := decodeOpen(fields)
			if legacy && errors.Is(err, ErrInvalidShareAmount) && o.Shares.IsZero() {
				fixed++
				log.Info().Str("symbol", sym).Int("index", i).Msg("dropping open lot without shares")
				continue
			}
			if err != nil {
				return nil, 0, fmt.Errorf("%w: open[%s][%d]: %w", ErrMalformedLedger, key, i, err)
			}
			rec.insert(o)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(doc.Closed)) {
		sym := Symbol(key)
		rec := ledger.ensure(sym)
		for i, tuple := range doc.Closed[key] {
			fields, err := splitTuple(tuple)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: closed[%s][%d]: %w", ErrMalformedLedger, key, i, err)
			}
			c, err := decodeClosed(fields)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: closed[%s][%d]: %w", ErrMalformedLedger, key, i, err)
			}
			rec.closed = append(rec.closed, c)
		}
	}
	for sym, text := range doc.Notes {
		ledger.SetNote(sym, text)
	}
	for _, sym := range doc.Excludes {
		ledger.Exclude(sym)
	}
	return ledger, fixed, nil
}

// ensure returns the record of sym, creating it if needed.
func (l *Ledger) ensure(sym string) *symbolRecord {
	rec, ok := l.symbols[sym]
	if !ok {
		rec = &symbolRecord{}
		l.symbols[sym] = rec
	}
	return rec
}

func splitTuple(raw json.RawMessage) ([]json.RawMessage, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("lot is not a list: %w", err)
	}
	return fields, nil
}

func decodeOpen(fields []json.RawMessage) (OpenLot, error) {
	if n := len(fields); n != openFields && n != hiddenOpenFields {
		return OpenLot{}, fmt.Errorf("open lot has %d fields, want %d or %d", n, openFields, hiddenOpenFields)
	}
	var lot OpenLot
	var cost decimal.Decimal
	if err := decodeFields(fields[:openFields], &lot.Shares, &cost, &lot.Until, &lot.Opened); err != nil {
		return OpenLot{}, err
	}
	lot.Cost = M(cost, DefaultCurrency)
	if len(fields) == hiddenOpenFields {
		if err := json.Unmarshal(fields[4], &lot.Hidden); err != nil {
			return OpenLot{}, fmt.Errorf("field 4 (hidden): %w", err)
		}
	}
	if !lot.Shares.IsPositive() {
		return lot, fmt.Errorf("%w: open lot with %s shares", ErrInvalidShareAmount, lot.Shares)
	}
	return lot, nil
}

func decodeClosed(fields []json.RawMessage) (ClosedLot, error) {
	if n := len(fields); n != closedFields {
		return ClosedLot{}, fmt.Errorf("closed lot has %d fields, want %d", n, closedFields)
	}
	var lot ClosedLot
	var cost, sell decimal.Decimal
	if err := decodeFields(fields, &lot.Shares, &cost, &lot.Until, &lot.Opened, &sell, &lot.Closed); err != nil {
		return ClosedLot{}, err
	}
	lot.Cost = M(cost, DefaultCurrency)
	lot.SellPrice = M(sell, DefaultCurrency)
	return lot, nil
}

// decodeFields unmarshals each field into its destination. A null until is
// decoded as the empty string, null dates as the zero date.
func decodeFields(fields []json.RawMessage, dst ...any) error {
	for i, f := range fields {
		if string(f) == "null" {
			switch dst[i].(type) {
			case *string, *date.Date:
				continue
			}
			return fmt.Errorf("field %d is null", i)
		}
		if err := json.Unmarshal(f, dst[i]); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

// EncodeLedger writes the ledger in its canonical form: symbols sorted, one
// lot per line.
func EncodeLedger(w io.Writer, l *Ledger) error {
	bw := bufio.NewWriter(w)

	var open, closed []section
	for sym := range l.Symbols() {
		rec := l.symbols[sym]
		var o, c []json.Marshaler
		for _, lot := range rec.open {
			o = append(o, encodeOpen(lot))
		}
		for _, lot := range rec.closed {
			c = append(c, encodeClosed(lot))
		}
		// every symbol is listed in both sections, even when one is empty.
		open = append(open, section{sym, o})
		closed = append(closed, section{sym, c})
	}

	fmt.Fprintln(bw, "{")
	if err := writeSections(bw, "open", open); err != nil {
		return err
	}
	fmt.Fprintln(bw, ",")
	if err := writeSections(bw, "closed", closed); err != nil {
		return err
	}
	fmt.Fprintln(bw, ",")

	notes, err := json.Marshal(maps.Collect(l.Notes()))
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}
	fmt.Fprintf(bw, " \"notes\": %s,\n", notes)

	ex := l.Excludes()
	if ex == nil {
		ex = []string{}
	}
	excludes, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to marshal excludes: %w", err)
	}
	fmt.Fprintf(bw, " \"excludes\": %s\n", excludes)
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

type section struct {
	symbol string
	lots   []json.Marshaler
}

func writeSections(w io.Writer, name string, sections []section) error {
	if len(sections) == 0 {
		_, err := fmt.Fprintf(w, " %q: {}", name)
		return err
	}
	fmt.Fprintf(w, " %q: {\n", name)
	for i, s := range sections {
		if len(s.lots) == 0 {
			fmt.Fprintf(w, "  %q: []", s.symbol)
		} else {
			fmt.Fprintf(w, "  %q: [\n", s.symbol)
			for j, lot := range s.lots {
				raw, err := lot.MarshalJSON()
				if err != nil {
					return fmt.Errorf("failed to marshal %s lot %d of %s: %w", name, j, s.symbol, err)
				}
				sep := ","
				if j == len(s.lots)-1 {
					sep = ""
				}
				fmt.Fprintf(w, "   %s%s\n", raw, sep)
			}
			fmt.Fprint(w, "  ]")
		}
		if i < len(sections)-1 {
			fmt.Fprint(w, ",")
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprint(w, " }")
	return err
}

func encodeOpen(lot OpenLot) *jsonArrayWriter {
	var w jsonArrayWriter
	w.Append(lot.Shares).Append(lot.Cost.Decimal()).Optional(lot.Until).Date(lot.Opened)
	if lot.Hidden {
		w.Append(true)
	}
	return &w
}

func encodeClosed(lot ClosedLot) *jsonArrayWriter {
	var w jsonArrayWriter
	w.Append(lot.Shares).Append(lot.Cost.Decimal()).Optional(lot.Until).Date(lot.Opened)
	w.Append(lot.SellPrice.Decimal()).Date(lot.Closed)
	return &w
}
