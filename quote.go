package pricer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// ErrNoQuote is returned by a Quoter that has no price for a symbol.
var ErrNoQuote = errors.New("no quote")

// Session is the market session a quote was taken in.
type Session int

const (
	SessionClosed Session = iota
	SessionPre
	SessionRegular
	SessionPost
)

func (s Session) String() string {
	switch s {
	case SessionPre:
		return "pre"
	case SessionRegular:
		return "regular"
	case SessionPost:
		return "post"
	default:
		return "closed"
	}
}

// ParseSession parses a session name, case insensitive. Market data feeds
// use variants like "PREPRE" or "POSTPOST" that are mapped to their session.
func ParseSession(s string) (Session, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pre", "prepre":
		return SessionPre, nil
	case "regular", "":
		return SessionRegular, nil
	case "post", "postpost":
		return SessionPost, nil
	case "closed":
		return SessionClosed, nil
	}
	return SessionClosed, fmt.Errorf("unknown market session %q", s)
}

// Extended reports whether the session is outside regular trading hours.
func (s Session) Extended() bool { return s == SessionPre || s == SessionPost }

// Quote is the market price of a symbol.
type Quote struct {
	Price         Money
	Change        Money   // Change since the previous close.
	PercentChange Percent // PercentChange is Change relative to the previous close.
	Session       Session
}

// Quoter provides market prices.
type Quoter interface {
	Quote(symbol string) (Quote, error)
}

// StaticQuotes is a Quoter with fixed regular session prices.
type StaticQuotes map[string]Money

// Set records the price of symbol.
func (q StaticQuotes) Set(symbol string, price Money) { q[Symbol(symbol)] = price }

func (q StaticQuotes) Quote(symbol string) (Quote, error) {
	p, ok := q[Symbol(symbol)]
	if !ok {
		return Quote{}, fmt.Errorf("%w for %s", ErrNoQuote, Symbol(symbol))
	}
	return Quote{Price: p, Session: SessionRegular}, nil
}

// Quoters asks each Quoter in turn, until one has a quote.
type Quoters []Quoter

func (qs Quoters) Quote(symbol string) (Quote, error) {
	for _, q := range qs {
		quote, err := q.Quote(symbol)
		if errors.Is(err, ErrNoQuote) {
			continue
		}
		return quote, err
	}
	return Quote{}, fmt.Errorf("%w for %s", ErrNoQuote, Symbol(symbol))
}

// QuotePaths locates quote fields in a quotes document.
//
// Each path is a JSONPath template where %q stands for the symbol, such as
// `$[%q].c`. Empty paths are not read. When Session is read and says pre or
// post market, the matching extended fields are used if they carry a change.
type QuotePaths struct {
	Price   string `toml:"price"`
	Change  string `toml:"change"`
	Percent string `toml:"percent"`
	Session string `toml:"session"`

	PrePrice    string `toml:"pre_price"`
	PreChange   string `toml:"pre_change"`
	PrePercent  string `toml:"pre_percent"`
	PostPrice   string `toml:"post_price"`
	PostChange  string `toml:"post_change"`
	PostPercent string `toml:"post_percent"`
}

// FinnhubPaths reads a document mapping symbols to Finnhub quote objects.
var FinnhubPaths = QuotePaths{
	Price:   `$[%q].c`,
	Change:  `$[%q].d`,
	Percent: `$[%q].dp`,
}

// YahooPaths reads a document mapping symbols to Yahoo Finance quote results.
var YahooPaths = QuotePaths{
	Price:       `$[%q].regularMarketPrice`,
	Change:      `$[%q].regularMarketChange`,
	Percent:     `$[%q].regularMarketChangePercent`,
	Session:     `$[%q].marketState`,
	PrePrice:    `$[%q].preMarketPrice`,
	PreChange:   `$[%q].preMarketChange`,
	PrePercent:  `$[%q].preMarketChangePercent`,
	PostPrice:   `$[%q].postMarketPrice`,
	PostChange:  `$[%q].postMarketChange`,
	PostPercent: `$[%q].postMarketChangePercent`,
}

// QuoteFile is a Quoter reading a JSON quotes document written by an
// external fetcher.
type QuoteFile struct {
	doc      any
	paths    QuotePaths
	currency string
}

// LoadQuoteFile reads the quotes document at path.
func LoadQuoteFile(path string, paths QuotePaths) (*QuoteFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read quotes file: %w", err)
	}
	return NewQuoteFile(raw, paths)
}

// NewQuoteFile parses a JSON quotes document.
func NewQuoteFile(raw []byte, paths QuotePaths) (*QuoteFile, error) {
	if paths.Price == "" {
		return nil, errors.New("quotes file has no price path")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse quotes file: %w", err)
	}
	return &QuoteFile{doc: doc, paths: paths, currency: DefaultCurrency}, nil
}

func (f *QuoteFile) Quote(symbol string) (Quote, error) {
	sym := Symbol(symbol)
	regular, ok, err := f.read(sym, f.paths.Price, f.paths.Change, f.paths.Percent)
	if err != nil {
		return Quote{}, fmt.Errorf("cannot read quote of %s: %w", sym, err)
	}
	if !ok {
		return Quote{}, fmt.Errorf("%w for %s", ErrNoQuote, sym)
	}
	regular.Session = SessionRegular

	state, err := f.session(sym)
	if err != nil {
		return Quote{}, fmt.Errorf("cannot read quote of %s: %w", sym, err)
	}
	pre, _, err := f.read(sym, f.paths.PrePrice, f.paths.PreChange, f.paths.PrePercent)
	if err != nil {
		return Quote{}, fmt.Errorf("cannot read pre market quote of %s: %w", sym, err)
	}
	pre.Session = SessionPre
	post, _, err := f.read(sym, f.paths.PostPrice, f.paths.PostChange, f.paths.PostPercent)
	if err != nil {
		return Quote{}, fmt.Errorf("cannot read post market quote of %s: %w", sym, err)
	}
	post.Session = SessionPost
	return selectSession(state, regular, pre, post), nil
}

// selectSession picks the quote to use during state.
//
// Pre market falls back to post market data (the previous evening) when
// there is none. Extended quotes without a change are ignored in favor of
// the regular one.
func selectSession(state Session, regular, pre, post Quote) Quote {
	var q Quote
	switch state {
	case SessionPre:
		q = pre
		if q.Price.IsZero() {
			q = post
		}
	case SessionPost:
		q = post
	default:
		return regular
	}
	if q.Price.IsZero() || q.Change.IsZero() {
		return regular
	}
	return q
}

func (f *QuoteFile) session(sym string) (Session, error) {
	if f.paths.Session == "" {
		return SessionRegular, nil
	}
	v, ok, err := f.get(sym, f.paths.Session)
	if err != nil || !ok {
		return SessionRegular, err
	}
	s, ok := v.(string)
	if !ok {
		return SessionRegular, fmt.Errorf("session is not a string: %v", v)
	}
	return ParseSession(s)
}

// read extracts a quote's numeric fields. It reports false when there is no price.
func (f *QuoteFile) read(sym, pricePath, changePath, percentPath string) (Quote, bool, error) {
	var q Quote
	if pricePath == "" {
		return q, false, nil
	}
	price, ok, err := f.number(sym, pricePath)
	if err != nil || !ok {
		return q, false, err
	}
	change, _, err := f.number(sym, changePath)
	if err != nil {
		return q, false, err
	}
	pct, _, err := f.number(sym, percentPath)
	if err != nil {
		return q, false, err
	}
	q.Price = M(price, f.currency)
	q.Change = M(change, f.currency)
	q.PercentChange = Percent(pct.InexactFloat64())
	return q, true, nil
}

func (f *QuoteFile) number(sym, path string) (decimal.Decimal, bool, error) {
	if path == "" {
		return decimal.Zero, false, nil
	}
	v, ok, err := f.get(sym, path)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), true, nil
	case string:
		// some feeds quote numbers
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("%s is not a number: %q", fmt.Sprintf(path, sym), x)
		}
		return d, true, nil
	}
	return decimal.Zero, false, fmt.Errorf("%s is not a number: %v", fmt.Sprintf(path, sym), v)
}

// get evaluates a path template for sym. A missing key or a null value is
// reported as not ok, not as an error.
func (f *QuoteFile) get(sym, path string) (any, bool, error) {
	expr := fmt.Sprintf(path, sym)
	v, err := jsonpath.Get(expr, f.doc)
	if err != nil {
		if strings.Contains(err.Error(), "unknown key") || strings.Contains(err.Error(), "out of bound") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error evaluating %q: %w", expr, err)
	}
	// jsonpath may return a list of one answer, or the answer itself: keep the first.
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, false, nil
		}
		v = list[0]
	}
	if v == nil {
		return nil, false, nil
	}
	return v, true, nil
}
