package pricer

import (
	"errors"
	"fmt"
)

// Error kinds reported by ledger operations. Callers test them with errors.Is;
// the returned errors wrap them with the offending symbol, index or value.
var (
	// ErrSymbolNotFound is returned when an operation references a symbol absent from the ledger.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrInvalidIndex is returned when a position index is negative or beyond the visible open lots.
	ErrInvalidIndex = errors.New("invalid position index")
	// ErrInvalidShareAmount is returned for non-positive shares, or a reduction exceeding the shares held.
	ErrInvalidShareAmount = errors.New("invalid share amount")
	// ErrInvalidPrice is returned for a negative cost or sell price.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrMalformedLedger is returned when the ledger file does not have the expected shape.
	ErrMalformedLedger = errors.New("malformed ledger")
	// ErrIO is returned when the ledger file cannot be read, written or locked.
	ErrIO = errors.New("ledger i/o error")
	// ErrLocked is returned when another process holds the ledger lock.
	ErrLocked = fmt.Errorf("%w: ledger is locked by another process", ErrIO)
	// ErrZeroCostBasis is returned when a percentage is requested against a zero cost basis.
	ErrZeroCostBasis = errors.New("zero cost basis")
)
