package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery marks configuration errors: bad bounds, bad thread count.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrDataFormat marks malformed input rows. Always fatal for the query.
	ErrDataFormat = errors.New("malformed data")
)

// FormatError locates a malformed field. The loader sets Line, the 1-based
// file line. The scan sets Row instead, the 1-based index into the loaded
// table, which differs from the file line once blank lines are skipped.
type FormatError struct {
	Table  string
	Line   int
	Row    int
	Column string
	Err    error
}

func (e *FormatError) Error() string {
	where := fmt.Sprintf("%s line %d", e.Table, e.Line)
	if e.Line == 0 && e.Row > 0 {
		where = fmt.Sprintf("%s row %d", e.Table, e.Row)
	}
	if e.Column == "" {
		return fmt.Sprintf("%s: %v", where, e.Err)
	}
	return fmt.Sprintf("%s column %s: %v", where, e.Column, e.Err)
}

func (e *FormatError) Unwrap() []error {
	return []error{ErrDataFormat, e.Err}
}

func invalidQuery(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

func errNonFinite(price, discount float64) error {
	return fmt.Errorf("non-finite amount: extendedprice=%v discount=%v", price, discount)
}
