// =============================================================================
// QDX Converter - Decode Errors
// =============================================================================
//
// Per-record conditions raised while decoding a QDX slot. None of these abort
// a scan: the scanner logs them and moves on to the next slot.
//
//   MalformedRecord  - slot shorter than the layout's fixed width; skip it
//   InvalidTimestamp - BCD digits do not form a real date; current time used
//
// =============================================================================

package qdx

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks.
var (
	ErrMalformedRecord  = errors.New("qdx: malformed record")
	ErrInvalidTimestamp = errors.New("qdx: invalid bcd timestamp")
)

// MalformedRecordError reports a slot too short for the layout being decoded.
type MalformedRecordError struct {
	// Kind is the record layout name (e.g. "line_item", "tail").
	Kind string

	// Want is the fixed width of the layout in bytes.
	Want int

	// Got is the number of bytes available.
	Got int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("qdx: malformed %s record: need %d bytes, have %d", e.Kind, e.Want, e.Got)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// InvalidTimestampError carries the six decoded components that failed to
// form a calendar date/time.
type InvalidTimestampError struct {
	Year, Month, Day, Hour, Minute, Second int
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("qdx: invalid bcd timestamp %04d-%02d-%02d %02d:%02d:%02d",
		e.Year, e.Month, e.Day, e.Hour, e.Minute, e.Second)
}

func (e *InvalidTimestampError) Is(target error) bool {
	return target == ErrInvalidTimestamp
}

// checkWidth returns a MalformedRecordError when b is shorter than want.
func checkWidth(kind string, b []byte, want int) error {
	if len(b) < want {
		return &MalformedRecordError{Kind: kind, Want: want, Got: len(b)}
	}
	return nil
}
