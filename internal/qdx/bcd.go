// =============================================================================
// QDX Converter - BCD Date/Time
// =============================================================================
//
// Terminals stamp every record with a 6-byte packed BCD timestamp: twelve
// 4-bit digits, two per byte, in year/month/day/hour/minute/second order.
// Within a byte the first digit is the LOW nibble.
//
// FORMULA:
//   year   = d0*10 + 1900 + d1
//   month  = d2*10 + d3
//   day    = d4*10 + d5
//   hour   = d6*10 + d7
//   minute = d8*10 + d9
//   second = d10*10 + d11
//
//   The year formula is kept exactly as the terminals are read in production.
//   It is not the conventional tens/ones+1900 and still needs checking
//   against captured logs.
//
// INVALID DATES:
//   When the components do not form a real date/time the decode-time wall
//   clock is substituted and an InvalidTimestampError is returned alongside it
//   as a warning. The record itself is never failed.
//
// =============================================================================

package qdx

import "time"

// BcdDateTimeSize is the packed width of a BCD timestamp in bytes.
const BcdDateTimeSize = 6

// now is swapped in tests.
var now = time.Now

// BcdDateTime holds the raw digits of a packed timestamp and lazily caches
// the resolved time. The cache lives until Load or Clear replaces the digits.
type BcdDateTime struct {
	digits [12]uint8

	resolved bool
	cached   time.Time
	err      error
}

// DecodeBcdDateTime decodes a 6-byte packed timestamp.
func DecodeBcdDateTime(b []byte) (*BcdDateTime, error) {
	var d BcdDateTime
	if err := d.Load(b); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load re-populates the digits from b and invalidates any cached time.
func (d *BcdDateTime) Load(b []byte) error {
	if err := checkWidth("bcd_datetime", b, BcdDateTimeSize); err != nil {
		return err
	}
	d.Clear()
	for i := 0; i < BcdDateTimeSize; i++ {
		d.digits[2*i] = b[i] & 0x0f
		d.digits[2*i+1] = b[i] >> 4
	}
	return nil
}

// Clear zeroes the digits and drops the cached time.
func (d *BcdDateTime) Clear() {
	d.digits = [12]uint8{}
	d.resolved = false
	d.cached = time.Time{}
	d.err = nil
}

// Digits returns the twelve decoded nibbles in read order.
func (d *BcdDateTime) Digits() [12]uint8 {
	return d.digits
}

// Components returns year, month, day, hour, minute and second as computed
// from the digits, without any calendar validation.
func (d *BcdDateTime) Components() (year, month, day, hour, minute, second int) {
	p := func(i int) int { return int(d.digits[i])*10 + int(d.digits[i+1]) }
	year = int(d.digits[0])*10 + 1900 + int(d.digits[1])
	return year, p(2), p(4), p(6), p(8), p(10)
}

// Time returns the timestamp in the local zone. The first call computes and
// caches the result; later calls return the cached value and warning.
//
// A non-nil error is always an *InvalidTimestampError and is a warning only:
// the returned time is the wall clock at first resolution.
func (d *BcdDateTime) Time() (time.Time, error) {
	if d.resolved {
		return d.cached, d.err
	}

	year, month, day, hour, minute, second := d.Components()
	if validDateTime(year, month, day, hour, minute, second) {
		d.cached = time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
		d.err = nil
	} else {
		d.cached = now()
		d.err = &InvalidTimestampError{
			Year: year, Month: month, Day: day,
			Hour: hour, Minute: minute, Second: second,
		}
	}
	d.resolved = true
	return d.cached, d.err
}

func validDateTime(year, month, day, hour, minute, second int) bool {
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > daysIn(year, time.Month(month)) {
		return false
	}
	return hour >= 0 && hour < 24 && minute >= 0 && minute < 60 && second >= 0 && second < 60
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// ENCODING
// =============================================================================

// EncodeBcdDigits packs twelve digits into 6 bytes, low nibble first.
// Digits above 15 are truncated to their low four bits.
func EncodeBcdDigits(digits [12]uint8) []byte {
	out := make([]byte, BcdDateTimeSize)
	for i := range out {
		out[i] = digits[2*i]&0x0f | (digits[2*i+1]&0x0f)<<4
	}
	return out
}

// EncodeBcdDateTime is the inverse of Time for representable values: years
// 1900 through 2059 (the tens digit of the year offset must fit a nibble).
func EncodeBcdDateTime(t time.Time) ([]byte, bool) {
	offset := t.Year() - 1900
	if offset < 0 || offset > 159 {
		return nil, false
	}
	var digits [12]uint8
	parts := []int{offset, int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()}
	for i, v := range parts {
		digits[2*i] = uint8(v / 10)
		digits[2*i+1] = uint8(v % 10)
	}
	return EncodeBcdDigits(digits), true
}
