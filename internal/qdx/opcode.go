// =============================================================================
// QDX Converter - Opcode Dispatch Table
// =============================================================================
//
// The first payload byte names the record type. Some primary opcodes are
// families whose second byte selects the sub-type (e.g. 0x60 0x1B is a club
// card record, 0x60 0x31 a location record).
//
// DEFAULT TABLE:
//   01      line item
//   03      discount
//   04      payment
//   05      total
//   60/1B   club card
//   60/31   location
//
//   08 (coupon) is known but disabled by default. Turn it on with
//   EnableCoupons or an explicit override.
//
// Opcodes missing from the table resolve to HandlerNone. The log carries many
// record types nothing here needs (tax, department items, frames), so they
// are skipped without complaint.
//
// =============================================================================

package qdx

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Handler identifies what to do with a record.
type Handler uint8

const (
	HandlerNone Handler = iota
	HandlerLineItem
	HandlerDiscount
	HandlerPayment
	HandlerTotal
	HandlerClubcard
	HandlerLocation
	HandlerCoupon
)

var handlerNames = map[Handler]string{
	HandlerNone:     "none",
	HandlerLineItem: "line_item",
	HandlerDiscount: "discount",
	HandlerPayment:  "payment",
	HandlerTotal:    "total",
	HandlerClubcard: "clubcard",
	HandlerLocation: "location",
	HandlerCoupon:   "coupon",
}

func (h Handler) String() string {
	if name, ok := handlerNames[h]; ok {
		return name
	}
	return fmt.Sprintf("handler(%d)", uint8(h))
}

// ParseHandler maps a handler name back to its Handler.
func ParseHandler(name string) (Handler, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for h, n := range handlerNames {
		if n == name {
			return h, nil
		}
	}
	return HandlerNone, fmt.Errorf("unknown handler %q", name)
}

// Well-known opcodes.
const (
	OpLineItem    byte = 0x01
	OpDiscount    byte = 0x03
	OpPayment     byte = 0x04
	OpTotal       byte = 0x05
	OpCoupon      byte = 0x08
	OpExtended    byte = 0x60
	SubOpClubcard byte = 0x1B
	SubOpLocation byte = 0x31
)

// entry is either a direct handler or a nested table keyed by the second byte.
type entry struct {
	handler Handler
	sub     map[byte]Handler
}

// Table is a two-level opcode dispatch table.
type Table struct {
	entries map[byte]entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[byte]entry)}
}

// DefaultTable returns the production table, coupons disabled.
func DefaultTable() *Table {
	t := NewTable()
	t.Set(OpLineItem, HandlerLineItem)
	t.Set(OpDiscount, HandlerDiscount)
	t.Set(OpPayment, HandlerPayment)
	t.Set(OpTotal, HandlerTotal)
	t.SetSub(OpExtended, SubOpClubcard, HandlerClubcard)
	t.SetSub(OpExtended, SubOpLocation, HandlerLocation)
	return t
}

// EnableCoupons routes opcode 0x08 to the coupon handler.
func (t *Table) EnableCoupons() {
	t.Set(OpCoupon, HandlerCoupon)
}

// Set binds a primary opcode to a handler, replacing any nested table.
// Binding HandlerNone removes the opcode.
func (t *Table) Set(op byte, h Handler) {
	if h == HandlerNone {
		delete(t.entries, op)
		return
	}
	t.entries[op] = entry{handler: h}
}

// SetSub binds a primary/secondary pair, converting the primary into a nested
// table if it was a direct handler.
func (t *Table) SetSub(op, sub byte, h Handler) {
	e := t.entries[op]
	if e.sub == nil {
		e = entry{sub: make(map[byte]Handler)}
	}
	if h == HandlerNone {
		delete(e.sub, sub)
	} else {
		e.sub[sub] = h
	}
	t.entries[op] = e
}

// Lookup resolves the handler for a slot from its first (and, for nested
// opcodes, second) byte.
func (t *Table) Lookup(slot []byte) Handler {
	if len(slot) == 0 {
		return HandlerNone
	}
	e, ok := t.entries[slot[0]]
	if !ok {
		return HandlerNone
	}
	if e.sub == nil {
		return e.handler
	}
	if len(slot) < 2 {
		return HandlerNone
	}
	return e.sub[slot[1]]
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	c := NewTable()
	for op, e := range t.entries {
		if e.sub == nil {
			c.entries[op] = e
			continue
		}
		sub := make(map[byte]Handler, len(e.sub))
		for k, v := range e.sub {
			sub[k] = v
		}
		c.entries[op] = entry{sub: sub}
	}
	return c
}

// Apply merges overrides of the form {"08": "coupon", "60/1b": "clubcard"}.
// Codes are two hex digits, case-insensitive; "none" removes a binding.
func (t *Table) Apply(overrides map[string]string) error {
	codes := make([]string, 0, len(overrides))
	for code := range overrides {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		h, err := ParseHandler(overrides[code])
		if err != nil {
			return fmt.Errorf("opcode %s: %w", code, err)
		}
		op, sub, nested, err := ParseOpcode(code)
		if err != nil {
			return err
		}
		if nested {
			t.SetSub(op, sub, h)
		} else {
			t.Set(op, h)
		}
	}
	return nil
}

// Entries lists the table as "XX" / "XX/YY" codes mapped to handler names,
// upper-case hex.
func (t *Table) Entries() map[string]string {
	out := make(map[string]string)
	for op, e := range t.entries {
		if e.sub == nil {
			out[fmt.Sprintf("%02X", op)] = e.handler.String()
			continue
		}
		for sub, h := range e.sub {
			out[fmt.Sprintf("%02X/%02X", op, sub)] = h.String()
		}
	}
	return out
}

// ParseOpcode parses "XX" or "XX/YY" hex codes.
func ParseOpcode(code string) (op, sub byte, nested bool, err error) {
	parts := strings.Split(strings.TrimSpace(code), "/")
	if len(parts) > 2 {
		return 0, 0, false, fmt.Errorf("invalid opcode %q", code)
	}
	bs := make([]byte, 0, 2)
	for _, p := range parts {
		b, err := hex.DecodeString(strings.TrimSpace(p))
		if err != nil || len(b) != 1 {
			return 0, 0, false, fmt.Errorf("invalid opcode %q: want two hex digits", code)
		}
		bs = append(bs, b[0])
	}
	if len(bs) == 2 {
		return bs[0], bs[1], true, nil
	}
	return bs[0], 0, false, nil
}
