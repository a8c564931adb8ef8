// Package qdxtest builds QDX slots for tests.
package qdxtest

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/ginjaninja78/qdx-converter/internal/qdx"
)

// TailSpec describes the tail block written into a slot.
type TailSpec struct {
	POSNumber     uint8
	TicketNumber  uint16
	CashierNumber uint16
	SeqNo         uint16

	// Time is encoded as BCD when Digits is nil.
	Time   time.Time
	Digits *[12]uint8
}

// DefaultTime is a representable timestamp used when a spec leaves Time zero.
var DefaultTime = time.Date(1999, time.March, 14, 15, 9, 26, 0, time.Local)

// Tail encodes a 20-byte tail block.
func Tail(s TailSpec) []byte {
	b := make([]byte, qdx.TailSize)
	binary.LittleEndian.PutUint16(b[4:6], s.TicketNumber)
	binary.LittleEndian.PutUint16(b[13:15], s.CashierNumber)
	b[15] = s.POSNumber
	binary.LittleEndian.PutUint16(b[16:18], s.SeqNo)

	var bcd []byte
	if s.Digits != nil {
		bcd = qdx.EncodeBcdDigits(*s.Digits)
	} else {
		t := s.Time
		if t.IsZero() {
			t = DefaultTime
		}
		var ok bool
		if bcd, ok = qdx.EncodeBcdDateTime(t); !ok {
			panic("qdxtest: time not representable as bcd: " + t.String())
		}
	}
	copy(b[6:12], bcd)
	return b
}

// Slot assembles a 64-byte slot from a payload (at most 44 bytes) and a tail.
func Slot(payload []byte, tail TailSpec) []byte {
	if len(payload) > qdx.PayloadSize {
		panic("qdxtest: payload longer than 44 bytes")
	}
	b := make([]byte, qdx.SlotSize)
	copy(b, payload)
	copy(b[qdx.PayloadSize:], Tail(tail))
	return b
}

// Stream concatenates slots.
func Stream(slots ...[]byte) []byte {
	var out []byte
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}

// LineItem encodes a line item payload.
func LineItem(code [7]byte, quantity int32, price, amount uint32) []byte {
	b := make([]byte, qdx.LineItemSize)
	b[0] = qdx.OpLineItem
	copy(b[1:8], code[:])
	binary.LittleEndian.PutUint32(b[18:22], uint32(quantity))
	binary.LittleEndian.PutUint32(b[22:26], price)
	binary.LittleEndian.PutUint32(b[26:30], amount)
	return b
}

// Clubcard encodes a club card payload; card is NUL padded to 20 bytes.
func Clubcard(card string) []byte {
	b := make([]byte, qdx.ClubcardSize)
	b[0] = qdx.OpExtended
	b[1] = qdx.SubOpClubcard
	copy(b[4:24], card)
	return b
}

// Location encodes a location payload; store is NUL padded to 6 bytes.
func Location(store string) []byte {
	b := make([]byte, qdx.LocationSize)
	b[0] = qdx.OpExtended
	b[1] = qdx.SubOpLocation
	copy(b[3:9], store)
	return b
}

// Payment encodes a payment payload with the given 10-byte account field.
func Payment(amount uint32, account [10]byte) []byte {
	b := make([]byte, qdx.PaymentSize)
	b[0] = qdx.OpPayment
	binary.LittleEndian.PutUint32(b[8:12], amount)
	copy(b[22:32], account[:])
	return b
}

// TotalSpec describes a total record.
type TotalSpec struct {
	Voided       bool
	TicketNumber uint16
	TaxValue     uint32
	ItemCount    uint16
	Amount       uint32
}

// Total encodes a total payload.
func Total(s TotalSpec) []byte {
	b := make([]byte, qdx.TotalSize)
	b[0] = qdx.OpTotal
	b[1] = 0x01 // ticket total
	if s.Voided {
		b[1] |= 0x02
	}
	binary.LittleEndian.PutUint16(b[3:5], s.TicketNumber)
	binary.LittleEndian.PutUint32(b[5:9], s.TaxValue)
	binary.LittleEndian.PutUint16(b[9:11], s.ItemCount)
	binary.LittleEndian.PutUint32(b[11:15], s.Amount)
	return b
}

// DiscountSpec describes a discount record.
type DiscountSpec struct {
	ItemCode [7]byte
	Flags    [4]byte
	Percent  float32
	Quantity uint32
	Price    int32
	Amount   int32
}

// Discount encodes a discount payload.
func Discount(s DiscountSpec) []byte {
	b := make([]byte, qdx.DiscountSize)
	b[0] = qdx.OpDiscount
	copy(b[1:8], s.ItemCode[:])
	b[10], b[11], b[12] = s.Flags[0], s.Flags[1], s.Flags[2]
	binary.LittleEndian.PutUint32(b[14:18], math.Float32bits(s.Percent))
	binary.LittleEndian.PutUint32(b[20:24], s.Quantity)
	binary.LittleEndian.PutUint32(b[24:28], uint32(s.Price))
	binary.LittleEndian.PutUint32(b[28:32], uint32(s.Amount))
	b[32] = s.Flags[3]
	return b
}

// Coupon encodes a coupon payload.
func Coupon(code [7]byte, name string, quantity, amount int32) []byte {
	b := make([]byte, qdx.CouponSize)
	b[0] = qdx.OpCoupon
	binary.LittleEndian.PutUint32(b[3:7], uint32(quantity))
	binary.LittleEndian.PutUint32(b[7:11], uint32(amount))
	copy(b[16:23], code[:])
	copy(b[23:39], name)
	return b
}
