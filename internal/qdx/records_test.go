package qdx_test

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/qdx-converter/internal/qdx"
	"github.com/ginjaninja78/qdx-converter/internal/qdx/qdxtest"
)

var upc = [7]byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x23, 0x45}

func TestDecodeTail(t *testing.T) {
	raw := qdxtest.Tail(qdxtest.TailSpec{POSNumber: 12, TicketNumber: 4503, CashierNumber: 77, SeqNo: 9})
	tail, err := qdx.DecodeTail(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tail.POSNumber != 12 || tail.TicketNumber != 4503 || tail.CashierNumber != 77 || tail.SeqNo != 9 {
		t.Fatalf("unexpected tail: %+v", tail)
	}
	if got := tail.SessionID(); got != "12_4503" {
		t.Fatalf("session id = %q", got)
	}
	ts, err := tail.Time()
	if err != nil {
		t.Fatalf("unexpected warning: %v", err)
	}
	if !ts.Equal(qdxtest.DefaultTime) {
		t.Fatalf("time = %v want %v", ts, qdxtest.DefaultTime)
	}
}

func TestDecodeSlotTail(t *testing.T) {
	slot := qdxtest.Slot(qdxtest.Location("STORE1"), qdxtest.TailSpec{POSNumber: 3, TicketNumber: 0xBEEF})
	tail, err := qdx.DecodeSlotTail(slot)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tail.TicketNumber != 0xBEEF {
		t.Fatalf("ticket number = %#x, want little-endian 0xbeef", tail.TicketNumber)
	}
	if _, err := qdx.DecodeSlotTail(slot[:40]); !errors.Is(err, qdx.ErrMalformedRecord) {
		t.Fatalf("expected malformed record, got %v", err)
	}
}

func TestDecodeLineItem(t *testing.T) {
	r, err := qdx.DecodeLineItem(qdxtest.LineItem(upc, 1, 500, 500))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := r.UPC(); got != "00000000012345" {
		t.Fatalf("upc = %q", got)
	}
	if r.Quantity != 1 || r.Price != 500 || r.Amount != 500 {
		t.Fatalf("unexpected line item: %+v", r)
	}
}

func TestDecodeLineItem_NegativeQuantity(t *testing.T) {
	r, err := qdx.DecodeLineItem(qdxtest.LineItem(upc, -2, 250, 500))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Quantity != -2 {
		t.Fatalf("quantity = %d", r.Quantity)
	}
}

func TestDecodeClubcard(t *testing.T) {
	r, err := qdx.DecodeClubcard(qdxtest.Clubcard("LOYAL123"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.CardNo != "LOYAL123" {
		t.Fatalf("card = %q", r.CardNo)
	}
	if r.Opcode != qdx.OpExtended || r.Function != qdx.SubOpClubcard {
		t.Fatalf("opcodes = %#x %#x", r.Opcode, r.Function)
	}
}

func TestDecodePayment_AccountIsLastTwoBytes(t *testing.T) {
	account := [10]byte{0x41, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x0A, 0xB3}
	r, err := qdx.DecodePayment(qdxtest.Payment(1234, account))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := r.Account(); got != "0ab3" {
		t.Fatalf("account = %q", got)
	}
	if r.Amount != 1234 {
		t.Fatalf("amount = %d", r.Amount)
	}
}

func TestDecodeLocation(t *testing.T) {
	r, err := qdx.DecodeLocation(qdxtest.Location("ST9"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.StoreID != "ST9" {
		t.Fatalf("store = %q", r.StoreID)
	}
}

func TestDecodeTotal(t *testing.T) {
	r, err := qdx.DecodeTotal(qdxtest.Total(qdxtest.TotalSpec{
		Voided: true, TicketNumber: 4503, TaxValue: 37, ItemCount: 3, Amount: 1999,
	}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !r.TicketTotal || !r.VoidedTicket || r.SavedTicket {
		t.Fatalf("flag bits: %+v", r)
	}
	if r.TicketNumber != 4503 || r.TaxValue != 37 || r.ItemCount != 3 || r.Amount != 1999 {
		t.Fatalf("unexpected total: %+v", r)
	}
}

func TestDecodeDiscount(t *testing.T) {
	r, err := qdx.DecodeDiscount(qdxtest.Discount(qdxtest.DiscountSpec{
		ItemCode: upc,
		Flags:    [4]byte{0x01, 0x42, 0x00, 0xff},
		Percent:  12.5,
		Quantity: 2,
		Price:    300,
		Amount:   -60,
	}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := r.UPC(); got != "00000000012345" {
		t.Fatalf("upc = %q", got)
	}
	if got := r.TypeFlags(); got != "014200ff" {
		t.Fatalf("type flags = %q", got)
	}
	if r.Percent != 12.5 || r.Quantity != 2 || r.Price != 300 || r.Amount != -60 {
		t.Fatalf("unexpected discount: %+v", r)
	}
}

func TestDecodeCoupon(t *testing.T) {
	code := [7]byte{0x99, 0x00, 0x12, 0x34, 0x56, 0x78, 0x9a}
	r, err := qdx.DecodeCoupon(qdxtest.Coupon(code, "SAVE50", 1, -50))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := r.Code(); got != "9900123456789a" {
		t.Fatalf("code = %q", got)
	}
	if r.Name() != "SAVE50" || r.Quantity != 1 || r.Amount != -50 {
		t.Fatalf("unexpected coupon: %+v", r)
	}
}

func TestDecoders_ShortInput(t *testing.T) {
	decoders := map[string]func([]byte) error{
		"line_item": func(b []byte) error { _, err := qdx.DecodeLineItem(b); return err },
		"clubcard":  func(b []byte) error { _, err := qdx.DecodeClubcard(b); return err },
		"payment":   func(b []byte) error { _, err := qdx.DecodePayment(b); return err },
		"location":  func(b []byte) error { _, err := qdx.DecodeLocation(b); return err },
		"total":     func(b []byte) error { _, err := qdx.DecodeTotal(b); return err },
		"discount":  func(b []byte) error { _, err := qdx.DecodeDiscount(b); return err },
		"coupon":    func(b []byte) error { _, err := qdx.DecodeCoupon(b); return err },
		"tail":      func(b []byte) error { _, err := qdx.DecodeTail(b); return err },
	}
	for kind, decode := range decoders {
		err := decode(make([]byte, 8))
		var mre *qdx.MalformedRecordError
		if !errors.As(err, &mre) {
			t.Fatalf("%s: expected *MalformedRecordError, got %v", kind, err)
		}
		if mre.Kind != kind || mre.Got != 8 {
			t.Fatalf("%s: unexpected error fields %+v", kind, mre)
		}
	}
}

func TestDecoders_DoNotMutateInput(t *testing.T) {
	slot := qdxtest.Slot(qdxtest.LineItem(upc, 1, 500, 500), qdxtest.TailSpec{POSNumber: 1, TicketNumber: 2})
	before := append([]byte(nil), slot...)
	if _, err := qdx.DecodeLineItem(slot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := qdx.DecodeSlotTail(slot); err != nil {
		t.Fatalf("decode tail: %v", err)
	}
	if string(before) != string(slot) {
		t.Fatalf("input mutated")
	}
}
