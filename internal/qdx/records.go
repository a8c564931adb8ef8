// =============================================================================
// QDX Converter - Record Layouts
// =============================================================================
//
// One decoder per record type. Each maps the fixed byte range at the start of
// a slot to a typed record. All multi-byte integers are little-endian; packed
// flag bits are numbered from the least significant bit.
//
// LAYOUT WIDTHS (bytes, from slot offset 0):
//   line item  44      club card   24
//   discount   44      location     9
//   coupon     44      total       15
//   payment    32
//
// IDENTIFIERS:
//   Product codes, coupon codes and the payment account suffix are not text.
//   They are rendered as lowercase hex of the raw bytes, without reversing
//   byte order or dropping leading zeros.
//
// Flag bytes whose individual bits are undocumented are kept as opaque Flags.
//
// =============================================================================

package qdx

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Layout widths.
const (
	LineItemSize = 44
	ClubcardSize = 24
	PaymentSize  = 32
	LocationSize = 9
	TotalSize    = 15
	DiscountSize = 44
	CouponSize   = 44
)

// Flags is an opaque flag byte. Bit 0 is the least significant bit.
type Flags uint8

// Bit reports whether bit i (0..7) is set.
func (f Flags) Bit(i uint) bool {
	return f&(1<<i) != 0
}

// =============================================================================
// LINE ITEM
// =============================================================================

// LineItem is a sold (or returned) product line.
type LineItem struct {
	Opcode                 uint8
	Code                   [7]byte
	Flag1                  Flags
	Flag2                  Flags
	Flag3                  Flags
	Flag4                  Flags
	Flag5                  Flags
	DepartmentNumber       uint16
	MultiSellUnit          uint8
	ReturnType             uint8
	TaxPointer             uint8
	Quantity               int32
	Price                  uint32
	Amount                 uint32
	NoTaxPrice             uint32
	NoTaxAmount            uint32
	ReturnSurchargePercent float32
	ProductCode            uint8
	TrailerFlags           Flags
}

// DecodeLineItem decodes a line item record.
func DecodeLineItem(b []byte) (*LineItem, error) {
	if err := checkWidth("line_item", b, LineItemSize); err != nil {
		return nil, err
	}
	r := &LineItem{
		Opcode:                 b[0],
		Flag1:                  Flags(b[8]),
		Flag2:                  Flags(b[9]),
		Flag3:                  Flags(b[10]),
		Flag4:                  Flags(b[11]),
		Flag5:                  Flags(b[12]),
		DepartmentNumber:       u16(b, 13),
		MultiSellUnit:          b[15],
		ReturnType:             b[16],
		TaxPointer:             b[17],
		Quantity:               int32(u32(b, 18)),
		Price:                  u32(b, 22),
		Amount:                 u32(b, 26),
		NoTaxPrice:             u32(b, 30),
		NoTaxAmount:            u32(b, 34),
		ReturnSurchargePercent: f32(b, 38),
		ProductCode:            b[42],
		TrailerFlags:           Flags(b[43]),
	}
	copy(r.Code[:], b[1:8])
	return r, nil
}

// UPC is the hex rendering of the 7-byte code field.
func (r *LineItem) UPC() string {
	return hex.EncodeToString(r.Code[:])
}

// =============================================================================
// CLUB CARD
// =============================================================================

// Clubcard attaches a loyalty card to the ticket.
type Clubcard struct {
	Opcode   uint8
	Function uint8
	Flag1    Flags
	SchemeNo uint8
	CardNo   string
}

// DecodeClubcard decodes a club card record. The card number is ASCII padded
// with NUL bytes; the padding is trimmed.
func DecodeClubcard(b []byte) (*Clubcard, error) {
	if err := checkWidth("clubcard", b, ClubcardSize); err != nil {
		return nil, err
	}
	return &Clubcard{
		Opcode:   b[0],
		Function: b[1],
		Flag1:    Flags(b[2]),
		SchemeNo: b[3],
		CardNo:   trimPadding(b[4:24]),
	}, nil
}

// =============================================================================
// PAYMENT
// =============================================================================

// Payment is a tender line.
type Payment struct {
	Opcode        uint8
	Media         uint16
	Flag1         Flags
	Flag2         Flags
	Flag3         Flags
	Flag4         Flags
	Type          uint8
	Amount        uint32
	ForeignAmount uint32
	ForeignRate   uint32
	IssueDate     uint16
	AccountNumber [10]byte
}

// DecodePayment decodes a payment record.
func DecodePayment(b []byte) (*Payment, error) {
	if err := checkWidth("payment", b, PaymentSize); err != nil {
		return nil, err
	}
	r := &Payment{
		Opcode:        b[0],
		Media:         u16(b, 1),
		Flag1:         Flags(b[3]),
		Flag2:         Flags(b[4]),
		Flag3:         Flags(b[5]),
		Flag4:         Flags(b[6]),
		Type:          b[7],
		Amount:        u32(b, 8),
		ForeignAmount: u32(b, 12),
		ForeignRate:   u32(b, 16),
		IssueDate:     u16(b, 20),
	}
	copy(r.AccountNumber[:], b[22:32])
	return r, nil
}

// Account is the masked account identifier: hex of the last two bytes of the
// account number field.
func (r *Payment) Account() string {
	return hex.EncodeToString(r.AccountNumber[len(r.AccountNumber)-2:])
}

// =============================================================================
// LOCATION
// =============================================================================

// Location names the store the ticket was rung up in.
type Location struct {
	Opcode    uint8
	Subopcode uint8
	Flag1     Flags
	StoreID   string
}

// DecodeLocation decodes a location record.
func DecodeLocation(b []byte) (*Location, error) {
	if err := checkWidth("location", b, LocationSize); err != nil {
		return nil, err
	}
	return &Location{
		Opcode:    b[0],
		Subopcode: b[1],
		Flag1:     Flags(b[2]),
		StoreID:   trimPadding(b[3:9]),
	}, nil
}

// =============================================================================
// TOTAL
// =============================================================================

// Total closes a ticket.
type Total struct {
	Opcode uint8

	// Flag 1, bit 0 first.
	TicketTotal         bool
	VoidedTicket        bool
	SavedTicket         bool
	RecalledTransaction bool
	DriveOff            bool
	QuickStore          bool
	PCInfo              bool
	TenderPurchase      bool

	Flag2        Flags
	TicketNumber uint16
	TaxValue     uint32
	ItemCount    uint16
	Amount       uint32
}

// DecodeTotal decodes a total record.
func DecodeTotal(b []byte) (*Total, error) {
	if err := checkWidth("total", b, TotalSize); err != nil {
		return nil, err
	}
	f := Flags(b[1])
	return &Total{
		Opcode:              b[0],
		TicketTotal:         f.Bit(0),
		VoidedTicket:        f.Bit(1),
		SavedTicket:         f.Bit(2),
		RecalledTransaction: f.Bit(3),
		DriveOff:            f.Bit(4),
		QuickStore:          f.Bit(5),
		PCInfo:              f.Bit(6),
		TenderPurchase:      f.Bit(7),
		Flag2:               Flags(b[2]),
		TicketNumber:        u16(b, 3),
		TaxValue:            u32(b, 5),
		ItemCount:           u16(b, 9),
		Amount:              u32(b, 11),
	}, nil
}

// =============================================================================
// DISCOUNT
// =============================================================================

// Discount is an item, department or ticket level reduction.
//
// Flags 1-4 carry documented bits (manual, percent, member discount, staff
// discount, ...) that nothing downstream interprets yet, so they are kept raw
// and rolled up into TypeFlags.
type Discount struct {
	Opcode                 uint8
	ItemCode               [7]byte
	DepartmentNumber       uint16
	Flag1                  Flags
	Flag2                  Flags
	Flag3                  Flags
	DiscountType           uint8
	Percent                float32
	ReturnType             uint8
	TaxPointer             uint8
	Quantity               uint32
	Price                  int32
	Amount                 int32
	Flag4                  Flags
	MultipleSellingUnit    uint8
	Tender                 uint16
	NoTaxAmount            uint32
	ReturnSurchargePercent float32
}

// DecodeDiscount decodes a discount record.
func DecodeDiscount(b []byte) (*Discount, error) {
	if err := checkWidth("discount", b, DiscountSize); err != nil {
		return nil, err
	}
	r := &Discount{
		Opcode:                 b[0],
		DepartmentNumber:       u16(b, 8),
		Flag1:                  Flags(b[10]),
		Flag2:                  Flags(b[11]),
		Flag3:                  Flags(b[12]),
		DiscountType:           b[13],
		Percent:                f32(b, 14),
		ReturnType:             b[18],
		TaxPointer:             b[19],
		Quantity:               u32(b, 20),
		Price:                  int32(u32(b, 24)),
		Amount:                 int32(u32(b, 28)),
		Flag4:                  Flags(b[32]),
		MultipleSellingUnit:    b[33],
		Tender:                 u16(b, 34),
		NoTaxAmount:            u32(b, 36),
		ReturnSurchargePercent: f32(b, 40),
	}
	copy(r.ItemCode[:], b[1:8])
	return r, nil
}

// UPC is the hex rendering of the discounted item's code.
func (r *Discount) UPC() string {
	return hex.EncodeToString(r.ItemCode[:])
}

// TypeFlags is the hex rendering of flag bytes 1 through 4, in that order.
func (r *Discount) TypeFlags() string {
	return hex.EncodeToString([]byte{byte(r.Flag1), byte(r.Flag2), byte(r.Flag3), byte(r.Flag4)})
}

// =============================================================================
// COUPON
// =============================================================================

// Coupon is a redeemed coupon.
type Coupon struct {
	Opcode uint8

	// Flag 1, bit 0 first.
	Subtract                        bool
	Cancel                          bool
	SuppressBonusCoupon             bool
	ExtCouponInformationTransaction bool
	DepartmentNet                   bool
	BonusCouponFollowed             bool
	CostPlus                        bool
	ChainedPreviousItem             bool

	// Flag 2, bit 0 first.
	StoreCoupon             bool
	VendorCoupon            bool
	BonusCoupon             bool
	UPC5Coupon              bool
	FoodstampPayment        bool
	DiscountAllowed         bool
	ManualEnteredAmount     bool
	ManualEnteredDepartment bool

	Quantity     int32
	Amount       int32
	TenderNumber uint16
	TenderType   uint8
	CouponDept   uint16
	CouponCode   [7]byte
	CouponName   [16]byte
	TaxPointer   uint8
	MinimumQty   int16
	PlusAmount   int16
}

// DecodeCoupon decodes a coupon record.
func DecodeCoupon(b []byte) (*Coupon, error) {
	if err := checkWidth("coupon", b, CouponSize); err != nil {
		return nil, err
	}
	f1, f2 := Flags(b[1]), Flags(b[2])
	r := &Coupon{
		Opcode:                          b[0],
		Subtract:                        f1.Bit(0),
		Cancel:                          f1.Bit(1),
		SuppressBonusCoupon:             f1.Bit(2),
		ExtCouponInformationTransaction: f1.Bit(3),
		DepartmentNet:                   f1.Bit(4),
		BonusCouponFollowed:             f1.Bit(5),
		CostPlus:                        f1.Bit(6),
		ChainedPreviousItem:             f1.Bit(7),
		StoreCoupon:                     f2.Bit(0),
		VendorCoupon:                    f2.Bit(1),
		BonusCoupon:                     f2.Bit(2),
		UPC5Coupon:                      f2.Bit(3),
		FoodstampPayment:                f2.Bit(4),
		DiscountAllowed:                 f2.Bit(5),
		ManualEnteredAmount:             f2.Bit(6),
		ManualEnteredDepartment:         f2.Bit(7),
		Quantity:                        int32(u32(b, 3)),
		Amount:                          int32(u32(b, 7)),
		TenderNumber:                    u16(b, 11),
		TenderType:                      b[13],
		CouponDept:                      u16(b, 14),
		TaxPointer:                      b[39],
		MinimumQty:                      int16(u16(b, 40)),
		PlusAmount:                      int16(u16(b, 42)),
	}
	copy(r.CouponCode[:], b[16:23])
	copy(r.CouponName[:], b[23:39])
	return r, nil
}

// Code is the hex rendering of the 7-byte coupon code.
func (r *Coupon) Code() string {
	return hex.EncodeToString(r.CouponCode[:])
}

// Name is the coupon's description with NUL padding trimmed.
func (r *Coupon) Name() string {
	return trimPadding(r.CouponName[:])
}

// =============================================================================
// HELPERS
// =============================================================================

func u16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

func u32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func f32(b []byte, off int) float32 {
	return math.Float32frombits(u32(b, off))
}

// trimPadding strips trailing NUL and space padding from a fixed-width text
// field.
func trimPadding(b []byte) string {
	return string(bytes.TrimRight(b, "\x00 "))
}
