package qdx

import (
	"encoding/binary"
	"strconv"
	"time"
)

// Slot geometry. Every physical record is a 64-byte slot whose last 20 bytes
// are the tail block.
const (
	SlotSize    = 64
	PayloadSize = 44
	TailSize    = SlotSize - PayloadSize
)

// Tail is the trailing metadata block present on every record.
//
// Offsets within the tail (little-endian):
//
//	0  seq2               1 byte
//	1  flag               1 byte
//	2  external pos no.   1 byte
//	3  flag options       1 byte
//	4  ticket number      uint16
//	6  bcd date/time      6 bytes
//	12 options            1 byte
//	13 cashier number     uint16
//	15 pos number         uint8
//	16 sequence number    uint16
//	18 pc/tv number       1 byte
//	19 reserved           1 byte
type Tail struct {
	Seq2              uint8
	Flag              uint8
	ExternalPOSNumber uint8
	FlagOptions       uint8
	TicketNumber      uint16
	DateTime          BcdDateTime
	Options           uint8
	CashierNumber     uint16
	POSNumber         uint8
	SeqNo             uint16
	PCNoTVNo          uint8
	Reserved          uint8
}

// DecodeTail decodes a 20-byte tail block.
func DecodeTail(b []byte) (*Tail, error) {
	if err := checkWidth("tail", b, TailSize); err != nil {
		return nil, err
	}
	t := &Tail{
		Seq2:              b[0],
		Flag:              b[1],
		ExternalPOSNumber: b[2],
		FlagOptions:       b[3],
		TicketNumber:      binary.LittleEndian.Uint16(b[4:6]),
		Options:           b[12],
		CashierNumber:     binary.LittleEndian.Uint16(b[13:15]),
		POSNumber:         b[15],
		SeqNo:             binary.LittleEndian.Uint16(b[16:18]),
		PCNoTVNo:          b[18],
		Reserved:          b[19],
	}
	if err := t.DateTime.Load(b[6:12]); err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeSlotTail decodes the tail of a full 64-byte slot.
func DecodeSlotTail(slot []byte) (*Tail, error) {
	if err := checkWidth("slot", slot, SlotSize); err != nil {
		return nil, err
	}
	return DecodeTail(slot[PayloadSize:SlotSize])
}

// SessionID is the key of the in-progress ticket this record belongs to:
// "<pos number>_<ticket number>".
func (t *Tail) SessionID() string {
	return SessionID(t.POSNumber, t.TicketNumber)
}

// Time resolves the tail's BCD timestamp. See BcdDateTime.Time.
func (t *Tail) Time() (time.Time, error) {
	return t.DateTime.Time()
}

// SessionID formats a session key from its two components.
func SessionID(posNumber uint8, ticketNumber uint16) string {
	return strconv.Itoa(int(posNumber)) + "_" + strconv.Itoa(int(ticketNumber))
}
