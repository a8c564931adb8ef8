// =============================================================================
// QDX Converter - Ticket Types
// =============================================================================
//
// A Ticket is one completed purchase, rebuilt from every record that shares
// its session key. Line items, discounts and coupons are appended in stream
// order; scalar fields are overwritten by the last record that sets them.
//
// Amounts are integer minor units exactly as the terminal recorded them.
//
// =============================================================================

package ticket

import "time"

// Ticket is an in-progress or finalized transaction.
type Ticket struct {
	// LineItems are the products sold, in stream order.
	LineItems []LineItem

	// LoyaltyCard is the club card number, empty if none was scanned.
	LoyaltyCard string

	// PurchaseTime is taken from the tail of the total record.
	PurchaseTime time.Time

	// AccountNumber is the masked tender account ("hex of last two bytes").
	AccountNumber string

	// StoreID comes from the location record.
	StoreID string

	// TicketID is the session key, "<pos>_<ticket number>".
	TicketID string

	// Total is the ticket total in minor units.
	Total uint32

	// TerminalID is the POS number.
	TerminalID uint8

	// TransactionID is the terminal's ticket number.
	TransactionID uint16

	TaxValue  uint32
	ItemCount uint16

	Discounts []Discount
	Coupons   []Coupon
}

// LineItem is a product line folded into a ticket.
type LineItem struct {
	UPC      string
	Quantity int32
	Price    uint32
	Amount   uint32
	DateTime time.Time
}

// Discount is a reduction folded into a ticket.
type Discount struct {
	UPC          string
	Quantity     uint32
	Price        int32
	Amount       int32
	DiscountType string
	DateTime     time.Time
}

// Coupon is a redeemed coupon folded into a ticket.
type Coupon struct {
	CouponCode string
	Quantity   int32
	Amount     int32
	DateTime   time.Time
}

// New returns an empty ticket with non-nil collections.
func New() *Ticket {
	return &Ticket{
		LineItems: []LineItem{},
		Discounts: []Discount{},
		Coupons:   []Coupon{},
	}
}
