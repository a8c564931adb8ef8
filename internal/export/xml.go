package export

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ginjaninja78/qdx-converter/internal/ticket"
)

// XMLWriter writes a <tickets> document. Tickets and line items carry an
// "n" index attribute; line item numbering is global across the document.
type XMLWriter struct {
	opts Options

	// Indent is the per-level indentation. Default: two spaces.
	Indent string
}

func (x *XMLWriter) Extension() string { return ".xml" }

type xmlTickets struct {
	XMLName xml.Name    `xml:"tickets"`
	Count   int         `xml:"count,attr"`
	Tickets []xmlTicket `xml:"ticket"`
}

type xmlTicket struct {
	N             int           `xml:"n,attr"`
	TicketID      string        `xml:"TicketID"`
	StoreID       string        `xml:"StoreID"`
	CardID        string        `xml:"CardID,omitempty"`
	TerminalID    uint8         `xml:"TerminalID"`
	TransactionID uint16        `xml:"TransactionID"`
	Date          string        `xml:"Date"`
	ItemCount     uint16        `xml:"ItemCount"`
	Tax           string        `xml:"Tax"`
	Total         string        `xml:"Total"`
	Account       string        `xml:"Account,omitempty"`
	LineItems     []xmlLineItem `xml:"lineItem"`
	Discounts     []xmlDiscount `xml:"discount"`
	Coupons       []xmlCoupon   `xml:"coupon"`
}

type xmlLineItem struct {
	N        int    `xml:"n,attr"`
	UPC      string `xml:"UPC"`
	Quantity int32  `xml:"Quantity"`
	Price    string `xml:"Price"`
	Amount   string `xml:"Amount"`
	Date     string `xml:"Date"`
}

type xmlDiscount struct {
	UPC      string `xml:"UPC"`
	Type     string `xml:"Type"`
	Quantity uint32 `xml:"Quantity"`
	Price    string `xml:"Price"`
	Amount   string `xml:"Amount"`
}

type xmlCoupon struct {
	Code     string `xml:"Code"`
	Quantity int32  `xml:"Quantity"`
	Amount   string `xml:"Amount"`
}

func (x *XMLWriter) Write(w io.Writer, tickets []*ticket.Ticket) error {
	doc := xmlTickets{Count: len(tickets), Tickets: make([]xmlTicket, 0, len(tickets))}

	item := 1
	for i, t := range tickets {
		xt := xmlTicket{
			N:             i + 1,
			TicketID:      t.TicketID,
			StoreID:       t.StoreID,
			CardID:        t.LoyaltyCard,
			TerminalID:    t.TerminalID,
			TransactionID: t.TransactionID,
			Date:          x.opts.date(t.PurchaseTime),
			ItemCount:     t.ItemCount,
			Tax:           x.opts.amount(int64(t.TaxValue)),
			Total:         x.opts.amount(int64(t.Total)),
			Account:       t.AccountNumber,
		}
		for _, li := range t.LineItems {
			xt.LineItems = append(xt.LineItems, xmlLineItem{
				N:        item,
				UPC:      li.UPC,
				Quantity: li.Quantity,
				Price:    x.opts.amount(int64(li.Price)),
				Amount:   x.opts.amount(int64(li.Amount)),
				Date:     x.opts.date(li.DateTime),
			})
			item++
		}
		for _, d := range t.Discounts {
			xt.Discounts = append(xt.Discounts, xmlDiscount{
				UPC:      d.UPC,
				Type:     d.DiscountType,
				Quantity: d.Quantity,
				Price:    x.opts.amount(int64(d.Price)),
				Amount:   x.opts.amount(int64(d.Amount)),
			})
		}
		for _, c := range t.Coupons {
			xt.Coupons = append(xt.Coupons, xmlCoupon{
				Code:     c.CouponCode,
				Quantity: c.Quantity,
				Amount:   x.opts.amount(int64(c.Amount)),
			})
		}
		doc.Tickets = append(doc.Tickets, xt)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", x.Indent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode xml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
