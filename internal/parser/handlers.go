package parser

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/qdx-converter/internal/qdx"
	"github.com/ginjaninja78/qdx-converter/internal/ticket"
)

// dispatch runs the handler for one record. The only error is a record too
// short for its layout.
func (p *Parser) dispatch(h qdx.Handler, slot []byte, tail *qdx.Tail, sink Sink) error {
	switch h {
	case qdx.HandlerLineItem:
		return p.lineItem(slot, tail)
	case qdx.HandlerDiscount:
		return p.discount(slot, tail)
	case qdx.HandlerPayment:
		return p.payment(slot, tail)
	case qdx.HandlerTotal:
		return p.total(slot, tail, sink)
	case qdx.HandlerClubcard:
		return p.clubcard(slot, tail)
	case qdx.HandlerLocation:
		return p.location(slot, tail)
	case qdx.HandlerCoupon:
		return p.coupon(slot, tail)
	default:
		return fmt.Errorf("no handler for %v", h)
	}
}

func (p *Parser) lineItem(slot []byte, tail *qdx.Tail) error {
	r, err := qdx.DecodeLineItem(slot)
	if err != nil {
		return err
	}
	t := p.store.GetOrCreate(tail.SessionID())
	t.LineItems = append(t.LineItems, ticket.LineItem{
		UPC:      r.UPC(),
		Quantity: r.Quantity,
		Price:    r.Price,
		Amount:   r.Amount,
		DateTime: p.recordTime(tail),
	})
	return nil
}

func (p *Parser) clubcard(slot []byte, tail *qdx.Tail) error {
	r, err := qdx.DecodeClubcard(slot)
	if err != nil {
		return err
	}
	p.store.GetOrCreate(tail.SessionID()).LoyaltyCard = r.CardNo
	return nil
}

func (p *Parser) payment(slot []byte, tail *qdx.Tail) error {
	r, err := qdx.DecodePayment(slot)
	if err != nil {
		return err
	}
	p.store.GetOrCreate(tail.SessionID()).AccountNumber = r.Account()
	return nil
}

func (p *Parser) location(slot []byte, tail *qdx.Tail) error {
	r, err := qdx.DecodeLocation(slot)
	if err != nil {
		return err
	}
	p.store.GetOrCreate(tail.SessionID()).StoreID = r.StoreID
	return nil
}

func (p *Parser) discount(slot []byte, tail *qdx.Tail) error {
	r, err := qdx.DecodeDiscount(slot)
	if err != nil {
		return err
	}
	t := p.store.GetOrCreate(tail.SessionID())
	t.Discounts = append(t.Discounts, ticket.Discount{
		UPC:          r.UPC(),
		Quantity:     r.Quantity,
		Price:        r.Price,
		Amount:       r.Amount,
		DiscountType: r.TypeFlags(),
		DateTime:     p.recordTime(tail),
	})
	return nil
}

func (p *Parser) coupon(slot []byte, tail *qdx.Tail) error {
	r, err := qdx.DecodeCoupon(slot)
	if err != nil {
		return err
	}
	t := p.store.GetOrCreate(tail.SessionID())
	t.Coupons = append(t.Coupons, ticket.Coupon{
		CouponCode: r.Code(),
		Quantity:   r.Quantity,
		Amount:     r.Amount,
		DateTime:   p.recordTime(tail),
	})
	return nil
}

// total finalizes the session. A total too short to decode leaves the session
// open, the same as any other malformed record.
func (p *Parser) total(slot []byte, tail *qdx.Tail, sink Sink) error {
	r, err := qdx.DecodeTotal(slot)
	if err != nil {
		return err
	}
	p.recordTime(tail)

	id := tail.SessionID()
	t, why := p.store.Finalize(id, r, tail)
	if why != ticket.Accepted {
		p.stats.Rejected[why]++
		p.opts.Logger.Debug("ticket rejected", "session", id, "reason", why.String(), "slot", p.index)
		return nil
	}
	p.stats.Emitted++
	if sink != nil {
		sink(t)
	}
	return nil
}

// recordTime resolves the tail's timestamp, reporting an invalid one.
func (p *Parser) recordTime(tail *qdx.Tail) time.Time {
	ts, err := tail.Time()
	if err != nil {
		p.stats.TimestampWarnings++
		p.opts.Logger.Warn("bad bcd timestamp, using current time",
			"slot", p.index, "session", tail.SessionID(), "error", err)
	}
	return ts
}
