// =============================================================================
// QDX Converter - Ticket Aggregator
// =============================================================================
//
// The Store owns every in-progress ticket, keyed by session id. Handlers call
// GetOrCreate to fold a record into its ticket; the total handler calls
// Finalize, which is the only way a session leaves the store.
//
// FINALIZE RULES (in order):
//   1. The session is removed, whatever the outcome.
//   2. Reject if a loyalty card is required and none was scanned.
//   3. Reject if the total record is flagged as a voided ticket.
//   4. Reject if the item count is zero.
//   5. Reject if the total exceeds MaxTotal (misaligned reads produce
//      implausible totals).
//   6. Otherwise fill in the identifiers, totals and purchase time.
//
// Sessions that never see a total stay in the store until the run ends. A
// Store serves one pass over one stream and is not safe for concurrent use.
//
// =============================================================================

package ticket

import (
	"sort"

	"github.com/ginjaninja78/qdx-converter/internal/qdx"
)

// MaxTotal is the sanity ceiling for a ticket total, in minor units.
const MaxTotal = 1000000

// Rejection says why Finalize discarded a ticket.
type Rejection int

const (
	Accepted Rejection = iota
	RejectNoLoyaltyCard
	RejectVoided
	RejectNoItems
	RejectImplausibleTotal
)

func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectNoLoyaltyCard:
		return "no_loyalty_card"
	case RejectVoided:
		return "voided"
	case RejectNoItems:
		return "no_items"
	case RejectImplausibleTotal:
		return "implausible_total"
	default:
		return "unknown"
	}
}

// Store aggregates in-progress tickets.
type Store struct {
	// RequireLoyaltyCard rejects tickets without a club card at Finalize.
	RequireLoyaltyCard bool

	tickets map[string]*Ticket
}

// NewStore returns an empty store.
func NewStore(requireLoyaltyCard bool) *Store {
	return &Store{
		RequireLoyaltyCard: requireLoyaltyCard,
		tickets:            make(map[string]*Ticket),
	}
}

// GetOrCreate returns the ticket for id, creating an empty one on first use.
func (s *Store) GetOrCreate(id string) *Ticket {
	if t, ok := s.tickets[id]; ok {
		return t
	}
	t := New()
	s.tickets[id] = t
	return t
}

// Len is the number of in-progress sessions.
func (s *Store) Len() int {
	return len(s.tickets)
}

// Pending lists in-progress session ids, sorted.
func (s *Store) Pending() []string {
	ids := make([]string, 0, len(s.tickets))
	for id := range s.tickets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Finalize closes the session for id using its total record and tail. It
// returns the completed ticket, or nil and the reason it was discarded.
//
// The purchase time is the tail's cached timestamp; any decode warning has
// already been reported by whoever resolved it first.
func (s *Store) Finalize(id string, total *qdx.Total, tail *qdx.Tail) (*Ticket, Rejection) {
	t := s.GetOrCreate(id)
	delete(s.tickets, id)

	if s.RequireLoyaltyCard && t.LoyaltyCard == "" {
		return nil, RejectNoLoyaltyCard
	}
	if total.VoidedTicket {
		return nil, RejectVoided
	}
	if total.ItemCount == 0 {
		return nil, RejectNoItems
	}
	if total.Amount > MaxTotal {
		return nil, RejectImplausibleTotal
	}

	t.TicketID = id
	t.TerminalID = tail.POSNumber
	t.TransactionID = tail.TicketNumber
	t.Total = total.Amount
	t.TaxValue = total.TaxValue
	t.ItemCount = total.ItemCount
	t.PurchaseTime, _ = tail.Time()
	return t, Accepted
}
