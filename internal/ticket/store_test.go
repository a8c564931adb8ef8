package ticket

import (
	"testing"

	"github.com/ginjaninja78/qdx-converter/internal/qdx"
	"github.com/ginjaninja78/qdx-converter/internal/qdx/qdxtest"
)

func tailFor(t *testing.T, pos uint8, ticketNo uint16) *qdx.Tail {
	t.Helper()
	tail, err := qdx.DecodeTail(qdxtest.Tail(qdxtest.TailSpec{POSNumber: pos, TicketNumber: ticketNo}))
	if err != nil {
		t.Fatalf("decode tail: %v", err)
	}
	return tail
}

func TestStore_GetOrCreateIsIdempotent(t *testing.T) {
	s := NewStore(true)
	a := s.GetOrCreate("12_4503")
	a.LineItems = append(a.LineItems, LineItem{UPC: "x"})
	b := s.GetOrCreate("12_4503")
	if a != b {
		t.Fatalf("expected the same ticket")
	}
	b.LineItems = append(b.LineItems, LineItem{UPC: "y"})
	if got := len(s.GetOrCreate("12_4503").LineItems); got != 2 {
		t.Fatalf("line items = %d, want 2", got)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestStore_NewTicketHasEmptyCollections(t *testing.T) {
	tk := NewStore(false).GetOrCreate("1_1")
	if tk.LineItems == nil || tk.Discounts == nil || tk.Coupons == nil {
		t.Fatalf("collections must be non-nil: %+v", tk)
	}
}

func TestStore_FinalizeAccepts(t *testing.T) {
	s := NewStore(true)
	tk := s.GetOrCreate("12_4503")
	tk.LoyaltyCard = "LOYAL123"
	tk.LineItems = append(tk.LineItems, LineItem{UPC: "00000000012345", Quantity: 1, Price: 500, Amount: 500})

	got, why := s.Finalize("12_4503", &qdx.Total{ItemCount: 1, Amount: 500, TaxValue: 25}, tailFor(t, 12, 4503))
	if why != Accepted || got == nil {
		t.Fatalf("expected accept, got %v", why)
	}
	if got.TicketID != "12_4503" || got.TerminalID != 12 || got.TransactionID != 4503 {
		t.Fatalf("identifiers: %+v", got)
	}
	if got.Total != 500 || got.TaxValue != 25 || got.ItemCount != 1 {
		t.Fatalf("totals: %+v", got)
	}
	if !got.PurchaseTime.Equal(qdxtest.DefaultTime) {
		t.Fatalf("purchase time = %v", got.PurchaseTime)
	}
	if s.Len() != 0 {
		t.Fatalf("session not removed")
	}
}

func TestStore_FinalizeRejections(t *testing.T) {
	cases := []struct {
		name    string
		require bool
		card    string
		total   qdx.Total
		want    Rejection
	}{
		{"no loyalty card", true, "", qdx.Total{ItemCount: 1, Amount: 500}, RejectNoLoyaltyCard},
		{"voided with card", true, "LOYAL123", qdx.Total{VoidedTicket: true, ItemCount: 1, Amount: 500}, RejectVoided},
		{"zero items", true, "LOYAL123", qdx.Total{ItemCount: 0, Amount: 500}, RejectNoItems},
		{"implausible total", false, "", qdx.Total{ItemCount: 3, Amount: 2000000}, RejectImplausibleTotal},
		{"ceiling is inclusive", false, "", qdx.Total{ItemCount: 1, Amount: MaxTotal}, Accepted},
		{"card not required", false, "", qdx.Total{ItemCount: 1, Amount: 1}, Accepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(tc.require)
			tk := s.GetOrCreate("12_4503")
			tk.LoyaltyCard = tc.card
			tk.LineItems = append(tk.LineItems, LineItem{UPC: "a"})

			got, why := s.Finalize("12_4503", &tc.total, tailFor(t, 12, 4503))
			if why != tc.want {
				t.Fatalf("rejection = %v want %v", why, tc.want)
			}
			if (got != nil) != (tc.want == Accepted) {
				t.Fatalf("ticket = %v for %v", got, why)
			}
			if s.Len() != 0 {
				t.Fatalf("session must be removed regardless of outcome")
			}
		})
	}
}

func TestStore_SecondFinalizeStartsFresh(t *testing.T) {
	s := NewStore(false)
	tk := s.GetOrCreate("12_4503")
	tk.StoreID = "STORE1"
	tk.LineItems = append(tk.LineItems, LineItem{UPC: "a"})
	tail := tailFor(t, 12, 4503)

	if _, why := s.Finalize("12_4503", &qdx.Total{ItemCount: 0}, tail); why != RejectNoItems {
		t.Fatalf("first finalize: %v", why)
	}
	got, why := s.Finalize("12_4503", &qdx.Total{ItemCount: 1, Amount: 10}, tail)
	if why != Accepted {
		t.Fatalf("second finalize: %v", why)
	}
	if got.StoreID != "" || len(got.LineItems) != 0 {
		t.Fatalf("discarded state resurrected: %+v", got)
	}
}

func TestStore_Pending(t *testing.T) {
	s := NewStore(false)
	s.GetOrCreate("2_1")
	s.GetOrCreate("1_9")
	s.GetOrCreate("1_10")
	got := s.Pending()
	want := []string{"1_10", "1_9", "2_1"}
	if len(got) != len(want) {
		t.Fatalf("pending = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pending = %v want %v", got, want)
		}
	}
}

func TestRejection_String(t *testing.T) {
	if RejectImplausibleTotal.String() != "implausible_total" || Accepted.String() != "accepted" {
		t.Fatalf("unexpected names")
	}
}
