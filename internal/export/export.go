// =============================================================================
// QDX Converter - Ticket Export
// =============================================================================
//
// Writers turn a batch of finalized tickets into an output document. Three
// formats are supported:
//
//   csv  - one delimited row per line item (pipe-separated by default)
//   xlsx - a workbook with a Tickets sheet and a LineItems sheet
//   xml  - <tickets><ticket n="1">...<lineItem n="1"/></ticket></tickets>
//
// Amounts are stored in minor units. With DecimalAmounts set they are written
// as fixed two-decimal strings ("12.34"), otherwise as raw integers.
//
// =============================================================================

package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/qdx-converter/internal/ticket"
)

// Writer renders tickets in one output format.
type Writer interface {
	// Write renders every ticket to w.
	Write(w io.Writer, tickets []*ticket.Ticket) error

	// Extension is the file extension for the format, including the dot.
	Extension() string
}

// LineItemHeaders are the columns of a line item row.
var LineItemHeaders = []string{
	"store_id", "ticket_id", "card_id", "date", "upc", "quantity", "price", "cc", "total",
}

// TicketHeaders are the columns of a ticket summary row.
var TicketHeaders = []string{
	"ticket_id", "store_id", "card_id", "terminal_id", "transaction_id", "date",
	"item_count", "tax", "total", "cc", "line_items", "discounts", "coupons",
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls value rendering shared by every format.
type Options struct {
	// Delimiter separates CSV fields. Default: '|'
	Delimiter rune

	// DecimalAmounts renders minor units as "units.cents".
	DecimalAmounts bool

	// TimeLayout formats dates. Default: time.RFC3339
	TimeLayout string
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Delimiter:  '|',
		TimeLayout: time.RFC3339,
	}
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = '|'
	}
	if o.TimeLayout == "" {
		o.TimeLayout = time.RFC3339
	}
	return o
}

// =============================================================================
// FACTORY
// =============================================================================

// New returns the writer for format ("csv", "xlsx" or "xml").
func New(format string, opts Options) (Writer, error) {
	opts = opts.withDefaults()
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return &CSVWriter{opts: opts}, nil
	case "xlsx", "excel":
		return &XLSXWriter{opts: opts}, nil
	case "xml":
		return &XMLWriter{opts: opts, Indent: "  "}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", format)
	}
}

// =============================================================================
// VALUE RENDERING
// =============================================================================

// amount renders a minor-unit value.
func (o Options) amount(v int64) string {
	if !o.DecimalAmounts {
		return strconv.FormatInt(v, 10)
	}
	return decimal.New(v, -2).StringFixed(2)
}

func (o Options) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(o.TimeLayout)
}

// lineItemRow renders one line item with its ticket's fields, in
// LineItemHeaders order.
func (o Options) lineItemRow(t *ticket.Ticket, li ticket.LineItem) []string {
	return []string{
		t.StoreID,
		t.TicketID,
		t.LoyaltyCard,
		o.date(li.DateTime),
		li.UPC,
		strconv.FormatInt(int64(li.Quantity), 10),
		o.amount(int64(li.Price)),
		t.AccountNumber,
		o.amount(int64(t.Total)),
	}
}

// ticketRow renders a ticket summary in TicketHeaders order.
func (o Options) ticketRow(t *ticket.Ticket) []string {
	return []string{
		t.TicketID,
		t.StoreID,
		t.LoyaltyCard,
		strconv.Itoa(int(t.TerminalID)),
		strconv.Itoa(int(t.TransactionID)),
		o.date(t.PurchaseTime),
		strconv.Itoa(int(t.ItemCount)),
		o.amount(int64(t.TaxValue)),
		o.amount(int64(t.Total)),
		t.AccountNumber,
		strconv.Itoa(len(t.LineItems)),
		strconv.Itoa(len(t.Discounts)),
		strconv.Itoa(len(t.Coupons)),
	}
}
