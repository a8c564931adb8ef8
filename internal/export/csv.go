package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/qdx-converter/internal/ticket"
)

// CSVWriter writes a header row followed by one row per line item.
type CSVWriter struct {
	opts Options
}

func (c *CSVWriter) Extension() string { return ".csv" }

func (c *CSVWriter) Write(w io.Writer, tickets []*ticket.Ticket) error {
	cw := csv.NewWriter(w)
	cw.Comma = c.opts.Delimiter

	if err := cw.Write(LineItemHeaders); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, t := range tickets {
		for _, li := range t.LineItems {
			if err := cw.Write(c.opts.lineItemRow(t, li)); err != nil {
				return fmt.Errorf("failed to write ticket %s: %w", t.TicketID, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
