package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/qdx-converter/internal/ticket"
)

// Sheet names in an exported workbook.
const (
	TicketsSheet   = "Tickets"
	LineItemsSheet = "LineItems"
)

// XLSXWriter writes a workbook with one summary row per ticket on the Tickets
// sheet and one row per line item on the LineItems sheet.
type XLSXWriter struct {
	opts Options
}

func (x *XLSXWriter) Extension() string { return ".xlsx" }

func (x *XLSXWriter) Write(w io.Writer, tickets []*ticket.Ticket) error {
	f := excelize.NewFile()
	defer f.Close()

	// A new workbook starts with Sheet1; rename it rather than leave it empty.
	if err := f.SetSheetName(f.GetSheetName(0), TicketsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LineItemsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := setRow(f, TicketsSheet, 1, TicketHeaders); err != nil {
		return err
	}
	if err := setRow(f, LineItemsSheet, 1, LineItemHeaders); err != nil {
		return err
	}

	ticketRow, itemRow := 2, 2
	for _, t := range tickets {
		if err := setRow(f, TicketsSheet, ticketRow, x.opts.ticketRow(t)); err != nil {
			return err
		}
		ticketRow++

		for _, li := range t.LineItems {
			if err := setRow(f, LineItemsSheet, itemRow, x.opts.lineItemRow(t, li)); err != nil {
				return err
			}
			itemRow++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// setRow writes values as text cells so codes keep their leading zeros.
func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
